package httpsclient

import (
	"context"
)

// transmitBody streams the body through the packet pool one packet at a time, so
// a send never holds more than a single packet whatever the body size. Each
// packet is released by the send, whether or not it succeeds. Empty bodies send
// nothing.
func transmitBody(ctx context.Context, client Client, body []byte) error {
	for len(body) > 0 {
		pkt, err := client.RequestPacketAllocate(ctx)
		if err != nil {
			return err
		}
		n := pkt.Fill(body)
		if n == 0 {
			pkt.Release()
			return errZeroPacket
		}
		if err := client.RequestPacketSend(ctx, pkt); err != nil {
			return err
		}
		body = body[n:]
	}
	return nil
}
