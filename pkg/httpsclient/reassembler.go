package httpsclient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
)

// reassemble drains body units into resp until the transport reports the body
// complete or a terminal condition is reached. Every unit it receives is released
// exactly once. The returned error is the terminal status, wrapped with its kind.
func reassemble(ctx context.Context, client Client, resp *Response, logger observability.Logger) error {
	for {
		pkt, err := client.ResponseBodyGet(ctx)
		complete := errors.Is(err, io.EOF)
		if err != nil && !complete {
			pkt.Release()
			return newRequestError(ErrTransport, StepReceive, err)
		}
		if pkt == nil {
			if complete {
				return nil
			}
			return newRequestError(ErrProtocol, StepReceive, errEmptyUnit)
		}

		size := pkt.Len()
		if size == 0 {
			pkt.Release()
			if complete {
				return nil
			}
			logger.Warn(ctx, "empty body unit before completion",
				observability.Int("offset", resp.n),
			)
			return newRequestError(ErrProtocol, StepReceive, errEmptyUnit)
		}

		free := resp.free()
		copied := pkt.CopyTo(resp.data[resp.n : resp.n+free])
		pkt.Release()
		resp.n += copied

		logger.Debug(ctx, "body unit received",
			observability.Int("unit.bytes", size),
			observability.Int("copied.bytes", copied),
			observability.Int("offset", resp.n),
		)

		if size >= free {
			resp.overflowed = true
			return newRequestError(ErrBufferOverflow, StepReceive, fmt.Errorf("body exceeds %d bytes", resp.Cap()-1))
		}
		if complete {
			return nil
		}
	}
}
