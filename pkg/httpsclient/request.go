package httpsclient

import (
	"context"
	"net/http"

	"github.com/JailtonJunior94/httpsengine/pkg/transport"
)

// Request describes one HTTPS exchange. A nil Body selects GET, any other value
// (including an empty slice) selects POST.
type Request struct {
	Host     string
	Resource string
	Body     []byte
}

// Method returns GET or POST.
func (r Request) Method() string {
	if r.Body == nil {
		return http.MethodGet
	}
	return http.MethodPost
}

func (r Request) head() transport.RequestHead {
	return transport.RequestHead{
		Method:        r.Method(),
		Host:          r.Host,
		Resource:      r.Resource,
		ContentLength: int64(len(r.Body)),
	}
}

// buildRequest initializes the request head and adds Content-Type to POST requests.
// Host and Content-Length are emitted by the transport from the head.
func buildRequest(client Client, req Request, contentType string) (Step, error) {
	if err := client.RequestInitialize(req.head()); err != nil {
		return StepRequestInit, err
	}
	if req.Body != nil {
		if err := client.RequestHeaderAdd("Content-Type", contentType); err != nil {
			return StepHeadersAdd, err
		}
	}
	return StepHeadersAdd, nil
}

// sendRequest builds the head and transmits it.
func sendRequest(ctx context.Context, client Client, req Request, contentType string) (Step, error) {
	if step, err := buildRequest(client, req, contentType); err != nil {
		return step, err
	}
	if err := client.RequestSend(ctx); err != nil {
		return StepRequestSend, err
	}
	return StepRequestSend, nil
}
