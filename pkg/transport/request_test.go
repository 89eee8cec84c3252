package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHead(t *testing.T) {
	tests := []struct {
		name  string
		head  RequestHead
		extra []header
		want  string
	}{
		{
			name: "get",
			head: RequestHead{Method: "GET", Host: "api.example.com", Resource: "/v1/ping"},
			want: "GET /v1/ping HTTP/1.1\r\n" +
				"Host: api.example.com\r\n" +
				"Connection: close\r\n\r\n",
		},
		{
			name:  "post with content type",
			head:  RequestHead{Method: "POST", Host: "api.example.com", Resource: "/v1/items", ContentLength: 20},
			extra: []header{{name: "Content-Type", value: "application/json"}},
			want: "POST /v1/items HTTP/1.1\r\n" +
				"Host: api.example.com\r\n" +
				"Content-Length: 20\r\n" +
				"Content-Type: application/json\r\n" +
				"Connection: close\r\n\r\n",
		},
		{
			name: "empty post still declares length",
			head: RequestHead{Method: "POST", Host: "h", Resource: "/"},
			want: "POST / HTTP/1.1\r\nHost: h\r\nContent-Length: 0\r\nConnection: close\r\n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.head.Validate())
			assert.Equal(t, tt.want, string(appendHead(nil, tt.head, tt.extra)))
		})
	}
}

func TestRequestHeadValidate(t *testing.T) {
	tests := []struct {
		name string
		head RequestHead
	}{
		{"unsupported method", RequestHead{Method: "PUT", Host: "h", Resource: "/"}},
		{"get with body", RequestHead{Method: "GET", Host: "h", Resource: "/", ContentLength: 3}},
		{"negative length", RequestHead{Method: "POST", Host: "h", Resource: "/", ContentLength: -1}},
		{"empty host", RequestHead{Method: "GET", Resource: "/"}},
		{"host injection", RequestHead{Method: "GET", Host: "h\r\nX: y", Resource: "/"}},
		{"relative resource", RequestHead{Method: "GET", Host: "h", Resource: "v1"}},
		{"resource with space", RequestHead{Method: "GET", Host: "h", Resource: "/a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.head.Validate(), ErrInvalidRequest)
		})
	}
}

func TestValidHeader(t *testing.T) {
	assert.NoError(t, validHeader("Content-Type", "application/json"))
	assert.ErrorIs(t, validHeader("", "x"), ErrInvalidRequest)
	assert.ErrorIs(t, validHeader("X Bad", "x"), ErrInvalidRequest)
	assert.ErrorIs(t, validHeader("X-Ok", "a\r\nb"), ErrInvalidRequest)
	assert.ErrorIs(t, validHeader("content-length", "5"), ErrInvalidRequest)
	assert.ErrorIs(t, validHeader("Connection", "keep-alive"), ErrInvalidRequest)
}
