package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RequestHead is the request line plus the headers the transport always sends.
type RequestHead struct {
	Method        string
	Host          string
	Resource      string
	ContentLength int64
}

// Validate accepts GET and POST only, with an origin-form resource.
func (h RequestHead) Validate() error {
	switch h.Method {
	case http.MethodGet:
		if h.ContentLength != 0 {
			return fmt.Errorf("%w: GET with a body", ErrInvalidRequest)
		}
	case http.MethodPost:
		if h.ContentLength < 0 {
			return fmt.Errorf("%w: negative content length", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: method %q", ErrInvalidRequest, h.Method)
	}
	if h.Host == "" || strings.ContainsAny(h.Host, " \r\n/") {
		return fmt.Errorf("%w: host %q", ErrInvalidRequest, h.Host)
	}
	if !strings.HasPrefix(h.Resource, "/") || strings.ContainsAny(h.Resource, " \r\n") {
		return fmt.Errorf("%w: resource %q", ErrInvalidRequest, h.Resource)
	}
	return nil
}

type header struct {
	name, value string
}

func validHeader(name, value string) error {
	if name == "" || strings.ContainsAny(name, " :\t\r\n") {
		return fmt.Errorf("%w: header name %q", ErrInvalidRequest, name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: header %s value", ErrInvalidRequest, name)
	}
	switch http.CanonicalHeaderKey(name) {
	case "Host", "Content-Length", "Connection", "Transfer-Encoding":
		return fmt.Errorf("%w: header %s is managed by the transport", ErrInvalidRequest, name)
	}
	return nil
}

// appendHead serializes the request line and headers, ending with the blank line.
// POST always carries Content-Length, GET never does.
func appendHead(b []byte, h RequestHead, extra []header) []byte {
	b = append(b, h.Method...)
	b = append(b, ' ')
	b = append(b, h.Resource...)
	b = append(b, " HTTP/1.1\r\nHost: "...)
	b = append(b, h.Host...)
	b = append(b, "\r\n"...)
	if h.Method == http.MethodPost {
		b = append(b, "Content-Length: "...)
		b = strconv.AppendInt(b, h.ContentLength, 10)
		b = append(b, "\r\n"...)
	}
	for _, hd := range extra {
		b = append(b, hd.name...)
		b = append(b, ": "...)
		b = append(b, hd.value...)
		b = append(b, "\r\n"...)
	}
	b = append(b, "Connection: close\r\n\r\n"...)
	return b
}
