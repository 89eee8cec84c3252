package httpsclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeJSON unmarshals a response body into T. Overflowed responses are rejected
// since their body is incomplete.
func DecodeJSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil || resp.Bytes() == nil {
		return out, errors.New("httpsclient: no response to decode")
	}
	if resp.Overflowed() {
		return out, ErrResponseTooLarge
	}
	if err := json.Unmarshal(resp.Bytes(), &out); err != nil {
		return out, fmt.Errorf("httpsclient: decode response: %w", err)
	}
	return out, nil
}
