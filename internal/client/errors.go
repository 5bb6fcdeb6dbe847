package client

import (
	"errors"
	"fmt"
)

// Error constants.
var (
	ErrRequest  = errors.New("request failed")
	ErrResponse = errors.New("unexpected response")
)

// APIError is a non-2xx reply decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}
