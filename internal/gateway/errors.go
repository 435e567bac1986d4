package gateway

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a response decodes but lacks required fields.
var ErrMalformedResponse = errors.New("malformed response")

// NetworkError is a transport failure reaching the gateway.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-success HTTP response. Body holds the raw response text.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the gateway.
func IsNotFound(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Status == 404
}
