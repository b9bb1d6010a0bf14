package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries an explicit status code and client-facing message.
// Err, when set, is logged but never sent to the client.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

// NewHTTPError builds an HTTPError; an empty message defaults to the status text.
func NewHTTPError(code int, message string, err ...error) HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return HTTPError{Code: code, Message: message, Err: errors.Join(err...)}
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error { return e.Err }

// ErrorMapper translates domain errors into HTTP errors. It returns false
// for errors it does not recognise.
type ErrorMapper func(err error) (HTTPError, bool)
