package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("binder: unsupported content type")
	ErrFailedToParseJSON    = errors.New("binder: malformed JSON body")
	ErrBodyTooLarge         = errors.New("binder: body exceeds size limit")
	ErrFailedToParseQuery   = errors.New("binder: malformed query parameters")
)
