package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize bounds request bodies read by JSON.
const DefaultMaxJSONSize = 64 << 10

// JSONOption configures the JSON binder.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	maxSize int64
	strict  bool
}

// WithMaxSize overrides DefaultMaxJSONSize.
func WithMaxSize(n int64) JSONOption {
	return func(o *jsonOptions) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// Strict rejects unknown object keys.
func Strict() JSONOption {
	return func(o *jsonOptions) { o.strict = true }
}

// JSON decodes the request body into v. A Content-Type other than
// application/json is rejected; a missing one is tolerated because browser
// fetch calls from the web app do not always set it.
func JSON(opts ...JSONOption) func(r *http.Request, v any) error {
	o := jsonOptions{maxSize: DefaultMaxJSONSize}
	for _, opt := range opts {
		opt(&o)
	}

	return func(r *http.Request, v any) error {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return fmt.Errorf("%w: expected application/json, got %q", ErrUnsupportedMediaType, ct)
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, o.maxSize+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %v", ErrFailedToParseJSON, err)
		}
		if int64(len(body)) > o.maxSize {
			return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, o.maxSize)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		if o.strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
		}
		return nil
	}
}
