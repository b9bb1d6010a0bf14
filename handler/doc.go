// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and an already decoded request value and
// returns a Response. Wrap runs the configured binders, decorators and the
// handler, and sends any failure to an ErrorHandler:
//
//	r.Post("/checkout", handler.Wrap(h.checkout,
//	    handler.WithBinders[checkoutRequest](binder.JSON()),
//	    handler.WithErrorHandler[checkoutRequest](errs),
//	))
//
// Every error response uses the ErrorBody shape {"error": "...", "fields": {...}}.
// NewErrorHandler maps validation failures, HTTPError values and binder
// errors itself and consults ErrorMapper functions for domain errors.
package handler
