package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/staffpulse/billing/pkg/binder"
	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/pkg/validator"
)

const internalErrorMessage = "Internal server error"

// NewErrorHandler returns an ErrorHandler writing ErrorBody JSON.
//
// Mapping order: validator.Errors → 400 with fields, HTTPError → its code,
// binder errors → 400/413/415, then each mapper, and finally 500 with a
// generic message. 4xx are logged at warn, 5xx at error.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		status, body := classify(err, mappers)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Error(err),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		_ = JSONStatus(status, body).Render(ctx.ResponseWriter(), r)
	}
}

func classify(err error, mappers []ErrorMapper) (int, ErrorBody) {
	if verrs, ok := validator.Extract(err); ok {
		return http.StatusBadRequest, ErrorBody{Error: "Validation failed", Fields: verrs.Fields()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, ErrorBody{Error: httpErr.Message}
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, ErrorBody{Error: "Content-Type must be application/json"}
	case errors.Is(err, binder.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorBody{Error: "Request body too large"}
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return http.StatusBadRequest, ErrorBody{Error: "Invalid JSON body"}
	case errors.Is(err, binder.ErrFailedToParseQuery):
		return http.StatusBadRequest, ErrorBody{Error: "Invalid query parameters"}
	}

	for _, m := range mappers {
		if m == nil {
			continue
		}
		if mapped, ok := m(err); ok {
			return mapped.Code, ErrorBody{Error: mapped.Message}
		}
	}

	return http.StatusInternalServerError, ErrorBody{Error: internalErrorMessage}
}
