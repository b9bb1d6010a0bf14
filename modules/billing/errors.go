package billing

import (
	"errors"
	"net/http"

	"github.com/staffpulse/billing/handler"
	"github.com/staffpulse/billing/svc/billing"
	"github.com/staffpulse/billing/svc/xero"
)

var ErrXeroDisabled = errors.New("xero integration is not configured")

// mapError translates billing and xero errors into HTTP errors. Anything
// unrecognised falls through to the generic 500.
func mapError(err error) (handler.HTTPError, bool) {
	var perr *billing.ProviderError
	if errors.As(err, &perr) {
		code := perr.StatusCode
		if code < 400 || code > 599 {
			code = http.StatusInternalServerError
		}
		return handler.NewHTTPError(code, perr.Message), true
	}

	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return handler.NewHTTPError(http.StatusBadRequest, "Webhook signature verification failed"), true
	case errors.Is(err, billing.ErrInvalidPayload):
		return handler.NewHTTPError(http.StatusBadRequest, "Malformed webhook payload"), true
	case errors.Is(err, billing.ErrMissingUserID), errors.Is(err, xero.ErrMissingUserID):
		return handler.NewHTTPError(http.StatusUnauthorized, "Unauthorized"), true
	case errors.Is(err, billing.ErrForbidden):
		return handler.NewHTTPError(http.StatusForbidden, "Admin access required"), true
	case errors.Is(err, billing.ErrNotFound):
		return handler.NewHTTPError(http.StatusNotFound, "Payment not found"), true
	case errors.Is(err, billing.ErrUnknownPlan):
		return handler.NewHTTPError(http.StatusBadRequest, "Unknown plan"), true
	case errors.Is(err, billing.ErrInvalidCutoff):
		return handler.NewHTTPError(http.StatusBadRequest, "Expiry cutoff must be positive"), true
	case errors.Is(err, xero.ErrInvalidState):
		return handler.NewHTTPError(http.StatusBadRequest, "Invalid or expired state parameter"), true
	case errors.Is(err, xero.ErrMissingCode):
		return handler.NewHTTPError(http.StatusBadRequest, "Missing authorization code"), true
	case errors.Is(err, xero.ErrFailedToExchange):
		return handler.NewHTTPError(http.StatusBadGateway, "Xero authorization failed"), true
	case errors.Is(err, ErrXeroDisabled):
		return handler.NewHTTPError(http.StatusNotFound, "Xero integration is not configured"), true
	}
	return handler.HTTPError{}, false
}
