package billing

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("billing: record not found")
	ErrDuplicatePayment  = errors.New("billing: payment with this external id already exists")
	ErrInvalidSignature  = errors.New("billing: webhook signature verification failed")
	ErrInvalidPayload    = errors.New("billing: malformed webhook payload")
	ErrMissingMetadata   = errors.New("billing: checkout session metadata is incomplete")
	ErrForbidden         = errors.New("billing: caller is not allowed to perform this action")
	ErrUnknownPlan       = errors.New("billing: unknown plan type")
	ErrNoCheckoutURL     = errors.New("billing: no checkout URL returned from provider")
	ErrInvalidCatalog    = errors.New("billing: invalid plan catalog")
	ErrFailedToLoadPlans = errors.New("billing: failed to load plan catalog")
	ErrMissingUserID     = errors.New("billing: authenticated user id is required")
	ErrInvalidCutoff     = errors.New("billing: expiry cutoff must be positive")

	ErrMissingAPIKey        = errors.New("billing: stripe secret key is required")
	ErrMissingWebhookSecret = errors.New("billing: stripe webhook secret is required")

	ErrFailedToCreateSubscription = errors.New("billing: failed to create subscription")
	ErrFailedToUpdateSubscription = errors.New("billing: failed to update subscription")
	ErrFailedToRecordPayment      = errors.New("billing: failed to record payment")
	ErrFailedToUpdatePayment      = errors.New("billing: failed to update payment")
	ErrFailedToLoadSubscription   = errors.New("billing: failed to load subscription")
	ErrFailedToCheckRole          = errors.New("billing: failed to check user role")
)

// ProviderError is a failure reported by the payment provider. Message is
// the provider's own text and is safe to show to the client.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (%s)", e.Message, e.Code)
	}
	return "stripe: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }
