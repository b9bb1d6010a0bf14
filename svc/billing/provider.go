package billing

import (
	"context"
	"encoding/json"
	"time"
)

// Provider is the payment processor the service orchestrates.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout and returns its URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	// SubscriptionStatus fetches the live status of a provider subscription.
	SubscriptionStatus(ctx context.Context, subscriptionID string) (string, error)
	// ConstructEvent verifies signature over the raw payload and decodes the
	// event envelope. It returns ErrInvalidSignature on any verification
	// failure.
	ConstructEvent(payload []byte, signature string) (Event, error)
}

// CheckoutSessionParams describes a hosted checkout.
type CheckoutSessionParams struct {
	PriceID       string
	PurchaseType  PurchaseType
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the provider's answer to CreateCheckoutSession.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook event. Object is the raw data.object member.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// Provider-side event types the service reacts to.
const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventInvoicePaid                 = "invoice.paid"
	EventCustomerSubscriptionUpdated = "customer.subscription.updated"
	EventCustomerSubscriptionDeleted = "customer.subscription.deleted"
)
