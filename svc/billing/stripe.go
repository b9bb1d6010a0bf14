package billing

import (
	"context"
	"errors"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds the Stripe credentials.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider on the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the Stripe client with the secret key.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{webhookSecret: cfg.WebhookSecret}, nil
}

// CreateCheckoutSession creates a hosted Stripe Checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	sp := buildCheckoutParams(params)
	sp.Context = ctx

	s, err := session.New(sp)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// SubscriptionStatus returns the raw Stripe status, e.g. "active" or "canceled".
func (p *StripeProvider) SubscriptionStatus(ctx context.Context, subscriptionID string) (string, error) {
	sub, err := subscription.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", wrapStripeError(err)
	}
	return string(sub.Status), nil
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// API version mismatches are tolerated; the service reads only stable fields.
func (p *StripeProvider) ConstructEvent(payload []byte, signature string) (Event, error) {
	if signature == "" {
		return Event{}, ErrInvalidSignature
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, errors.Join(ErrInvalidSignature, err)
	}
	out := Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

func buildCheckoutParams(p CheckoutSessionParams) *stripe.CheckoutSessionParams {
	mode := stripe.CheckoutSessionModeSubscription
	if p.PurchaseType == PurchaseOneTime {
		mode = stripe.CheckoutSessionModePayment
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if userID := p.Metadata[metaUserID]; userID != "" {
		params.ClientReferenceID = stripe.String(userID)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	// Copy metadata onto the subscription so later subscription events
	// carry it too.
	if mode == stripe.CheckoutSessionModeSubscription && len(p.Metadata) > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: make(map[string]string, len(p.Metadata)),
		}
		for k, v := range p.Metadata {
			params.SubscriptionData.Metadata[k] = v
		}
	}
	return params
}

// wrapStripeError turns a *stripe.Error into a ProviderError. Client-caused
// failures map to 400, everything else to 500.
func wrapStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &ProviderError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}

	status := http.StatusInternalServerError
	switch se.Type {
	case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeCard:
		status = http.StatusBadRequest
	}
	msg := se.Msg
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ProviderError{
		StatusCode: status,
		Code:       string(se.Code),
		Message:    msg,
		Err:        err,
	}
}
