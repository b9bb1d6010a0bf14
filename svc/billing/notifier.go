package billing

import "context"

// Notifier delivers non-critical side effects. The service logs and
// swallows its errors.
type Notifier interface {
	SubscriptionActivated(ctx context.Context, sub Subscription, customerEmail string) error
	InvoiceRequested(ctx context.Context, sub Subscription, payment Payment) error
}

type noopNotifier struct{}

func (noopNotifier) SubscriptionActivated(context.Context, Subscription, string) error { return nil }
func (noopNotifier) InvoiceRequested(context.Context, Subscription, Payment) error     { return nil }
