package billing

import (
	"context"
	"log/slog"
	"time"
)

// Service is the billing state machine: checkout, webhooks, manual invoices
// and the reconciling status query.
type Service interface {
	// Checkout
	CreateCheckout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// Manual invoices
	RequestInvoice(ctx context.Context, userID string, req InvoiceRequest) (*InvoiceResult, error)
	UpdateInvoiceStatus(ctx context.Context, callerID string, req InvoiceStatusUpdate) (*Payment, error)

	// Access
	Status(ctx context.Context, userID string) (*StatusResult, error)

	// Maintenance
	ExpirePendingCheckouts(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	provider Provider
	store    Store
	roles    RoleChecker
	catalog  *Catalog
	notifier Notifier
	metrics  *Metrics
	log      *slog.Logger
	now      func() time.Time

	pendingReuseWindow time.Duration
	grantYears         int
}

// NewService creates a Service. Panics if a required dependency is nil so a
// misconfigured binary fails at startup.
func NewService(provider Provider, store Store, roles RoleChecker, catalog *Catalog, opts ...ServiceOption) Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if store == nil {
		panic("billing: Store is required")
	}
	if roles == nil {
		panic("billing: RoleChecker is required")
	}
	if catalog == nil {
		panic("billing: Catalog is required")
	}

	s := &service{
		provider:   provider,
		store:      store,
		roles:      roles,
		catalog:    catalog,
		notifier:   noopNotifier{},
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
		grantYears: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// grantEnd is the end of a fixed-term grant starting at start.
func (s *service) grantEnd(start time.Time) *time.Time {
	end := start.AddDate(s.grantYears, 0, 0)
	return &end
}
