package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activation describes a transition to active. End nil clears the end date.
// An empty StripeSubscriptionID leaves the stored one unchanged.
type Activation struct {
	At                   time.Time
	End                  *time.Time
	StripeSubscriptionID string
}

// Store persists subscriptions and payments. Methods return ErrNotFound when
// a lookup matches no row.
type Store interface {
	// WithTx runs fn against a transactional view of the store. fn's error
	// rolls every write back.
	WithTx(ctx context.Context, fn func(Store) error) error
	// LockCheckout serializes checkout completions for (user, plan) until the
	// surrounding transaction ends.
	LockCheckout(ctx context.Context, userID string, plan PlanType) error

	InsertSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// FindReusablePending returns the newest pending row for the tuple created
	// at or after since.
	FindReusablePending(ctx context.Context, userID string, plan PlanType, purchase PurchaseType, method PaymentMethod, since time.Time) (*Subscription, error)
	// ActivateLatestPending activates the newest pending (user, plan, method) row.
	ActivateLatestPending(ctx context.Context, userID string, plan PlanType, method PaymentMethod, a Activation) (*Subscription, error)
	// FindLatestSubscription returns the newest (user, plan, method) row in any status.
	FindLatestSubscription(ctx context.Context, userID string, plan PlanType, method PaymentMethod) (*Subscription, error)
	ForceActivate(ctx context.Context, id uuid.UUID, a Activation) (*Subscription, error)
	// SetStatusByStripeID updates every row carrying the external id and
	// returns how many matched. A nil end keeps the stored end date.
	SetStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status Status, end *time.Time) (int64, error)
	SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status Status) error
	// ActiveSubscription returns the newest active row not ended at now.
	ActiveSubscription(ctx context.Context, userID string, now time.Time) (*Subscription, error)
	// CancelStalePending cancels pending rows of method created before the cutoff.
	CancelStalePending(ctx context.Context, method PaymentMethod, before time.Time) (int64, error)

	// InsertPayment returns ErrDuplicatePayment when the external id exists.
	InsertPayment(ctx context.Context, p *Payment) error
	PaymentExists(ctx context.Context, stripePaymentID string) (bool, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	// UpdatePaymentStatus sets status and, when non-nil, the invoice number.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, invoiceNumber *string) (*Payment, error)
}
