package billing

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs. Transactions
// are serialized and rolled back by restoring a snapshot.
type MemoryStore struct {
	txMu sync.Mutex

	mu            sync.RWMutex
	now           func() time.Time
	subscriptions map[uuid.UUID]Subscription
	payments      map[uuid.UUID]Payment
	external      map[string]uuid.UUID
	order         []uuid.UUID
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock sets the clock used for created/updated timestamps.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		now:           time.Now,
		subscriptions: make(map[uuid.UUID]Subscription),
		payments:      make(map[uuid.UUID]Payment),
		external:      make(map[string]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscriptions returns a copy of every stored subscription.
func (s *MemoryStore) Subscriptions() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.subscriptions[id])
	}
	return out
}

// Payments returns a copy of every stored payment.
func (s *MemoryStore) Payments() []Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	subs := maps.Clone(s.subscriptions)
	pays := maps.Clone(s.payments)
	ext := maps.Clone(s.external)
	order := slices.Clone(s.order)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.subscriptions, s.payments, s.external, s.order = subs, pays, ext, order
		s.mu.Unlock()
		return err
	}
	return nil
}

// LockCheckout is a no-op: WithTx already runs transactions one at a time.
func (s *MemoryStore) LockCheckout(context.Context, string, PlanType) error { return nil }

func (s *MemoryStore) InsertSubscription(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
	sub.CreatedAt, sub.UpdatedAt = now, now
	if _, ok := s.subscriptions[sub.ID]; !ok {
		s.order = append(s.order, sub.ID)
	}
	s.subscriptions[sub.ID] = *sub
	return nil
}

func (s *MemoryStore) GetSubscription(_ context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) FindReusablePending(_ context.Context, userID string, plan PlanType, purchase PurchaseType, method PaymentMethod, since time.Time) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest(func(sub Subscription) bool {
		return sub.UserID == userID && sub.PlanType == plan && sub.PurchaseType == purchase &&
			sub.PaymentMethod == method && sub.Status == StatusPending && !sub.CreatedAt.Before(since)
	})
}

func (s *MemoryStore) ActivateLatestPending(_ context.Context, userID string, plan PlanType, method PaymentMethod, a Activation) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.latest(func(sub Subscription) bool {
		return sub.UserID == userID && sub.PlanType == plan && sub.PaymentMethod == method && sub.Status == StatusPending
	})
	if err != nil {
		return nil, err
	}
	return s.activate(*sub, a), nil
}

func (s *MemoryStore) FindLatestSubscription(_ context.Context, userID string, plan PlanType, method PaymentMethod) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest(func(sub Subscription) bool {
		return sub.UserID == userID && sub.PlanType == plan && sub.PaymentMethod == method
	})
}

func (s *MemoryStore) ForceActivate(_ context.Context, id uuid.UUID, a Activation) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.activate(sub, a), nil
}

func (s *MemoryStore) SetStatusByStripeID(_ context.Context, stripeSubscriptionID string, status Status, end *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sub := range s.subscriptions {
		if stripeSubscriptionID == "" || sub.StripeSubscriptionID != stripeSubscriptionID {
			continue
		}
		sub.Status = status
		if end != nil {
			sub.EndDate = copyTime(end)
		}
		sub.UpdatedAt = s.now()
		s.subscriptions[id] = sub
		n++
	}
	return n, nil
}

func (s *MemoryStore) SetSubscriptionStatus(_ context.Context, id uuid.UUID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.UpdatedAt = s.now()
	s.subscriptions[id] = sub
	return nil
}

func (s *MemoryStore) ActiveSubscription(_ context.Context, userID string, now time.Time) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest(func(sub Subscription) bool {
		return sub.UserID == userID && sub.HasAccess(now)
	})
}

func (s *MemoryStore) CancelStalePending(_ context.Context, method PaymentMethod, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sub := range s.subscriptions {
		if sub.Status != StatusPending || sub.PaymentMethod != method || !sub.CreatedAt.Before(before) {
			continue
		}
		sub.Status = StatusCanceled
		sub.UpdatedAt = s.now()
		s.subscriptions[id] = sub
		n++
	}
	return n, nil
}

func (s *MemoryStore) InsertPayment(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[p.SubscriptionID]; !ok {
		return ErrNotFound
	}
	if p.StripePaymentID != "" {
		if _, ok := s.external[p.StripePaymentID]; ok {
			return ErrDuplicatePayment
		}
	}
	now := s.now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	s.payments[p.ID] = *p
	if p.StripePaymentID != "" {
		s.external[p.StripePaymentID] = p.ID
	}
	return nil
}

func (s *MemoryStore) PaymentExists(_ context.Context, stripePaymentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.external[stripePaymentID]
	return ok, nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id uuid.UUID) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status PaymentStatus, invoiceNumber *string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	if invoiceNumber != nil {
		p.InvoiceNumber = *invoiceNumber
	}
	p.UpdatedAt = s.now()
	s.payments[id] = p
	return &p, nil
}

// latest must be called with mu held. Ties on CreatedAt go to the row
// inserted last.
func (s *MemoryStore) latest(match func(Subscription) bool) (*Subscription, error) {
	var found *Subscription
	for _, id := range s.order {
		sub := s.subscriptions[id]
		if !match(sub) {
			continue
		}
		if found == nil || !sub.CreatedAt.Before(found.CreatedAt) {
			c := sub
			found = &c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// activate must be called with mu held.
func (s *MemoryStore) activate(sub Subscription, a Activation) *Subscription {
	sub.Status = StatusActive
	sub.StartDate = a.At
	sub.EndDate = copyTime(a.End)
	if a.StripeSubscriptionID != "" {
		sub.StripeSubscriptionID = a.StripeSubscriptionID
	}
	sub.UpdatedAt = s.now()
	s.subscriptions[sub.ID] = sub
	return &sub
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
