package billing_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/staffpulse/billing/svc/billing"
)

const testWebhookSecret = "whsec_test_secret"

type mockProvider struct {
	mock.Mock
	verifier *billing.StripeProvider
}

func newMockProvider(t *testing.T) *mockProvider {
	t.Helper()
	v, err := billing.NewStripeProvider(billing.StripeConfig{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	require.NoError(t, err)
	return &mockProvider{verifier: v}
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutSessionParams) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProvider) SubscriptionStatus(ctx context.Context, subscriptionID string) (string, error) {
	args := m.Called(ctx, subscriptionID)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ConstructEvent(payload []byte, signature string) (billing.Event, error) {
	return m.verifier.ConstructEvent(payload, signature)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SubscriptionActivated(ctx context.Context, sub billing.Subscription, email string) error {
	args := m.Called(ctx, sub, email)
	return args.Error(0)
}

func (m *mockNotifier) InvoiceRequested(ctx context.Context, sub billing.Subscription, payment billing.Payment) error {
	args := m.Called(ctx, sub, payment)
	return args.Error(0)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc      billing.Service
	store    *billing.MemoryStore
	provider *mockProvider
	notifier *mockNotifier
	clock    *testClock
	admins   map[string]bool
}

func newFixture(t *testing.T, opts ...billing.ServiceOption) *fixture {
	t.Helper()

	clock := &testClock{t: testNow}
	catalog, err := billing.DefaultCatalog()
	require.NoError(t, err)

	f := &fixture{
		store:    billing.NewMemoryStore(billing.WithMemoryClock(clock.Now)),
		provider: newMockProvider(t),
		notifier: &mockNotifier{},
		clock:    clock,
		admins:   map[string]bool{"admin-1": true},
	}
	roles := billing.RoleCheckerFunc(func(_ context.Context, userID string) (bool, error) {
		return f.admins[userID], nil
	})
	opts = append([]billing.ServiceOption{
		billing.WithClock(clock.Now),
		billing.WithNotifier(f.notifier),
	}, opts...)
	f.svc = billing.NewService(f.provider, f.store, roles, catalog, opts...)
	return f
}

// seed inserts a row directly into the store.
func (f *fixture) seed(t *testing.T, sub billing.Subscription) billing.Subscription {
	t.Helper()
	require.NoError(t, f.store.InsertSubscription(context.Background(), &sub))
	return sub
}

// signedEvent builds a webhook body for object signed with the test secret.
func signedEvent(t *testing.T, id, eventType string, created time.Time, object any) ([]byte, string) {
	t.Helper()
	obj, err := json.Marshal(object)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"id":      id,
		"object":  "event",
		"type":    eventType,
		"created": created.Unix(),
		"data":    map[string]any{"object": json.RawMessage(obj)},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func subscriptionsOf(store *billing.MemoryStore, userID string) []billing.Subscription {
	var out []billing.Subscription
	for _, s := range store.Subscriptions() {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
