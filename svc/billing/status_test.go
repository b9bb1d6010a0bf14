package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/svc/billing"
)

func TestStatus_NoSubscription(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, res.HasActiveSubscription)
	assert.Empty(t, res.Plan)
	assert.Nil(t, res.StripeStatus)
}

func TestStatus_InvoiceGrantSkipsProvider(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanPremium, PurchaseType: billing.PurchaseOneTime,
		Status: billing.StatusActive, PaymentMethod: billing.MethodInvoice, EndDate: ptr(testNow.AddDate(3, 0, 0)),
	})

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, res.HasActiveSubscription)
	assert.Equal(t, billing.PlanPremium, res.Plan)
	assert.Nil(t, res.StripeStatus)
	f.provider.AssertNotCalled(t, "SubscriptionStatus", mock.Anything, mock.Anything)
}

func TestStatus_ExpiredGrantHasNoAccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanPremium, PurchaseType: billing.PurchaseOneTime,
		Status: billing.StatusActive, PaymentMethod: billing.MethodInvoice, EndDate: ptr(testNow.Add(-time.Hour)),
	})

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, res.HasActiveSubscription)
}

func TestStatus_LiveCheck(t *testing.T) {
	t.Parallel()

	for _, live := range []string{"active", "trialing"} {
		t.Run(live, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.seed(t, billing.Subscription{
				UserID: "user-1", PlanType: billing.PlanProgress, PurchaseType: billing.PurchaseSubscription,
				Status: billing.StatusActive, PaymentMethod: billing.MethodStripe, StripeSubscriptionID: "sub_X",
			})
			f.provider.On("SubscriptionStatus", mock.Anything, "sub_X").Return(live, nil).Once()

			res, err := f.svc.Status(context.Background(), "user-1")
			require.NoError(t, err)
			assert.True(t, res.HasActiveSubscription)
			assert.Equal(t, billing.PlanProgress, res.Plan)
			require.NotNil(t, res.StripeStatus)
			assert.Equal(t, live, *res.StripeStatus)
		})
	}
}

func TestStatus_DemotesCanceledSubscription(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanProgress, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusActive, PaymentMethod: billing.MethodStripe, StripeSubscriptionID: "sub_X",
	})
	f.provider.On("SubscriptionStatus", mock.Anything, "sub_X").Return("canceled", nil).Once()

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, res.HasActiveSubscription)
	require.NotNil(t, res.StripeStatus)
	assert.Equal(t, "canceled", *res.StripeStatus)

	stored, err := f.store.GetSubscription(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCanceled, stored.Status)

	// A second query must not consult Stripe again or reactivate the row.
	res, err = f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, res.HasActiveSubscription)
	f.provider.AssertNumberOfCalls(t, "SubscriptionStatus", 1)
}

func TestStatus_DemotionFallsThroughToOtherGrant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanFoundation, PurchaseType: billing.PurchaseOneTime,
		Status: billing.StatusActive, PaymentMethod: billing.MethodInvoice, EndDate: ptr(testNow.AddDate(2, 0, 0)),
	})
	f.clock.Advance(time.Minute)
	f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanPremium, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusActive, PaymentMethod: billing.MethodStripe, StripeSubscriptionID: "sub_Y",
	})
	f.provider.On("SubscriptionStatus", mock.Anything, "sub_Y").Return("unpaid", nil).Once()

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, res.HasActiveSubscription)
	assert.Equal(t, billing.PlanFoundation, res.Plan)
}

func TestStatus_ProviderErrorKeepsLocalState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanProgress, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusActive, PaymentMethod: billing.MethodStripe, StripeSubscriptionID: "sub_X",
	})
	f.provider.On("SubscriptionStatus", mock.Anything, "sub_X").Return("", errors.New("dial tcp: i/o timeout")).Once()

	res, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, res.HasActiveSubscription)
	assert.Nil(t, res.StripeStatus)

	stored, err := f.store.GetSubscription(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, stored.Status)
}

func TestExpirePendingCheckouts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	stale := f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanFoundation, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusPending, PaymentMethod: billing.MethodStripe,
	})
	invoice := f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanFoundation, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusPending, PaymentMethod: billing.MethodInvoice,
	})
	f.clock.Advance(96 * time.Hour)
	fresh := f.seed(t, billing.Subscription{
		UserID: "user-1", PlanType: billing.PlanProgress, PurchaseType: billing.PurchaseSubscription,
		Status: billing.StatusPending, PaymentMethod: billing.MethodStripe,
	})

	n, err := f.svc.ExpirePendingCheckouts(context.Background(), 72*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	want := map[string]billing.Status{
		stale.ID.String():   billing.StatusCanceled,
		invoice.ID.String(): billing.StatusPending,
		fresh.ID.String():   billing.StatusPending,
	}
	for _, sub := range f.store.Subscriptions() {
		assert.Equal(t, want[sub.ID.String()], sub.Status, sub.ID.String())
	}

	_, err = f.svc.ExpirePendingCheckouts(context.Background(), 0)
	assert.ErrorIs(t, err, billing.ErrInvalidCutoff)
}
