package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/pkg/validator"
	"github.com/staffpulse/billing/svc/billing"
)

func validInvoiceRequest(plan billing.PlanType) billing.InvoiceRequest {
	return billing.InvoiceRequest{
		PlanType:     plan,
		PurchaseType: billing.PurchaseSubscription,
		BillingDetails: billing.BillingDetails{
			SchoolName:   "Hillside Primary",
			Address:      "1 School Lane, Leeds",
			ContactName:  "Sam Taylor",
			ContactEmail: "bursar@hillside.example.com",
		},
	}
}

func TestRequestInvoice(t *testing.T) {
	t.Parallel()

	amounts := map[billing.PlanType]string{
		billing.PlanFoundation: "495",
		billing.PlanProgress:   "995",
		billing.PlanPremium:    "1995",
	}
	for plan, want := range amounts {
		t.Run(string(plan), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.notifier.On("InvoiceRequested", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

			res, err := f.svc.RequestInvoice(context.Background(), "user-1", validInvoiceRequest(plan))
			require.NoError(t, err)

			assert.Equal(t, billing.StatusPending, res.Subscription.Status)
			assert.Equal(t, billing.MethodInvoice, res.Subscription.PaymentMethod)
			assert.Equal(t, plan, res.Subscription.PlanType)
			assert.Equal(t, res.Subscription.ID, res.Payment.SubscriptionID)
			assert.Equal(t, billing.PaymentPending, res.Payment.Status)
			assert.Equal(t, want, res.Payment.Amount.String())
			assert.Equal(t, "GBP", res.Payment.Currency)
			assert.Empty(t, res.Payment.StripePaymentID)
			assert.Equal(t, "Hillside Primary", res.Payment.Billing.SchoolName)

			assert.Len(t, f.store.Subscriptions(), 1)
			assert.Len(t, f.store.Payments(), 1)
			f.notifier.AssertExpectations(t)
		})
	}
}

func TestRequestInvoice_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := validInvoiceRequest("")
	req.BillingDetails.ContactEmail = "nope"
	req.BillingDetails.SchoolName = ""

	_, err := f.svc.RequestInvoice(context.Background(), "user-1", req)
	verrs, ok := validator.Extract(err)
	require.True(t, ok)
	assert.True(t, verrs.Has("planType"))
	assert.True(t, verrs.Has("billingDetails.contactEmail"))
	assert.True(t, verrs.Has("billingDetails.schoolName"))
	assert.Empty(t, f.store.Subscriptions())
}

func TestRequestInvoice_NotificationFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.notifier.On("InvoiceRequested", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("hubspot: 502")).Once()

	res, err := f.svc.RequestInvoice(context.Background(), "user-1", validInvoiceRequest(billing.PlanFoundation))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.Payment.ID)
}

// countingStore records transactional access so tests can prove a call
// never reached the store.
type countingStore struct {
	*billing.MemoryStore
	txCalls int
}

func (s *countingStore) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	s.txCalls++
	return s.MemoryStore.WithTx(ctx, fn)
}

func (s *countingStore) GetPayment(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	s.txCalls++
	return s.MemoryStore.GetPayment(ctx, id)
}

func TestUpdateInvoiceStatus_NonAdminIsRejectedBeforeAnyRead(t *testing.T) {
	t.Parallel()

	clock := &testClock{t: testNow}
	mem := billing.NewMemoryStore(billing.WithMemoryClock(clock.Now))
	store := &countingStore{MemoryStore: mem}
	catalog, err := billing.DefaultCatalog()
	require.NoError(t, err)

	var checked []string
	roles := billing.RoleCheckerFunc(func(_ context.Context, userID string) (bool, error) {
		checked = append(checked, userID)
		return userID == "admin-1", nil
	})
	svc := billing.NewService(newMockProvider(t), store, roles, catalog, billing.WithClock(clock.Now))

	res, err := svc.RequestInvoice(context.Background(), "user-1", validInvoiceRequest(billing.PlanFoundation))
	require.NoError(t, err)
	before := store.txCalls

	_, err = svc.UpdateInvoiceStatus(context.Background(), "user-1", billing.InvoiceStatusUpdate{
		PaymentID: res.Payment.ID.String(),
		Status:    billing.PaymentCompleted,
	})
	require.ErrorIs(t, err, billing.ErrForbidden)
	assert.Equal(t, before, store.txCalls)
	assert.Equal(t, []string{"user-1"}, checked)

	p, err := mem.GetPayment(context.Background(), res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentPending, p.Status)
	sub, err := mem.GetSubscription(context.Background(), res.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, sub.Status)
}

func TestUpdateInvoiceStatus_CompletedGrantsThreeYears(t *testing.T) {
	t.Parallel()

	for _, purchase := range []billing.PurchaseType{billing.PurchaseSubscription, billing.PurchaseOneTime} {
		t.Run(string(purchase), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.notifier.On("InvoiceRequested", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			req := validInvoiceRequest(billing.PlanProgress)
			req.PurchaseType = purchase
			res, err := f.svc.RequestInvoice(context.Background(), "user-1", req)
			require.NoError(t, err)

			f.clock.Advance(72 * time.Hour)
			p, err := f.svc.UpdateInvoiceStatus(context.Background(), "admin-1", billing.InvoiceStatusUpdate{
				PaymentID:     res.Payment.ID.String(),
				Status:        billing.PaymentCompleted,
				InvoiceNumber: ptr("INV-2026-0042"),
				AdminUserID:   "admin-1",
			})
			require.NoError(t, err)
			assert.Equal(t, billing.PaymentCompleted, p.Status)
			assert.Equal(t, "INV-2026-0042", p.InvoiceNumber)

			sub, err := f.store.GetSubscription(context.Background(), res.Subscription.ID)
			require.NoError(t, err)
			now := f.clock.Now()
			assert.Equal(t, billing.StatusActive, sub.Status)
			assert.Equal(t, now, sub.StartDate)
			require.NotNil(t, sub.EndDate)
			assert.Equal(t, now.AddDate(3, 0, 0), *sub.EndDate)
		})
	}
}

func TestUpdateInvoiceStatus_CancelledLeavesSubscriptionPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.notifier.On("InvoiceRequested", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.RequestInvoice(context.Background(), "user-1", validInvoiceRequest(billing.PlanFoundation))
	require.NoError(t, err)

	p, err := f.svc.UpdateInvoiceStatus(context.Background(), "admin-1", billing.InvoiceStatusUpdate{
		PaymentID: res.Payment.ID.String(),
		Status:    billing.PaymentCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentCancelled, p.Status)
	assert.Empty(t, p.InvoiceNumber)

	sub, err := f.store.GetSubscription(context.Background(), res.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, sub.Status)
}

func TestUpdateInvoiceStatus_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  string
		update  func(paymentID string) billing.InvoiceStatusUpdate
		wantErr error
	}{
		{
			name:   "mismatched admin id",
			caller: "admin-1",
			update: func(id string) billing.InvoiceStatusUpdate {
				return billing.InvoiceStatusUpdate{PaymentID: id, Status: billing.PaymentCompleted, AdminUserID: "admin-2"}
			},
			wantErr: billing.ErrForbidden,
		},
		{
			name:   "unauthenticated",
			caller: "",
			update: func(id string) billing.InvoiceStatusUpdate {
				return billing.InvoiceStatusUpdate{PaymentID: id, Status: billing.PaymentCompleted}
			},
			wantErr: billing.ErrMissingUserID,
		},
		{
			name:   "unknown payment",
			caller: "admin-1",
			update: func(string) billing.InvoiceStatusUpdate {
				return billing.InvoiceStatusUpdate{PaymentID: uuid.NewString(), Status: billing.PaymentCompleted}
			},
			wantErr: billing.ErrNotFound,
		},
		{
			name:   "payment_made is not an admin transition",
			caller: "admin-1",
			update: func(id string) billing.InvoiceStatusUpdate {
				return billing.InvoiceStatusUpdate{PaymentID: id, Status: billing.PaymentMade}
			},
			wantErr: validator.ErrValidationFailed,
		},
		{
			name:   "malformed payment id",
			caller: "admin-1",
			update: func(string) billing.InvoiceStatusUpdate {
				return billing.InvoiceStatusUpdate{PaymentID: "pay-1", Status: billing.PaymentCompleted}
			},
			wantErr: validator.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.notifier.On("InvoiceRequested", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			res, err := f.svc.RequestInvoice(context.Background(), "user-1", validInvoiceRequest(billing.PlanFoundation))
			require.NoError(t, err)

			_, err = f.svc.UpdateInvoiceStatus(context.Background(), tt.caller, tt.update(res.Payment.ID.String()))
			assert.ErrorIs(t, err, tt.wantErr)

			p, err := f.store.GetPayment(context.Background(), res.Payment.ID)
			require.NoError(t, err)
			assert.Equal(t, billing.PaymentPending, p.Status)
		})
	}
}
