package billing_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	module "github.com/staffpulse/billing/modules/billing"
	"github.com/staffpulse/billing/pkg/jwt"
	"github.com/staffpulse/billing/svc/billing"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateCheckout(ctx context.Context, userID string, req billing.CheckoutRequest) (*billing.CheckoutResult, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*billing.CheckoutResult)
	return res, args.Error(1)
}

func (m *mockService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockService) RequestInvoice(ctx context.Context, userID string, req billing.InvoiceRequest) (*billing.InvoiceResult, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*billing.InvoiceResult)
	return res, args.Error(1)
}

func (m *mockService) UpdateInvoiceStatus(ctx context.Context, callerID string, req billing.InvoiceStatusUpdate) (*billing.Payment, error) {
	args := m.Called(ctx, callerID, req)
	res, _ := args.Get(0).(*billing.Payment)
	return res, args.Error(1)
}

func (m *mockService) Status(ctx context.Context, userID string) (*billing.StatusResult, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*billing.StatusResult)
	return res, args.Error(1)
}

func (m *mockService) ExpirePendingCheckouts(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

const testSecret = "test-jwt-secret"

func newVerifier(t *testing.T) *jwt.Verifier {
	t.Helper()
	v, err := jwt.NewVerifier(jwt.Config{Secret: testSecret})
	require.NoError(t, err)
	return v
}

func bearer(t *testing.T, v *jwt.Verifier, userID string) string {
	t.Helper()
	tok, err := v.Sign(jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)
	return "Bearer " + tok
}

type fixture struct {
	svc      *mockService
	verifier *jwt.Verifier
	router   http.Handler
}

func newFixture(t *testing.T, opts ...module.Option) *fixture {
	t.Helper()
	svc := &mockService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })
	v := newVerifier(t)
	opts = append([]module.Option{module.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return &fixture{
		svc:      svc,
		verifier: v,
		router:   module.New(svc, v, opts...).Router(),
	}
}

// do sends a request; auth is a user id to sign a token for, or "" for none.
func (f *fixture) do(t *testing.T, method, target, auth, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		r.Header.Set("Authorization", bearer(t, f.verifier, auth))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func ptr[T any](v T) *T { return &v }
