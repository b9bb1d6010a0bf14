package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/pkg/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrorAttrs(t *testing.T) {
	t.Parallel()

	t.Run("single", func(t *testing.T) {
		err := errors.New("boom")
		attr := logger.Error(err)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, err, attr.Value.Any())
		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	})

	t.Run("multiple skips nil", func(t *testing.T) {
		err1 := errors.New("first")
		err2 := errors.New("second")
		attr := logger.Errors(err1, nil, err2)
		require.Equal(t, "errors", attr.Key)
		g := attr.Value.Group()
		require.Len(t, g, 2)
		assert.Equal(t, err1, g[0].Value.Any())
		assert.Equal(t, err2, g[1].Value.Any())
		assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	})
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"user", logger.UserID("u_1"), "user_id", "u_1"},
		{"request", logger.RequestID("r_1"), "request_id", "r_1"},
		{"subscription", logger.SubscriptionID("s_1"), "subscription_id", "s_1"},
		{"payment", logger.PaymentID("p_1"), "payment_id", "p_1"},
		{"external", logger.ExternalID("pi_1"), "external_id", "pi_1"},
		{"plan", logger.PlanType("premium"), "plan_type", "premium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}

	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.PlanType("").Equal(slog.Attr{}))
}

func TestStripeEvent(t *testing.T) {
	t.Parallel()

	attr := logger.StripeEvent("evt_1", "invoice.paid")
	require.Equal(t, "stripe_event", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "evt_1", g[0].Value.String())
	assert.Equal(t, "invoice.paid", g[1].Value.String())
}

func TestDuration(t *testing.T) {
	t.Parallel()

	attr := logger.Duration(2 * time.Second)
	assert.Equal(t, "duration", attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())
}
