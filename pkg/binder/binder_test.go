package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/pkg/binder"
)

type checkoutBody struct {
	PriceID  string `json:"priceId"`
	PlanType string `json:"planType"`
}

func jsonRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()

	t.Run("decodes", func(t *testing.T) {
		var b checkoutBody
		err := bind(jsonRequest(`{"priceId":"price_1","planType":"premium","extra":true}`, "application/json; charset=utf-8"), &b)
		require.NoError(t, err)
		assert.Equal(t, "price_1", b.PriceID)
		assert.Equal(t, "premium", b.PlanType)
	})

	t.Run("missing content type tolerated", func(t *testing.T) {
		var b checkoutBody
		require.NoError(t, bind(jsonRequest(`{"priceId":"p"}`, ""), &b))
		assert.Equal(t, "p", b.PriceID)
	})

	t.Run("wrong content type", func(t *testing.T) {
		var b checkoutBody
		err := bind(jsonRequest(`priceId=p`, "application/x-www-form-urlencoded"), &b)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("empty body", func(t *testing.T) {
		var b checkoutBody
		assert.ErrorIs(t, bind(jsonRequest("", "application/json"), &b), binder.ErrFailedToParseJSON)
	})

	t.Run("malformed", func(t *testing.T) {
		var b checkoutBody
		assert.ErrorIs(t, bind(jsonRequest(`{"priceId":`, "application/json"), &b), binder.ErrFailedToParseJSON)
	})

	t.Run("trailing data", func(t *testing.T) {
		var b checkoutBody
		assert.ErrorIs(t, bind(jsonRequest(`{"priceId":"a"}{"priceId":"b"}`, "application/json"), &b), binder.ErrFailedToParseJSON)
	})

	t.Run("too large", func(t *testing.T) {
		var b checkoutBody
		small := binder.JSON(binder.WithMaxSize(10))
		assert.ErrorIs(t, small(jsonRequest(`{"priceId":"price_123456"}`, "application/json"), &b), binder.ErrBodyTooLarge)
	})

	t.Run("strict", func(t *testing.T) {
		var b checkoutBody
		strict := binder.JSON(binder.Strict())
		assert.ErrorIs(t, strict(jsonRequest(`{"unknown":1}`, "application/json"), &b), binder.ErrFailedToParseJSON)
	})
}

type callbackQuery struct {
	State   string `query:"state"`
	Code    string `query:"code"`
	Retry   *int   `query:"retry"`
	Debug   bool   `query:"debug"`
	Ignored string `query:"-"`
	Scope   string
}

func TestQuery(t *testing.T) {
	t.Parallel()

	bind := binder.Query()

	t.Run("binds", func(t *testing.T) {
		var q callbackQuery
		r := httptest.NewRequest(http.MethodGet, "/cb?state=s1&code=c1&retry=2&debug=true&Ignored=x&scope=openid", nil)
		require.NoError(t, bind(r, &q))
		assert.Equal(t, "s1", q.State)
		assert.Equal(t, "c1", q.Code)
		require.NotNil(t, q.Retry)
		assert.Equal(t, 2, *q.Retry)
		assert.True(t, q.Debug)
		assert.Empty(t, q.Ignored)
		assert.Equal(t, "openid", q.Scope)
	})

	t.Run("invalid number", func(t *testing.T) {
		var q callbackQuery
		r := httptest.NewRequest(http.MethodGet, "/cb?retry=x", nil)
		assert.ErrorIs(t, bind(r, &q), binder.ErrFailedToParseQuery)
	})

	t.Run("non pointer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/cb", nil)
		assert.ErrorIs(t, bind(r, callbackQuery{}), binder.ErrFailedToParseQuery)
	})
}
