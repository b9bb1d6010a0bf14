package billing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	module "github.com/staffpulse/billing/modules/billing"
	"github.com/staffpulse/billing/svc/xero"
)

type tokenSink map[string]*oauth2.Token

func (s tokenSink) SaveToken(_ context.Context, userID string, tok *oauth2.Token) error {
	s[userID] = tok
	return nil
}

func newConnector(t *testing.T, tokens tokenSink) *xero.Connector {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":1800}`))
	}))
	t.Cleanup(srv.Close)

	return xero.NewConnector(xero.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "https://billing.example.com/integrations/xero/callback",
		AuthURL:      "https://login.xero.com/identity/connect/authorize",
		TokenURL:     srv.URL,
	}, xero.NewMemoryStateStore(nil), tokens, nil)
}

func TestXeroConnect(t *testing.T) {
	t.Parallel()

	tokens := tokenSink{}
	f := newFixture(t, module.WithXero(newConnector(t, tokens), ""))

	rec := f.do(t, http.MethodGet, "/integrations/xero/connect", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	consent, err := url.Parse(decodeBody(t, rec)["url"].(string))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	rec = f.do(t, http.MethodGet, "/integrations/xero/callback?state="+url.QueryEscape(state)+"&code=abc", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"connected": true}, decodeBody(t, rec))
	require.Contains(t, tokens, "user-1")
	assert.Equal(t, "at", tokens["user-1"].AccessToken)

	rec = f.do(t, http.MethodGet, "/integrations/xero/callback?state="+url.QueryEscape(state)+"&code=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "state is consumed by the first callback")
	assert.Equal(t, "Invalid or expired state parameter", decodeBody(t, rec)["error"])
}

func TestXeroCallback(t *testing.T) {
	t.Parallel()

	t.Run("redirects when configured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, module.WithXero(newConnector(t, tokenSink{}), "https://app.example.com/settings?xero=connected"))

		rec := f.do(t, http.MethodGet, "/integrations/xero/connect", "user-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		consent, err := url.Parse(decodeBody(t, rec)["url"].(string))
		require.NoError(t, err)

		rec = f.do(t, http.MethodGet, "/integrations/xero/callback?state="+url.QueryEscape(consent.Query().Get("state"))+"&code=abc", "", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://app.example.com/settings?xero=connected", rec.Header().Get("Location"))
	})

	t.Run("forged state", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, module.WithXero(newConnector(t, tokenSink{}), ""))
		rec := f.do(t, http.MethodGet, "/integrations/xero/callback?state=forged&code=abc", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("user declined", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, module.WithXero(newConnector(t, tokenSink{}), ""))
		rec := f.do(t, http.MethodGet, "/integrations/xero/callback?error=access_denied", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Xero authorization was declined", decodeBody(t, rec)["error"])
	})
}
