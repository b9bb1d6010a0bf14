package xero

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/staffpulse/billing/pkg/logger"
)

// Connector runs the Xero authorization code flow for a signed-in user.
type Connector struct {
	oauth    *oauth2.Config
	states   StateStore
	tokens   TokenStore
	stateTTL time.Duration
	log      *slog.Logger
}

// NewConnector panics if states or tokens is nil.
func NewConnector(cfg Config, states StateStore, tokens TokenStore, log *slog.Logger) *Connector {
	if states == nil {
		panic("xero: StateStore is required")
	}
	if tokens == nil {
		panic("xero: TokenStore is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Connector{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		states:   states,
		tokens:   tokens,
		stateTTL: ttl,
		log:      log,
	}
}

// AuthCodeURL stores a fresh state for userID and returns the consent URL.
func (c *Connector) AuthCodeURL(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	state, err := generateState()
	if err != nil {
		return "", errors.Join(ErrFailedToCreateState, err)
	}
	if err := c.states.Save(ctx, state, userID, c.stateTTL); err != nil {
		return "", err
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange consumes state, trades code for a token and stores it for the
// user who started the flow. It returns that user's id.
func (c *Connector) Exchange(ctx context.Context, state, code string) (string, error) {
	userID, err := c.states.Consume(ctx, state)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", ErrMissingCode
	}

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		c.log.WarnContext(ctx, "xero token exchange failed", logger.UserID(userID), logger.Error(err))
		return "", errors.Join(ErrFailedToExchange, err)
	}
	if err := c.tokens.SaveToken(ctx, userID, tok); err != nil {
		return "", errors.Join(ErrFailedToSaveToken, err)
	}
	c.log.InfoContext(ctx, "xero connected", logger.UserID(userID))
	return userID, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
