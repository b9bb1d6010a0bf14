package xero

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"

	"github.com/staffpulse/billing/pkg/pg"
	"github.com/staffpulse/billing/pkg/secrets"
)

// TokenPurpose separates the token key from other uses of the master key.
const TokenPurpose = "xero-token"

// TokenStore persists the token of a completed connection.
type TokenStore interface {
	SaveToken(ctx context.Context, userID string, tok *oauth2.Token) error
}

// PostgresTokenStore upserts one connection per user into xero_connections.
// Access and refresh tokens are stored encrypted, bound to the user id.
type PostgresTokenStore struct {
	db     pg.Querier
	cipher *secrets.Cipher
}

// NewPostgresTokenStore panics if pool or cipher is nil.
func NewPostgresTokenStore(pool *pgxpool.Pool, cipher *secrets.Cipher) *PostgresTokenStore {
	if pool == nil {
		panic("xero: postgres pool is required")
	}
	if cipher == nil {
		panic("xero: token cipher is required")
	}
	return &PostgresTokenStore{db: pool, cipher: cipher}
}

// NewTokenCipher derives the token cipher from a base64 master key.
func NewTokenCipher(key string) (*secrets.Cipher, error) {
	master, err := secrets.ParseKey(key)
	if err != nil {
		return nil, errors.Join(ErrIncompleteConfig, err)
	}
	return secrets.New(master, TokenPurpose)
}

func (s *PostgresTokenStore) SaveToken(ctx context.Context, userID string, tok *oauth2.Token) error {
	access, refresh, err := sealToken(s.cipher, userID, tok)
	if err != nil {
		return err
	}
	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		expiry = &tok.Expiry
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO xero_connections (user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), xero_connections.refresh_token),
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = now()`,
		userID, access, refresh, tok.TokenType, expiry)
	return err
}

// sealToken encrypts both tokens. An empty refresh token stays empty so the
// upsert keeps the previous one.
func sealToken(c *secrets.Cipher, userID string, tok *oauth2.Token) (access, refresh string, err error) {
	if access, err = c.EncryptString(tok.AccessToken, userID); err != nil {
		return "", "", err
	}
	if tok.RefreshToken != "" {
		if refresh, err = c.EncryptString(tok.RefreshToken, userID); err != nil {
			return "", "", err
		}
	}
	return access, refresh, nil
}
