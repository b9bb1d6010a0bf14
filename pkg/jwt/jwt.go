package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Config holds the settings shared with the identity provider that issues
// bearer tokens to the web app.
type Config struct {
	Secret   string        `env:"AUTH_JWT_SECRET,required"`
	Issuer   string        `env:"AUTH_JWT_ISSUER"`
	Audience string        `env:"AUTH_JWT_AUDIENCE"`
	Leeway   time.Duration `env:"AUTH_JWT_LEEWAY" envDefault:"30s"`
}

// Claims are the identity-provider claims the billing service relies on.
// Subject is the user id every billing row is keyed by.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	gojwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	key    []byte
	parser *gojwt.Parser
	issuer string
}

// NewVerifier creates a Verifier from cfg.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithLeeway(cfg.Leeway),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}

	return &Verifier{
		key:    []byte(cfg.Secret),
		parser: gojwt.NewParser(opts...),
		issuer: cfg.Issuer,
	}, nil
}

// Verify parses token and validates signature, expiry and subject.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, errors.Join(ErrInvalidToken, ErrMissingSubject)
	}
	return claims, nil
}

// Sign issues a token for claims. The service itself only verifies tokens;
// Sign exists for local tooling and tests. Issuer is filled in when unset.
func (v *Verifier) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(v.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}
