package xero

import "errors"

var (
	ErrIncompleteConfig    = errors.New("xero: incomplete configuration")
	ErrInvalidState        = errors.New("xero: invalid or expired state")
	ErrMissingCode         = errors.New("xero: missing authorization code")
	ErrMissingUserID       = errors.New("xero: user id is required")
	ErrFailedToStoreState  = errors.New("xero: failed to store state")
	ErrFailedToExchange    = errors.New("xero: token exchange failed")
	ErrFailedToSaveToken   = errors.New("xero: failed to save token")
	ErrFailedToCreateState = errors.New("xero: failed to generate state")
)
