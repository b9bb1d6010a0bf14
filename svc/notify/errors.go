package notify

import "errors"

var (
	ErrFailedToSendEmail = errors.New("notify: failed to send email")
	ErrCRMRequestFailed  = errors.New("notify: crm request failed")
	ErrMissingCRMToken   = errors.New("notify: hubspot access token is required")
)
