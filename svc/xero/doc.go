// Package xero connects a user's Xero organisation through the OAuth 2.0
// authorization code flow. State tokens live server-side (Redis in
// production) and are consumed exactly once on callback.
package xero
