// Package email sends transactional email.
//
// Sender is the only abstraction the rest of the service depends on.
// PostmarkSender delivers through github.com/mrz1836/postmark; DevSender
// writes JSON files to a local directory and is selected by New when no
// Postmark token is configured.
package email
