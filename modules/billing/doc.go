// Package billing mounts the billing service's JSON endpoints on a chi
// router:
//
//	POST /checkout                    start a Stripe checkout
//	POST /webhooks/stripe             Stripe events (signature checked, no bearer)
//	POST /invoices                    request an invoice, or update one as admin
//	GET  /subscription/status         access check for the caller
//	GET  /integrations/xero/connect   Xero consent URL
//	GET  /integrations/xero/callback  Xero redirect target (no bearer)
//
// Every route answers CORS preflights for any origin.
package billing
