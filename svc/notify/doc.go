// Package notify delivers the side effects of billing events: a welcome
// email when a subscription activates, an administrator notice when a school
// asks to pay by invoice, and a HubSpot contact upsert for the billing
// contact. Callers treat every failure here as non-critical.
package notify
