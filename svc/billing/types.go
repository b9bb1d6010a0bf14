package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanType is the tier of service purchased.
type PlanType string

const (
	PlanFoundation PlanType = "foundation"
	PlanProgress   PlanType = "progress"
	PlanPremium    PlanType = "premium"
)

// PlanTypes lists every plan tier in catalog order.
var PlanTypes = []PlanType{PlanFoundation, PlanProgress, PlanPremium}

// PurchaseType distinguishes recurring billing from a fixed-term purchase.
type PurchaseType string

const (
	PurchaseSubscription PurchaseType = "subscription"
	PurchaseOneTime      PurchaseType = "one-time"
)

// Status is the lifecycle state of a subscription row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// PaymentMethod records how a subscription is paid for.
type PaymentMethod string

const (
	MethodStripe  PaymentMethod = "stripe"
	MethodInvoice PaymentMethod = "invoice"
)

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentMade      PaymentStatus = "payment_made"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Subscription is one entitlement row. Plan changes create new rows.
type Subscription struct {
	ID                   uuid.UUID     `json:"id"`
	UserID               string        `json:"user_id"`
	PlanType             PlanType      `json:"plan_type"`
	PurchaseType         PurchaseType  `json:"purchase_type"`
	Status               Status        `json:"status"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	StripeSubscriptionID string        `json:"stripe_subscription_id,omitempty"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              *time.Time    `json:"end_date,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// HasAccess reports whether the row grants access at now.
func (s Subscription) HasAccess(now time.Time) bool {
	return s.Status == StatusActive && (s.EndDate == nil || s.EndDate.After(now))
}

// BillingDetails is the contact block captured at checkout or invoice request.
type BillingDetails struct {
	SchoolName   string `json:"schoolName"`
	Address      string `json:"address"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
}

// IsZero reports whether no contact field is set.
func (b BillingDetails) IsZero() bool {
	return b == BillingDetails{}
}

// Payment is an immutable history record. Only the status and invoice
// number change after insertion.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	SubscriptionID  uuid.UUID       `json:"subscription_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	StripePaymentID string          `json:"stripe_payment_id,omitempty"`
	Status          PaymentStatus   `json:"status"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	Billing         BillingDetails  `json:"billing_details"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CheckoutRequest starts a hosted checkout.
type CheckoutRequest struct {
	PriceID        string         `json:"priceId"`
	SuccessURL     string         `json:"successUrl"`
	CancelURL      string         `json:"cancelUrl"`
	PlanType       PlanType       `json:"planType"`
	PurchaseType   PurchaseType   `json:"purchaseType"`
	BillingDetails BillingDetails `json:"billingDetails"`
}

// CheckoutResult carries the hosted checkout URL.
type CheckoutResult struct {
	URL            string    `json:"url"`
	SessionID      string    `json:"-"`
	SubscriptionID uuid.UUID `json:"-"`
}

// InvoiceRequest asks for a manually invoiced purchase.
type InvoiceRequest struct {
	PlanType       PlanType       `json:"planType"`
	PurchaseType   PurchaseType   `json:"purchaseType"`
	BillingDetails BillingDetails `json:"billingDetails"`
}

// InvoiceResult is what RequestInvoice created.
type InvoiceResult struct {
	Subscription Subscription `json:"subscription"`
	Payment      Payment      `json:"payment"`
}

// InvoiceStatusUpdate is an administrator's change to an invoice payment.
// AdminUserID is optional and must match the caller when present.
type InvoiceStatusUpdate struct {
	PaymentID     string        `json:"paymentId"`
	Status        PaymentStatus `json:"status"`
	InvoiceNumber *string       `json:"invoiceNumber,omitempty"`
	AdminUserID   string        `json:"adminUserId,omitempty"`
}

// StatusResult answers "does this user have access, and under which plan".
type StatusResult struct {
	HasActiveSubscription bool     `json:"hasActiveSubscription"`
	Plan                  PlanType `json:"plan"`
	StripeStatus          *string  `json:"stripeStatus"`
}
