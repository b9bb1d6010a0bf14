package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/staffpulse/billing/pkg/email"
	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/svc/billing"
)

var _ billing.Notifier = (*Notifier)(nil)

// Notifier sends billing emails and keeps the CRM in step with billing
// contacts.
type Notifier struct {
	sender email.Sender
	crm    CRM
	cfg    Config
	log    *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithCRM enables contact sync.
func WithCRM(crm CRM) Option {
	return func(n *Notifier) {
		n.crm = crm
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// New panics if sender is nil.
func New(sender email.Sender, cfg Config, opts ...Option) *Notifier {
	if sender == nil {
		panic("notify: email sender is required")
	}
	n := &Notifier{
		sender: sender,
		cfg:    cfg,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SubscriptionActivated welcomes the customer. A missing address is not an
// error; there is nobody to write to.
func (n *Notifier) SubscriptionActivated(ctx context.Context, sub billing.Subscription, customerEmail string) error {
	if customerEmail == "" {
		n.log.DebugContext(ctx, "no customer email for welcome message", logger.UserID(sub.UserID))
		return nil
	}

	data := welcomeData{
		Product:      n.cfg.ProductName,
		Plan:         planName(sub.PlanType),
		DashboardURL: n.cfg.DashboardURL,
	}
	if sub.EndDate != nil {
		data.Until = sub.EndDate.Format("2 January 2006")
	}
	htmlBody, err := render(welcomeHTML, data)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	textBody, err := render(welcomeText, data)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	err = n.sender.Send(ctx, email.Message{
		To:       customerEmail,
		Subject:  "Welcome to " + n.cfg.ProductName,
		HTMLBody: htmlBody,
		TextBody: textBody,
		Tag:      "subscription-welcome",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

// InvoiceRequested tells the administrators and records the contact in the
// CRM. Both are attempted; their errors are joined.
func (n *Notifier) InvoiceRequested(ctx context.Context, sub billing.Subscription, payment billing.Payment) error {
	var errs []error

	if n.cfg.AdminEmail != "" {
		if err := n.sendInvoiceNotice(ctx, sub, payment); err != nil {
			errs = append(errs, err)
		}
	}

	if n.crm != nil && payment.Billing.ContactEmail != "" {
		first, last := splitName(payment.Billing.ContactName)
		err := n.crm.UpsertContact(ctx, Contact{
			Email:     payment.Billing.ContactEmail,
			FirstName: first,
			LastName:  last,
			Company:   payment.Billing.SchoolName,
			Address:   payment.Billing.Address,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendInvoiceNotice(ctx context.Context, sub billing.Subscription, payment billing.Payment) error {
	b := payment.Billing
	body, err := render(invoiceText, invoiceData{
		School:    b.SchoolName,
		Contact:   b.ContactName,
		Email:     b.ContactEmail,
		Address:   b.Address,
		Plan:      planName(sub.PlanType),
		Purchase:  string(sub.PurchaseType),
		Amount:    FormatAmount(payment.Amount, payment.Currency),
		PaymentID: payment.ID.String(),
		UserID:    sub.UserID,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	err = n.sender.Send(ctx, email.Message{
		To:       n.cfg.AdminEmail,
		Subject:  "Invoice requested: " + b.SchoolName,
		TextBody: body,
		Tag:      "invoice-request",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func planName(p billing.PlanType) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
