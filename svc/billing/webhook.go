package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/staffpulse/billing/pkg/logger"
)

// expandableID decodes a Stripe field that is either an id string or an
// expanded object carrying an id.
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

type checkoutSessionObject struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	Metadata        map[string]string `json:"metadata"`
	PaymentIntent   expandableID      `json:"payment_intent"`
	Invoice         expandableID      `json:"invoice"`
	Subscription    expandableID      `json:"subscription"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// externalPaymentID prefers the payment intent, then the invoice, then the
// session itself.
func (o checkoutSessionObject) externalPaymentID() string {
	for _, id := range []string{string(o.PaymentIntent), string(o.Invoice), o.ID} {
		if id != "" {
			return id
		}
	}
	return ""
}

func (o checkoutSessionObject) email() string {
	if o.CustomerDetails != nil && o.CustomerDetails.Email != "" {
		return o.CustomerDetails.Email
	}
	if o.CustomerEmail != "" {
		return o.CustomerEmail
	}
	return o.Metadata[metaContactEmail]
}

type invoiceObject struct {
	ID           string       `json:"id"`
	Subscription expandableID `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID reads the top-level field of older API versions and the
// parent block of newer ones.
func (o invoiceObject) subscriptionID() string {
	if o.Subscription != "" {
		return string(o.Subscription)
	}
	if o.Parent != nil && o.Parent.SubscriptionDetails != nil {
		return string(o.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}

type subscriptionObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ConstructEvent(payload, signature)
	if err != nil {
		s.metrics.webhook("unknown", outcomeRejected)
		s.log.WarnContext(ctx, "rejected stripe webhook", logger.Error(err))
		if !errors.Is(err, ErrInvalidSignature) {
			err = errors.Join(ErrInvalidSignature, err)
		}
		return err
	}

	log := s.log.With(logger.StripeEvent(ev.ID, ev.Type))

	var outcome string
	switch ev.Type {
	case EventCheckoutSessionCompleted:
		outcome, err = s.handleCheckoutCompleted(ctx, log, ev)
	case EventInvoicePaid:
		outcome, err = s.handleInvoicePaid(ctx, log, ev)
	case EventCustomerSubscriptionUpdated:
		outcome, err = s.handleSubscriptionUpdated(ctx, log, ev)
	case EventCustomerSubscriptionDeleted:
		outcome, err = s.handleSubscriptionDeleted(ctx, log, ev)
	default:
		log.InfoContext(ctx, "ignoring unhandled stripe event")
		outcome = outcomeIgnored
	}
	if err != nil {
		s.metrics.webhook(ev.Type, outcomeFailed)
		log.ErrorContext(ctx, "failed to process stripe webhook", logger.Error(err))
		return err
	}
	s.metrics.webhook(ev.Type, outcome)
	return nil
}

func (s *service) handleCheckoutCompleted(ctx context.Context, log *slog.Logger, ev Event) (string, error) {
	var obj checkoutSessionObject
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}

	userID := obj.Metadata[metaUserID]
	plan := PlanType(obj.Metadata[metaPlanType])
	if userID == "" || plan == "" {
		log.ErrorContext(ctx, "dropping checkout completion without user or plan metadata",
			logger.Error(ErrMissingMetadata), logger.ExternalID(obj.ID))
		return outcomeDropped, nil
	}
	// Redelivering cannot fix bad metadata, so it is acknowledged, not retried.
	if !slices.Contains(PlanTypes, plan) {
		log.ErrorContext(ctx, "dropping checkout completion with unknown plan",
			logger.Error(ErrUnknownPlan), logger.ExternalID(obj.ID), logger.PlanType(string(plan)))
		return outcomeDropped, nil
	}
	log = log.With(logger.UserID(userID), logger.PlanType(string(plan)))

	purchase := PurchaseType(obj.Metadata[metaPurchaseType])
	if purchase != PurchaseSubscription && purchase != PurchaseOneTime {
		purchase = PurchaseSubscription
		if obj.Mode == "payment" {
			purchase = PurchaseOneTime
		}
	}
	externalID := obj.externalPaymentID()

	now := s.now()
	act := Activation{At: now, StripeSubscriptionID: string(obj.Subscription)}
	if purchase == PurchaseOneTime {
		act.End = s.grantEnd(now)
	}

	var (
		activated *Subscription
		changed   bool
		replay    bool
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.LockCheckout(ctx, userID, plan); err != nil {
			return errors.Join(ErrFailedToUpdateSubscription, err)
		}
		// The payment row is written in the same transaction as the
		// activation, so its presence marks the session as already applied.
		if externalID != "" {
			exists, err := tx.PaymentExists(ctx, externalID)
			if err != nil {
				return errors.Join(ErrFailedToRecordPayment, err)
			}
			if exists {
				replay = true
				return nil
			}
		}

		sub, err := tx.ActivateLatestPending(ctx, userID, plan, MethodStripe, act)
		switch {
		case err == nil:
			changed = true
		case errors.Is(err, ErrNotFound):
			sub, changed, err = s.activateWithoutPending(ctx, tx, log, ev, userID, plan, purchase, act)
			if err != nil {
				return err
			}
		default:
			return errors.Join(ErrFailedToUpdateSubscription, err)
		}
		activated = sub
		return s.recordCheckoutPayment(ctx, tx, log, sub, obj, externalID)
	})
	if err != nil {
		return "", err
	}
	if replay {
		log.InfoContext(ctx, "checkout session already applied", logger.ExternalID(externalID))
		return outcomeDuplicate, nil
	}

	log.InfoContext(ctx, "checkout completed",
		logger.SubscriptionID(activated.ID.String()), "changed", changed)

	if changed {
		if err := s.notifier.SubscriptionActivated(ctx, *activated, obj.email()); err != nil {
			log.WarnContext(ctx, "failed to send welcome email", logger.Error(err))
		}
	}
	return outcomeProcessed, nil
}

// activateWithoutPending handles a completion that arrived with no pending
// row to promote, e.g. because it overtook the initiating insert. The bool
// reports whether a row changed.
func (s *service) activateWithoutPending(
	ctx context.Context,
	tx Store,
	log *slog.Logger,
	ev Event,
	userID string,
	plan PlanType,
	purchase PurchaseType,
	act Activation,
) (*Subscription, bool, error) {
	latest, err := tx.FindLatestSubscription(ctx, userID, plan, MethodStripe)
	if errors.Is(err, ErrNotFound) {
		sub := &Subscription{
			UserID:               userID,
			PlanType:             plan,
			PurchaseType:         purchase,
			Status:               StatusActive,
			PaymentMethod:        MethodStripe,
			StripeSubscriptionID: act.StripeSubscriptionID,
			StartDate:            act.At,
			EndDate:              act.End,
		}
		if err := tx.InsertSubscription(ctx, sub); err != nil {
			return nil, false, errors.Join(ErrFailedToCreateSubscription, err)
		}
		return sub, true, nil
	}
	if err != nil {
		return nil, false, errors.Join(ErrFailedToLoadSubscription, err)
	}

	switch {
	case latest.Status == StatusActive:
		return latest, false, nil
	case latest.Status == StatusCanceled && !ev.Created.IsZero() && latest.UpdatedAt.After(ev.Created):
		log.WarnContext(ctx, "not reactivating subscription canceled after the event was created",
			logger.SubscriptionID(latest.ID.String()))
		return latest, false, nil
	}

	sub, err := tx.ForceActivate(ctx, latest.ID, act)
	if err != nil {
		return nil, false, errors.Join(ErrFailedToUpdateSubscription, err)
	}
	return sub, true, nil
}

func (s *service) recordCheckoutPayment(ctx context.Context, tx Store, log *slog.Logger, sub *Subscription, obj checkoutSessionObject, externalID string) error {
	if externalID == "" {
		log.WarnContext(ctx, "checkout completion carries no payment reference")
		return nil
	}

	currency := strings.ToUpper(obj.Currency)
	if currency == "" {
		currency = s.catalog.Currency()
	}
	p := &Payment{
		SubscriptionID:  sub.ID,
		Amount:          decimal.New(obj.AmountTotal, -2),
		Currency:        currency,
		PaymentMethod:   MethodStripe,
		StripePaymentID: externalID,
		Status:          PaymentCompleted,
		Billing:         billingFromMetadata(obj.Metadata),
	}
	err := tx.InsertPayment(ctx, p)
	switch {
	case errors.Is(err, ErrDuplicatePayment):
		log.InfoContext(ctx, "payment recorded by a concurrent delivery", logger.ExternalID(externalID))
		return nil
	case err != nil:
		return errors.Join(ErrFailedToRecordPayment, err)
	}
	return nil
}

func (s *service) handleInvoicePaid(ctx context.Context, log *slog.Logger, ev Event) (string, error) {
	var obj invoiceObject
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}
	subID := obj.subscriptionID()
	if subID == "" {
		log.InfoContext(ctx, "paid invoice is not tied to a subscription", logger.ExternalID(obj.ID))
		return outcomeIgnored, nil
	}
	log = log.With(logger.ExternalID(subID))

	if _, err := s.provider.SubscriptionStatus(ctx, subID); err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusBadRequest {
			log.WarnContext(ctx, "subscription on paid invoice cannot be resolved", logger.Error(err))
			return outcomeIgnored, nil
		}
		return "", err
	}

	n, err := s.store.SetStatusByStripeID(ctx, subID, StatusActive, nil)
	if err != nil {
		return "", errors.Join(ErrFailedToUpdateSubscription, err)
	}
	log.InfoContext(ctx, "invoice paid", "rows", n)
	return outcomeProcessed, nil
}

func (s *service) handleSubscriptionUpdated(ctx context.Context, log *slog.Logger, ev Event) (string, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}
	status := StatusCanceled
	if obj.Status == "active" {
		status = StatusActive
	}
	n, err := s.store.SetStatusByStripeID(ctx, obj.ID, status, nil)
	if err != nil {
		return "", errors.Join(ErrFailedToUpdateSubscription, err)
	}
	log.InfoContext(ctx, "subscription updated", logger.ExternalID(obj.ID),
		"stripe_status", obj.Status, "status", string(status), "rows", n)
	return outcomeProcessed, nil
}

func (s *service) handleSubscriptionDeleted(ctx context.Context, log *slog.Logger, ev Event) (string, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(ev.Object, &obj); err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}
	now := s.now()
	n, err := s.store.SetStatusByStripeID(ctx, obj.ID, StatusCanceled, &now)
	if err != nil {
		return "", errors.Join(ErrFailedToUpdateSubscription, err)
	}
	if n == 0 {
		log.InfoContext(ctx, "deleted subscription is not known locally", logger.ExternalID(obj.ID))
		return outcomeIgnored, nil
	}
	log.InfoContext(ctx, "subscription canceled", logger.ExternalID(obj.ID), "rows", n)
	return outcomeProcessed, nil
}
