package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/pkg/validator"
)

// Metadata keys attached to checkout sessions and read back from webhooks.
const (
	metaUserID       = "userId"
	metaPlanType     = "planType"
	metaPurchaseType = "purchaseType"
	metaSchoolName   = "schoolName"
	metaAddress      = "address"
	metaContactName  = "contactName"
	metaContactEmail = "contactEmail"
)

// Stripe caps metadata values at 500 characters.
const maxMetadataValue = 500

func (s *service) CreateCheckout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if req.PurchaseType == "" {
		req.PurchaseType = PurchaseSubscription
	}
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	log := s.log.With(logger.UserID(userID), logger.PlanType(string(req.PlanType)))
	price := s.resolvePrice(ctx, log, req)

	cs, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionParams{
		PriceID:       price,
		PurchaseType:  req.PurchaseType,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.BillingDetails.ContactEmail,
		Metadata:      checkoutMetadata(userID, req),
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to create checkout session", logger.Error(err))
		return nil, err
	}

	result := &CheckoutResult{URL: cs.URL, SessionID: cs.ID}
	s.metrics.checkout(req.PlanType, req.PurchaseType)

	// The session already exists, so a failed insert must not hide its URL.
	// The webhook fallback creates the row on completion.
	sub, err := s.reservePending(ctx, userID, req)
	if err != nil {
		log.ErrorContext(ctx, "checkout session created but pending subscription was not recorded",
			logger.ExternalID(cs.ID), logger.Error(err))
		return result, nil
	}
	result.SubscriptionID = sub.ID
	return result, nil
}

func validateCheckout(req CheckoutRequest) error {
	b := req.BillingDetails
	return validator.Apply(
		validator.Required("priceId", req.PriceID),
		validator.Required("successUrl", req.SuccessURL),
		validator.When(req.SuccessURL != "", validator.AbsoluteURL("successUrl", req.SuccessURL)),
		validator.Required("cancelUrl", req.CancelURL),
		validator.When(req.CancelURL != "", validator.AbsoluteURL("cancelUrl", req.CancelURL)),
		validator.Required("planType", string(req.PlanType)),
		validator.When(req.PlanType != "", validator.OneOf("planType", req.PlanType, PlanTypes...)),
		validator.OneOf("purchaseType", req.PurchaseType, PurchaseSubscription, PurchaseOneTime),
		validator.When(b.ContactEmail != "", validator.Email("billingDetails.contactEmail", b.ContactEmail)),
		validator.MaxLen("billingDetails.schoolName", b.SchoolName, maxMetadataValue),
		validator.MaxLen("billingDetails.address", b.Address, maxMetadataValue),
		validator.MaxLen("billingDetails.contactName", b.ContactName, maxMetadataValue),
	)
}

// resolvePrice maps (plan, purchase) through the catalog. The client's
// priceId is advisory only.
func (s *service) resolvePrice(ctx context.Context, log *slog.Logger, req CheckoutRequest) string {
	price, ok := s.catalog.PriceID(req.PlanType, req.PurchaseType)
	if !ok {
		price = s.catalog.DefaultPriceID()
		log.WarnContext(ctx, "no catalog price for plan, using default price",
			"purchase_type", string(req.PurchaseType), "price_id", price)
	}
	if req.PriceID != price {
		log.WarnContext(ctx, "client price id differs from catalog price",
			"client_price_id", req.PriceID, "price_id", price)
	}
	return price
}

func checkoutMetadata(userID string, req CheckoutRequest) map[string]string {
	meta := map[string]string{
		metaUserID:       userID,
		metaPlanType:     string(req.PlanType),
		metaPurchaseType: string(req.PurchaseType),
	}
	b := req.BillingDetails
	for k, v := range map[string]string{
		metaSchoolName:   b.SchoolName,
		metaAddress:      b.Address,
		metaContactName:  b.ContactName,
		metaContactEmail: b.ContactEmail,
	} {
		if v != "" {
			meta[k] = v
		}
	}
	return meta
}

func billingFromMetadata(meta map[string]string) BillingDetails {
	return BillingDetails{
		SchoolName:   meta[metaSchoolName],
		Address:      meta[metaAddress],
		ContactName:  meta[metaContactName],
		ContactEmail: meta[metaContactEmail],
	}
}

// reservePending records the pending row for a new checkout, reusing a
// recent one for the same purchase when a reuse window is configured.
func (s *service) reservePending(ctx context.Context, userID string, req CheckoutRequest) (*Subscription, error) {
	now := s.now()
	if s.pendingReuseWindow > 0 {
		existing, err := s.store.FindReusablePending(ctx, userID, req.PlanType, req.PurchaseType, MethodStripe, now.Add(-s.pendingReuseWindow))
		switch {
		case err == nil:
			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return nil, errors.Join(ErrFailedToCreateSubscription, err)
		}
	}

	sub := &Subscription{
		UserID:        userID,
		PlanType:      req.PlanType,
		PurchaseType:  req.PurchaseType,
		Status:        StatusPending,
		PaymentMethod: MethodStripe,
		StartDate:     now,
	}
	if err := s.store.InsertSubscription(ctx, sub); err != nil {
		return nil, errors.Join(ErrFailedToCreateSubscription, err)
	}
	return sub, nil
}
