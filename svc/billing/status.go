package billing

import (
	"context"
	"errors"

	"github.com/staffpulse/billing/pkg/logger"
)

// Live Stripe statuses that keep access.
var liveAccessStatuses = map[string]bool{"active": true, "trialing": true}

// Status reports the caller's access. Stripe-backed rows are checked live
// and demoted when Stripe no longer considers them active. It never
// reactivates a row.
func (s *service) Status(ctx context.Context, userID string) (*StatusResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	log := s.log.With(logger.UserID(userID))

	var lastLive *string
	for {
		sub, err := s.store.ActiveSubscription(ctx, userID, s.now())
		if errors.Is(err, ErrNotFound) {
			return &StatusResult{StripeStatus: lastLive}, nil
		}
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadSubscription, err)
		}

		if sub.PaymentMethod != MethodStripe || sub.StripeSubscriptionID == "" {
			return &StatusResult{HasActiveSubscription: true, Plan: sub.PlanType}, nil
		}

		live, err := s.provider.SubscriptionStatus(ctx, sub.StripeSubscriptionID)
		if err != nil {
			log.WarnContext(ctx, "could not fetch live subscription status, keeping local state",
				logger.ExternalID(sub.StripeSubscriptionID), logger.Error(err))
			return &StatusResult{HasActiveSubscription: true, Plan: sub.PlanType}, nil
		}
		if liveAccessStatuses[live] {
			return &StatusResult{HasActiveSubscription: true, Plan: sub.PlanType, StripeStatus: &live}, nil
		}

		if err := s.store.SetSubscriptionStatus(ctx, sub.ID, StatusCanceled); err != nil {
			return nil, errors.Join(ErrFailedToUpdateSubscription, err)
		}
		log.InfoContext(ctx, "demoted subscription no longer active in stripe",
			logger.SubscriptionID(sub.ID.String()),
			logger.ExternalID(sub.StripeSubscriptionID),
			"stripe_status", live)
		lastLive = &live
		// Another row, e.g. an invoice grant, may still grant access.
	}
}
