package billing

import (
	"context"
	"errors"
	"time"

	"github.com/staffpulse/billing/pkg/logger"
)

// ExpirePendingCheckouts cancels Stripe checkout reservations older than
// olderThan. Invoice rows wait for an administrator and are left alone.
func (s *service) ExpirePendingCheckouts(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidCutoff
	}
	cutoff := s.now().Add(-olderThan)
	n, err := s.store.CancelStalePending(ctx, MethodStripe, cutoff)
	if err != nil {
		return 0, errors.Join(ErrFailedToUpdateSubscription, err)
	}
	s.log.InfoContext(ctx, "expired pending checkouts", "rows", n, "cutoff", cutoff, logger.Duration(olderThan))
	return n, nil
}
