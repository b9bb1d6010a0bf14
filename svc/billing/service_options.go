package billing

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier sets the side-effect notifier. Defaults to a no-op.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics enables prometheus counters.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPendingReuseWindow sets how long a pending checkout row may be reused
// by a repeated checkout for the same purchase. Zero disables reuse.
func WithPendingReuseWindow(d time.Duration) ServiceOption {
	return func(s *service) {
		if d >= 0 {
			s.pendingReuseWindow = d
		}
	}
}

// WithGrantYears sets the length of fixed-term grants. Non-positive values
// are ignored.
func WithGrantYears(years int) ServiceOption {
	return func(s *service) {
		if years > 0 {
			s.grantYears = years
		}
	}
}
