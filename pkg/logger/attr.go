package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error".
// A nil error yields an empty Attr which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// UserID records the identity-provider user id under "user_id".
func UserID(id string) slog.Attr {
	return optional("user_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	return optional("request_id", id)
}

// SubscriptionID records a local subscription row id under "subscription_id".
func SubscriptionID(id string) slog.Attr {
	return optional("subscription_id", id)
}

// PaymentID records a local payment row id under "payment_id".
func PaymentID(id string) slog.Attr {
	return optional("payment_id", id)
}

// ExternalID records a payment provider object id (session, intent, subscription)
// under "external_id".
func ExternalID(id string) slog.Attr {
	return optional("external_id", id)
}

// PlanType records the catalog plan under "plan_type".
func PlanType(plan string) slog.Attr {
	return optional("plan_type", plan)
}

// StripeEvent records the provider event id and type as a group.
func StripeEvent(id, eventType string) slog.Attr {
	return Group("stripe_event",
		slog.String("id", id),
		slog.String("type", eventType),
	)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
