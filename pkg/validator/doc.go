// Package validator collects field-level validation failures.
//
// Rules are built eagerly and evaluated by Apply, which reports every failed
// rule at once:
//
//	err := validator.Apply(
//	    validator.Required("priceId", req.PriceID),
//	    validator.AbsoluteURL("successUrl", req.SuccessURL),
//	    validator.OneOf("planType", req.PlanType, billing.Plans()...),
//	)
//
// The returned Errors value matches ErrValidationFailed with errors.Is and
// exposes Fields for the JSON error body.
package validator
