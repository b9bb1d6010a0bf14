package billing

var (
	BuildCheckoutParams = buildCheckoutParams
	WrapStripeError     = wrapStripeError
)
