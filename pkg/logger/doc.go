// Package logger builds *slog.Logger values for the billing service.
//
// New takes functional options for format, level, output, static attributes
// and context extractors. Extractors run on every record, so request-scoped
// values such as the request id stored by the requestid middleware end up in
// each log line without being passed around explicitly.
//
// NewFromConfig reads the same settings from an env-tagged Config, which is
// what the binary uses:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log, err := logger.NewFromConfig(cfg,
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//
// Attribute helpers (Error, UserID, SubscriptionID, StripeEvent and friends)
// keep key names consistent across packages. Helpers taking an optional value
// return an empty slog.Attr when the value is missing, which slog drops:
//
//	log.ErrorContext(ctx, "failed to record payment",
//	    logger.UserID(userID),
//	    logger.Error(err),
//	)
package logger
