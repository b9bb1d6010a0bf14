// Package config loads typed service configuration from the process
// environment.
//
// Every package of the billing service owns a small env-tagged Config struct
// (see pg.Config, email.Config, billing.StripeConfig). config.Load parses such
// a struct with github.com/caarlos0/env/v11 after optionally reading `.env`
// files through github.com/joho/godotenv, and caches the result per type so a
// configuration is parsed once per process.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Fields tagged `required` fail fast: Load returns an error wrapping
// ErrParsingConfig naming the missing variable, which is how a missing Stripe
// key or database URL stops the binary at startup instead of degrading later.
//
// Tests can call ResetCache between cases and LoadEnv to read fixture files.
package config
