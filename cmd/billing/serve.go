package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	billingmod "github.com/staffpulse/billing/modules/billing"
	"github.com/staffpulse/billing/pkg/cache"
	"github.com/staffpulse/billing/pkg/config"
	"github.com/staffpulse/billing/pkg/email"
	"github.com/staffpulse/billing/pkg/httpserver"
	"github.com/staffpulse/billing/pkg/jwt"
	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/pkg/pg"
	"github.com/staffpulse/billing/pkg/redis"
	"github.com/staffpulse/billing/svc/billing"
	"github.com/staffpulse/billing/svc/notify"
	"github.com/staffpulse/billing/svc/xero"
)

type serveConfig struct {
	HTTP          httpserver.Config
	Redis         redis.Config
	Email         email.Config
	Notify        notify.Config
	Xero          xero.Config
	JWT           jwt.Config
	XeroReturnURL string `env:"XERO_RETURN_URL"`
}

// validate refuses development fallbacks outside development.
func (c serveConfig) validate(env string) error {
	var errs []error
	if err := c.Xero.Validate(); err != nil {
		errs = append(errs, err)
	}
	if env != "development" {
		if !c.Email.UsesPostmark() {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required outside development"))
		}
		if c.Notify.AdminEmail == "" {
			errs = append(errs, errors.New("BILLING_ADMIN_EMAIL is required outside development"))
		}
		if !c.Notify.CRMEnabled() {
			errs = append(errs, errors.New("HUBSPOT_ACCESS_TOKEN is required outside development"))
		}
		if c.Xero.Enabled() && !c.Redis.Enabled() {
			errs = append(errs, errors.New("REDIS_URL is required for the xero integration outside development"))
		}
	}
	return errors.Join(errs...)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	log, logCfg, err := newLogger()
	if err != nil {
		return err
	}

	var cfg serveConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(logCfg.Env); err != nil {
		return err
	}

	pool, _, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sender, err := email.New(cfg.Email)
	if err != nil {
		return err
	}
	if !cfg.Email.UsesPostmark() {
		log.WarnContext(ctx, "postmark not configured, writing emails to disk", "dir", cfg.Email.DevDir)
	}

	notifyOpts := []notify.Option{notify.WithLogger(log.With(logger.Component("notify")))}
	if cfg.Notify.CRMEnabled() {
		crm, err := notify.NewHubSpotClient(cfg.Notify.HubSpotToken, cfg.Notify.HubSpotBaseURL)
		if err != nil {
			return err
		}
		notifyOpts = append(notifyOpts, notify.WithCRM(crm))
	}
	notifier := notify.New(sender, cfg.Notify, notifyOpts...)

	svc, err := newBillingService(pool, log, billing.NewMetrics(reg), notifier)
	if err != nil {
		return err
	}

	verifier, err := jwt.NewVerifier(cfg.JWT)
	if err != nil {
		return err
	}
	modOpts := []billingmod.Option{billingmod.WithLogger(log)}

	if cfg.Xero.Enabled() {
		var states xero.StateStore
		if cfg.Redis.Enabled() {
			client, err := redis.Connect(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			checks["redis"] = redis.Healthcheck(client)
			states = xero.NewRedisStateStore(client)
		} else {
			log.WarnContext(ctx, "redis not configured, xero oauth state kept in memory")
			states = xero.NewMemoryStateStore(nil)
		}
		cipher, err := xero.NewTokenCipher(cfg.Xero.TokenKey)
		if err != nil {
			return err
		}
		connector := xero.NewConnector(cfg.Xero, states, xero.NewPostgresTokenStore(pool, cipher), log.With(logger.Component("xero")))
		modOpts = append(modOpts, billingmod.WithXero(connector, cfg.XeroReturnURL))
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 5*time.Second, checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/", billingmod.New(svc, verifier, modOpts...).Router())

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

// newBillingService wires the Postgres store, Stripe and the role cache.
// metrics and notifier may be nil.
func newBillingService(pool *pgxpool.Pool, log *slog.Logger, metrics *billing.Metrics, notifier billing.Notifier) (billing.Service, error) {
	var cfg billing.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	catalog, err := billing.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	provider, err := billing.NewStripeProvider(cfg.Stripe)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}

	store := billing.NewPostgresStore(pool)
	roles := billing.NewRoleChecker(store, cache.NewExpiring[string, string](cfg.RoleCacheSize, cfg.RoleCacheTTL))

	opts := append(cfg.Options(), billing.WithLogger(log.With(logger.Component("billing"))))
	if metrics != nil {
		opts = append(opts, billing.WithMetrics(metrics))
	}
	if notifier != nil {
		opts = append(opts, billing.WithNotifier(notifier))
	}
	return billing.NewService(provider, store, roles, catalog, opts...), nil
}
