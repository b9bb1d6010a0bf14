// Package pg bootstraps the Postgres connection pool used by the billing
// stores.
//
// Connect builds a *pgxpool.Pool from an env-tagged Config and retries the
// initial dial. Migrate runs goose migrations from an fs.FS, normally the
// embedded migrations package, so the binary carries its own schema:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//	    return err
//	}
//
// InTx wraps pgx.BeginFunc; Querier lets store code run against either the
// pool or an open transaction. The Is*Error helpers classify driver errors,
// most importantly unique violations which the payment store treats as
// idempotent replays.
package pg
