// Package billing implements the subscription and payment state machine of
// the survey product: Stripe hosted checkout, Stripe webhook handling,
// manually invoiced purchases approved by administrators, and a status
// query that reconciles local rows against Stripe.
//
// The Service is assembled from a Provider (Stripe), a Store (PostgreSQL or
// in-memory), a RoleChecker and the plan Catalog:
//
//	provider, _ := billing.NewStripeProvider(cfg.Stripe)
//	store := billing.NewPostgresStore(pool)
//	roles := billing.NewRoleChecker(store, cache.NewExpiring[string, string](1024, 5*time.Minute))
//	catalog, _ := billing.LoadCatalogFile(cfg.CatalogPath)
//	svc := billing.NewService(provider, store, roles, catalog,
//		billing.WithLogger(log),
//		billing.WithNotifier(notifier),
//	)
//
// Subscription resolution and payment recording for a completed checkout run
// in one transaction, and payments are unique by their Stripe reference, so
// webhook redelivery is safe. Notifications are best effort and never fail
// the operation that triggered them.
package billing
