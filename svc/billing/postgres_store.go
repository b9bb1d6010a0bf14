package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/staffpulse/billing/pkg/pg"
)

const subscriptionColumns = `id, user_id, plan_type, purchase_type, status, payment_method,
	COALESCE(stripe_subscription_id, ''), start_date, end_date, created_at, updated_at`

const paymentColumns = `id, subscription_id, amount::text, currency, payment_method,
	COALESCE(stripe_payment_id, ''), status, COALESCE(invoice_number, ''),
	school_name, address, contact_name, contact_email, created_at, updated_at`

// PostgresStore implements Store and RoleStore on PostgreSQL.
type PostgresStore struct {
	db pg.Querier
	tx pg.TxBeginner
}

// NewPostgresStore panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("billing: postgres pool is required")
	}
	return &PostgresStore{db: pool, tx: pool}
}

// WithTx nests as a savepoint when the store is already transactional.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return pg.InTx(ctx, s.tx, func(tx pgx.Tx) error {
		return fn(&PostgresStore{db: tx, tx: tx})
	})
}

// LockCheckout takes a transaction-scoped advisory lock keyed on the pair.
// Outside a transaction the lock is released as soon as the statement ends.
func (s *PostgresStore) LockCheckout(ctx context.Context, userID string, plan PlanType) error {
	_, err := s.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`, userID, string(plan))
	return err
}

func (s *PostgresStore) InsertSubscription(ctx context.Context, sub *Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = time.Now()
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_type, purchase_type, status, payment_method,
			stripe_subscription_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
		RETURNING created_at, updated_at`,
		sub.ID, sub.UserID, sub.PlanType, sub.PurchaseType, sub.Status, sub.PaymentMethod,
		sub.StripeSubscriptionID, sub.StartDate, sub.EndDate,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
}

func (s *PostgresStore) FindReusablePending(ctx context.Context, userID string, plan PlanType, purchase PurchaseType, method PaymentMethod, since time.Time) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND plan_type = $2 AND purchase_type = $3 AND payment_method = $4
			AND status = 'pending' AND created_at >= $5
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, plan, purchase, method, since))
}

func (s *PostgresStore) ActivateLatestPending(ctx context.Context, userID string, plan PlanType, method PaymentMethod, a Activation) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		UPDATE subscriptions
		SET status = 'active', start_date = $4, end_date = $5,
			stripe_subscription_id = COALESCE(NULLIF($6, ''), stripe_subscription_id),
			updated_at = now()
		WHERE id = (
			SELECT id FROM subscriptions
			WHERE user_id = $1 AND plan_type = $2 AND payment_method = $3 AND status = 'pending'
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING `+subscriptionColumns,
		userID, plan, method, a.At, a.End, a.StripeSubscriptionID))
}

func (s *PostgresStore) FindLatestSubscription(ctx context.Context, userID string, plan PlanType, method PaymentMethod) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND plan_type = $2 AND payment_method = $3
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`,
		userID, plan, method))
}

func (s *PostgresStore) ForceActivate(ctx context.Context, id uuid.UUID, a Activation) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		UPDATE subscriptions
		SET status = 'active', start_date = $2, end_date = $3,
			stripe_subscription_id = COALESCE(NULLIF($4, ''), stripe_subscription_id),
			updated_at = now()
		WHERE id = $1
		RETURNING `+subscriptionColumns,
		id, a.At, a.End, a.StripeSubscriptionID))
}

func (s *PostgresStore) SetStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status Status, end *time.Time) (int64, error) {
	if stripeSubscriptionID == "" {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE subscriptions
		SET status = $2, end_date = COALESCE($3::timestamptz, end_date), updated_at = now()
		WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID, status, end)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ActiveSubscription(ctx context.Context, userID string, now time.Time) (*Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND (end_date IS NULL OR end_date > $2)
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, now))
}

func (s *PostgresStore) CancelStalePending(ctx context.Context, method PaymentMethod, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE subscriptions SET status = 'canceled', updated_at = now()
		WHERE status = 'pending' AND payment_method = $1 AND created_at < $2`,
		method, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertPayment skips the row on an external id conflict instead of failing,
// so a duplicate delivery does not abort the surrounding transaction.
func (s *PostgresStore) InsertPayment(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO payments (id, subscription_id, amount, currency, payment_method, stripe_payment_id,
			status, invoice_number, school_name, address, contact_name, contact_email)
		VALUES ($1, $2, $3::numeric, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10, $11, $12)
		ON CONFLICT (stripe_payment_id) WHERE stripe_payment_id IS NOT NULL DO NOTHING
		RETURNING created_at, updated_at`,
		p.ID, p.SubscriptionID, p.Amount.String(), p.Currency, p.PaymentMethod, p.StripePaymentID,
		p.Status, p.InvoiceNumber, p.Billing.SchoolName, p.Billing.Address,
		p.Billing.ContactName, p.Billing.ContactEmail,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case pg.IsNotFoundError(err), pg.IsDuplicateKeyError(err):
		return ErrDuplicatePayment
	case pg.IsForeignKeyViolationError(err):
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func (s *PostgresStore) PaymentExists(ctx context.Context, stripePaymentID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE stripe_payment_id = $1)`, stripePaymentID,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(s.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, invoiceNumber *string) (*Payment, error) {
	return scanPayment(s.db.QueryRow(ctx, `
		UPDATE payments
		SET status = $2, invoice_number = COALESCE($3::text, invoice_number), updated_at = now()
		WHERE id = $1
		RETURNING `+paymentColumns,
		id, status, invoiceNumber))
}

// UserRole returns the user's role, preferring admin when several exist.
func (s *PostgresStore) UserRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `
		SELECT role FROM user_roles
		WHERE user_id = $1
		ORDER BY (role = 'admin') DESC, role
		LIMIT 1`, userID,
	).Scan(&role)
	if pg.IsNotFoundError(err) {
		return "", nil
	}
	return role, err
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanType, &sub.PurchaseType, &sub.Status, &sub.PaymentMethod,
		&sub.StripeSubscriptionID, &sub.StartDate, &sub.EndDate, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p      Payment
		amount string
	)
	err := row.Scan(
		&p.ID, &p.SubscriptionID, &amount, &p.Currency, &p.PaymentMethod,
		&p.StripePaymentID, &p.Status, &p.InvoiceNumber,
		&p.Billing.SchoolName, &p.Billing.Address, &p.Billing.ContactName, &p.Billing.ContactEmail,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &p, nil
}
