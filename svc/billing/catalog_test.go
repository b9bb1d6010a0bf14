package billing_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/svc/billing"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := billing.DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, "GBP", c.Currency())
	assert.NotEmpty(t, c.DefaultPriceID())

	for _, plan := range billing.PlanTypes {
		for _, purchase := range []billing.PurchaseType{billing.PurchaseSubscription, billing.PurchaseOneTime} {
			price, ok := c.PriceID(plan, purchase)
			assert.True(t, ok, "%s/%s", plan, purchase)
			assert.NotEmpty(t, price)
		}
		amount, ok := c.InvoiceAmount(plan)
		assert.True(t, ok)
		assert.True(t, amount.IsPositive())
	}

	_, ok := c.PriceID("enterprise", billing.PurchaseSubscription)
	assert.False(t, ok)
	_, ok = c.InvoiceAmount("enterprise")
	assert.False(t, ok)

	p, ok := c.Plan(billing.PlanPremium)
	require.True(t, ok)
	assert.Equal(t, "Premium", p.Name)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing currency": `
default_price: price_x
plans: {}`,
		"missing default price": `
currency: GBP
plans: {}`,
		"missing plan": `
currency: GBP
default_price: price_x
plans:
  foundation: {invoice_amount: "1", prices: {subscription: a}}
  progress: {invoice_amount: "1", prices: {subscription: b}}`,
		"unknown plan": `
currency: GBP
default_price: price_x
plans:
  enterprise: {invoice_amount: "1", prices: {subscription: a}}`,
		"non-positive amount": `
currency: GBP
default_price: price_x
plans:
  foundation: {invoice_amount: "0", prices: {subscription: a}}`,
		"unknown purchase type": `
currency: GBP
default_price: price_x
plans:
  foundation: {invoice_amount: "1", prices: {lifetime: a}}`,
		"unknown key": `
currency: GBP
default_price: price_x
discounts: true`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := billing.LoadCatalog(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t,
				errors.Is(err, billing.ErrInvalidCatalog) || errors.Is(err, billing.ErrFailedToLoadPlans),
				"unexpected error: %v", err)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	t.Parallel()

	c, err := billing.LoadCatalogFile("")
	require.NoError(t, err)
	assert.Equal(t, "GBP", c.Currency())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
currency: eur
default_price: price_default
plans:
  foundation: {name: Foundation, invoice_amount: "550.00", prices: {subscription: price_f}}
  progress: {name: Progress, invoice_amount: "1100.00", prices: {subscription: price_p}}
  premium: {name: Premium, invoice_amount: "2200.00", prices: {subscription: price_x}}
`), 0o600))

	c, err = billing.LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", c.Currency())
	amount, _ := c.InvoiceAmount(billing.PlanFoundation)
	assert.Equal(t, "550", amount.String())

	_, err = billing.LoadCatalogFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, billing.ErrFailedToLoadPlans)
}
