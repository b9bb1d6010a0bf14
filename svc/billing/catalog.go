package billing

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog string

// Plan is one catalog entry.
type Plan struct {
	Type          PlanType
	Name          string
	InvoiceAmount decimal.Decimal
	Prices        map[PurchaseType]string
}

// Catalog maps plans to provider price ids and invoice amounts.
type Catalog struct {
	currency     string
	defaultPrice string
	plans        map[PlanType]Plan
}

type catalogFile struct {
	Currency     string                 `yaml:"currency"`
	DefaultPrice string                 `yaml:"default_price"`
	Plans        map[string]catalogPlan `yaml:"plans"`
}

type catalogPlan struct {
	Name          string            `yaml:"name"`
	InvoiceAmount string            `yaml:"invoice_amount"`
	Prices        map[string]string `yaml:"prices"`
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from path. An empty path yields the
// default catalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	c := &Catalog{
		currency:     strings.ToUpper(strings.TrimSpace(raw.Currency)),
		defaultPrice: strings.TrimSpace(raw.DefaultPrice),
		plans:        make(map[PlanType]Plan, len(raw.Plans)),
	}
	if c.currency == "" {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("currency is required"))
	}
	if c.defaultPrice == "" {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("default_price is required"))
	}

	for key, p := range raw.Plans {
		pt := PlanType(key)
		if !slices.Contains(PlanTypes, pt) {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("unknown plan %q", key))
		}
		amount, err := decimal.NewFromString(p.InvoiceAmount)
		if err != nil || !amount.IsPositive() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q: invoice_amount must be a positive number", key))
		}
		plan := Plan{
			Type:          pt,
			Name:          p.Name,
			InvoiceAmount: amount,
			Prices:        make(map[PurchaseType]string, len(p.Prices)),
		}
		for purchase, price := range p.Prices {
			pu := PurchaseType(purchase)
			if pu != PurchaseSubscription && pu != PurchaseOneTime {
				return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q: unknown purchase type %q", key, purchase))
			}
			if strings.TrimSpace(price) == "" {
				return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q: empty price for %q", key, purchase))
			}
			plan.Prices[pu] = strings.TrimSpace(price)
		}
		if plan.Name == "" {
			plan.Name = key
		}
		c.plans[pt] = plan
	}

	for _, pt := range PlanTypes {
		if _, ok := c.plans[pt]; !ok {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q is missing", pt))
		}
	}
	return c, nil
}

// Currency is the ISO 4217 code invoices are raised in.
func (c *Catalog) Currency() string { return c.currency }

// DefaultPriceID is used when a (plan, purchase) pair has no price.
func (c *Catalog) DefaultPriceID() string { return c.defaultPrice }

// Plan returns the catalog entry for pt.
func (c *Catalog) Plan(pt PlanType) (Plan, bool) {
	p, ok := c.plans[pt]
	return p, ok
}

// PriceID resolves the provider price for a plan and purchase type.
func (c *Catalog) PriceID(pt PlanType, purchase PurchaseType) (string, bool) {
	p, ok := c.plans[pt]
	if !ok {
		return "", false
	}
	price, ok := p.Prices[purchase]
	return price, ok
}

// InvoiceAmount is the flat amount charged for pt when paying by invoice.
func (c *Catalog) InvoiceAmount(pt PlanType) (decimal.Decimal, bool) {
	p, ok := c.plans[pt]
	if !ok {
		return decimal.Zero, false
	}
	return p.InvoiceAmount, true
}
