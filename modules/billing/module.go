package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/staffpulse/billing/handler"
	"github.com/staffpulse/billing/pkg/jwt"
	"github.com/staffpulse/billing/pkg/requestid"
	"github.com/staffpulse/billing/svc/billing"
	"github.com/staffpulse/billing/svc/xero"
)

// maxWebhookBody bounds Stripe event payloads.
const maxWebhookBody = 512 << 10

// Module exposes the billing service over JSON HTTP.
type Module struct {
	svc        billing.Service
	verifier   *jwt.Verifier
	xero       *xero.Connector
	xeroReturn string
	log        *slog.Logger
	errors     handler.ErrorHandler
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger used for error responses.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithXero enables the Xero connect routes. After a successful callback the
// browser is redirected to returnURL, or gets a JSON body when it is empty.
func WithXero(c *xero.Connector, returnURL string) Option {
	return func(m *Module) {
		m.xero = c
		m.xeroReturn = returnURL
	}
}

// New panics if svc or verifier is nil.
func New(svc billing.Service, verifier *jwt.Verifier, opts ...Option) *Module {
	if svc == nil {
		panic("billing module: service is required")
	}
	if verifier == nil {
		panic("billing module: jwt verifier is required")
	}
	m := &Module{
		svc:      svc,
		verifier: verifier,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.errors = handler.NewErrorHandler(m.log, mapError)
	return m
}

// Router returns the module's routes. The Stripe webhook and the Xero
// callback are reached without a bearer token; everything else requires one.
func (m *Module) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(cors)

	r.Post("/webhooks/stripe", handler.Wrap(m.stripeWebhook,
		handler.WithBinders[webhookRequest](bindWebhook(maxWebhookBody)),
		handler.WithErrorHandler[webhookRequest](m.errors),
	))
	r.Get("/integrations/xero/callback", handler.Wrap(m.xeroCallback,
		handler.WithBinders[xeroCallbackRequest](binderQuery),
		handler.WithErrorHandler[xeroCallbackRequest](m.errors),
	))

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(m.verifier, m.log))

		r.Post("/checkout", handler.Wrap(m.checkout,
			handler.WithBinders[billing.CheckoutRequest](binderJSON),
			handler.WithErrorHandler[billing.CheckoutRequest](m.errors),
		))
		r.Post("/invoices", handler.Wrap(m.invoices,
			handler.WithBinders[invoiceRequest](binderJSON),
			handler.WithErrorHandler[invoiceRequest](m.errors),
		))
		r.Get("/subscription/status", handler.Wrap(m.status,
			handler.WithErrorHandler[struct{}](m.errors),
		))
		r.Get("/integrations/xero/connect", handler.Wrap(m.xeroConnect,
			handler.WithErrorHandler[struct{}](m.errors),
		))
	})

	return r
}
