package billing

import "github.com/prometheus/client_golang/prometheus"

// Webhook outcomes recorded on billing_webhook_events_total.
const (
	outcomeProcessed = "processed"
	outcomeIgnored   = "ignored"
	outcomeDropped   = "dropped"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// Metrics holds the billing counters. A nil *Metrics records nothing.
type Metrics struct {
	webhookEvents *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	invoices      *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions created by plan and purchase type",
		}, []string{"plan", "purchase_type"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "invoice_transitions_total",
			Help:      "Invoice payment records by resulting status",
		}, []string{"status"}),
	}
	reg.MustRegister(m.webhookEvents, m.checkouts, m.invoices)
	return m
}

func (m *Metrics) webhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) checkout(plan PlanType, purchase PurchaseType) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(string(plan), string(purchase)).Inc()
}

func (m *Metrics) invoice(status PaymentStatus) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(string(status)).Inc()
}
