package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/cashdesk/internal/domain"
)

// Metrics holds the domain counters. It implements usecase.MetricsRecorder.
type Metrics struct {
	Reconciliations   *prometheus.CounterVec
	DealsCreated      *prometheus.CounterVec
	DealStatusChanges *prometheus.CounterVec
	CustomersInactive prometheus.Counter
	OTPCodes          prometheus.Counter
	Reports           *prometheus.CounterVec

	// Rate limiting
	RateLimitHits *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg means the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Reconciliations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashdesk_reconciliations_total",
				Help: "Reconciliations classified, by resulting status",
			},
			[]string{"status"},
		),
		DealsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashdesk_deals_created_total",
				Help: "Deals created, by deal type",
			},
			[]string{"deal_type"},
		),
		DealStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashdesk_deal_status_changes_total",
				Help: "Deal status transitions, by new status",
			},
			[]string{"status"},
		),
		CustomersInactive: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashdesk_customers_deactivated_total",
			Help: "Customers flagged inactive by the daily sweep",
		}),
		OTPCodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashdesk_otp_sent_total",
			Help: "One-time login codes issued",
		}),
		Reports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashdesk_reports_generated_total",
				Help: "Report exports, by kind and format",
			},
			[]string{"kind", "format"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashdesk_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) ReconciliationClassified(status domain.ReconciliationStatus) {
	m.Reconciliations.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) DealCreated(dealType domain.DealType) {
	m.DealsCreated.WithLabelValues(string(dealType)).Inc()
}

func (m *Metrics) DealStatusChanged(status string) {
	m.DealStatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) CustomersDeactivated(n int64) {
	if n > 0 {
		m.CustomersInactive.Add(float64(n))
	}
}

func (m *Metrics) OTPSent() {
	m.OTPCodes.Inc()
}

func (m *Metrics) ReportGenerated(kind string, format domain.ReportFormat) {
	m.Reports.WithLabelValues(kind, string(format)).Inc()
}

// RateLimited counts one rejected request on route.
func (m *Metrics) RateLimited(route string) {
	m.RateLimitHits.WithLabelValues(route).Inc()
}
