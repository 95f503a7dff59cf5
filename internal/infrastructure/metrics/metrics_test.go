package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/cashdesk/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)
	m.DealCreated(domain.DealTypeBuy)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecorderCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReconciliationClassified(domain.ReconShort)
	m.ReconciliationClassified(domain.ReconShort)
	m.ReconciliationClassified(domain.ReconTallied)
	m.DealCreated(domain.DealTypeSell)
	m.DealStatusChanged("Completed")
	m.CustomersDeactivated(3)
	m.CustomersDeactivated(0)
	m.OTPSent()
	m.ReportGenerated("deals", domain.ReportPDF)
	m.RateLimited("/api/v1/auth/login")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"short", testutil.ToFloat64(m.Reconciliations.WithLabelValues(string(domain.ReconShort))), 2},
		{"tallied", testutil.ToFloat64(m.Reconciliations.WithLabelValues(string(domain.ReconTallied))), 1},
		{"sell deals", testutil.ToFloat64(m.DealsCreated.WithLabelValues(string(domain.DealTypeSell))), 1},
		{"completed", testutil.ToFloat64(m.DealStatusChanges.WithLabelValues("Completed")), 1},
		{"inactive", testutil.ToFloat64(m.CustomersInactive), 3},
		{"otp", testutil.ToFloat64(m.OTPCodes), 1},
		{"pdf", testutil.ToFloat64(m.Reports.WithLabelValues("deals", "pdf")), 1},
		{"rate limited", testutil.ToFloat64(m.RateLimitHits.WithLabelValues("/api/v1/auth/login")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}
