package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordAdmissions(t *testing.T) {
	m := NewMetrics()
	m.ObserveAdmission(OutcomeCreated, 5*time.Millisecond)
	m.ObserveAdmission(OutcomeCreated, 5*time.Millisecond)
	m.ObserveAdmission(OutcomeConflict, time.Millisecond)

	if got := testutil.ToFloat64(m.admissions.WithLabelValues(OutcomeCreated)); got != 2 {
		t.Fatalf("created: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.admissions.WithLabelValues(OutcomeConflict)); got != 1 {
		t.Fatalf("conflict: want=1 got=%v", got)
	}
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPIRequest("POST", "/payouts", 201, 10*time.Millisecond)
	m.ObserveOutboxPublish("ok", 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`http_requests_total{method="POST",route="/payouts",status="201"} 1`,
		`outbox_published_total{result="ok"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAdmission(OutcomeCreated, time.Second)
	m.ObserveAPIRequest("GET", "", 200, time.Second)
	m.IncInflight()
	m.DecInflight()
	m.ObserveOutboxPublish("ok", 1)
	m.SetOutboxBacklog(4)
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have no registry")
	}
}
