package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsMiddlewareLabelsByRoute(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/go/{section}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, p := range []string{"/go/shop", "/go/contact"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/go/{section}", "204"))
	require.Equal(t, 2.0, got)
}

func TestMetricsContactCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveDelivery("webhook", true, 20*time.Millisecond)
	m.ObserveDelivery("webhook", false, time.Second)
	m.ContactRejected("validation")
	m.MenuToggled()
	m.SectionSelected("shop", true)
	m.SectionSelected("nowhere", false)

	require.Equal(t, 1.0, testutil.ToFloat64(m.contactDeliveries.WithLabelValues("webhook", "delivered")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.contactDeliveries.WithLabelValues("webhook", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.contactRejected.WithLabelValues("validation")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.menuToggles))
	require.Equal(t, 1.0, testutil.ToFloat64(m.sectionSelections.WithLabelValues("unknown")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	require.True(t, strings.Contains(string(body), "suitcraft_contact_deliveries_total"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDelivery("log", true, 0)
	m.ContactRejected("rate_limited")
	m.MenuToggled()
	m.SectionSelected("home", true)
}

func TestLoggerContextRoundTrip(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
}
