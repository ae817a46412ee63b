package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/alcohols/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/alcohols/{id}", "418"))
	req := httptest.NewRequest(http.MethodGet, "/api/alcohols/123", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/alcohols/{id}", "418"))

	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordValidatorRebuild(t *testing.T) {
	before := testutil.ToFloat64(ValidatorRebuilds.WithLabelValues("ok"))
	RecordValidatorRebuild("ok")
	if got := testutil.ToFloat64(ValidatorRebuilds.WithLabelValues("ok")); got-before != 1 {
		t.Errorf("delta = %v, want 1", got-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordValidatorRebuild("ok")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "catalogue_validator_rebuilds_total") {
		t.Error("expected catalogue_validator_rebuilds_total in output")
	}
}
