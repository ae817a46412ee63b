// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"alcoholdb/internal/metrics"
)

func TestRecoverer(t *testing.T) {
	panics := []struct {
		name  string
		value any
	}{
		{"string", "nil map write in aggregator"},
		{"int", 42},
		{"error", errors.New("schema validator missing")},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.PanicsRecovered)

			handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/alcohols/x/reviews", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(rr.Body.String(), `"internal server error"`) {
				t.Errorf("body = %s", rr.Body.String())
			}
			if after := testutil.ToFloat64(metrics.PanicsRecovered); after != before+1 {
				t.Errorf("panics counter: got %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecovererAbortHandler(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("ErrAbortHandler should have been re-raised")
}

func TestRecovererPassThrough(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/api/alcohols/123")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"123"}`))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/alcohols", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/api/alcohols/123" {
		t.Errorf("Location = %q", got)
	}
	if rr.Body.String() != `{"id":"123"}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}
