// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package recommend fetches per-user recommendations from the external
// recommendation service. Calls go through a circuit breaker and results
// are cached in Valkey.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/cache"
	"alcoholdb/internal/metrics"
)

const (
	// CacheTTL is how long a user's recommendations are reused.
	CacheTTL = 10 * time.Minute

	breakerName    = "recommendation-service"
	requestTimeout = 5 * time.Second
)

// ErrNotConfigured is returned when no service URL is set.
var ErrNotConfigured = errors.New("recommendation service not configured")

// Recommendation is one suggested alcohol.
type Recommendation struct {
	AlcoholID uuid.UUID `json:"alcohol_id"`
	Score     float64   `json:"score"`
}

type recommendationsResponse struct {
	Items []Recommendation `json:"items"`
}

// Client calls GET {baseURL}/recommendations/{userID}.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.JSONCache
	cb      *gobreaker.CircuitBreaker[[]Recommendation]
}

// New returns a client. c may be nil to disable caching.
func New(baseURL string, c *cache.JSONCache) *Client {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Recommendation](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		cache:   c,
		cb:      cb,
	}
}

// For returns the recommendations for userID. Any failure is reported as
// an upstream error.
func (c *Client) For(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	key := cache.RecommendationsKey(userID.String())
	if c.cache != nil {
		var cached []Recommendation
		if c.cache.Get(ctx, key, &cached) {
			metrics.RecommendationCacheHits.Inc()
			return cached, nil
		}
	}

	if c.baseURL == "" {
		return nil, apperr.Upstream("recommendation service", ErrNotConfigured)
	}

	recs, err := c.cb.Execute(func() ([]Recommendation, error) {
		return c.fetch(ctx, userID)
	})
	if err != nil {
		metrics.RecommendationFailures.Inc()
		slog.Warn("recommendation request failed", "user_id", userID, "error", err)
		return nil, apperr.Upstream("recommendation service", err)
	}

	if c.cache != nil {
		c.cache.SetTTL(ctx, key, recs, CacheTTL)
	}
	return recs, nil
}

func (c *Client) fetch(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	url := c.baseURL + "/recommendations/" + userID.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("recommend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommend http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("recommend read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommend API error (status %d)", resp.StatusCode)
	}

	var out recommendationsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("recommend unmarshal: %w", err)
	}
	if out.Items == nil {
		out.Items = []Recommendation{}
	}
	return out.Items, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
