// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package moderation is the client for the hate-speech classification
// service that screens review text.
package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTimeout bounds one classification call.
const DefaultTimeout = 3 * time.Second

// Client calls POST {baseURL}/classify.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a classifier client. Returns nil when baseURL is empty so
// callers can skip screening entirely.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories"`
}

// Screen reports whether text is classified as hate speech.
func (c *Client) Screen(ctx context.Context, text string) (bool, error) {
	payload, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return false, fmt.Errorf("moderation marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("moderation http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, fmt.Errorf("moderation read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("moderation API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result classifyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false, fmt.Errorf("moderation unmarshal: %w", err)
	}
	return result.Flagged, nil
}
