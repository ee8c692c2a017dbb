// Package client talks to the report API over HTTP and holds the draft state
// of a report being composed before it is submitted.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
)

// APIError is a non-validation failure response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("report api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("report api: status %d: %s", e.StatusCode, e.Message)
}

// Client is a typed client for the report API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns every report.
func (c *Client) List(ctx context.Context) ([]domain.PollutionReport, error) {
	var out []domain.PollutionReport
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one report. A missing report yields domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id int64) (domain.PollutionReport, error) {
	var out domain.PollutionReport
	err := c.do(ctx, http.MethodGet, reportPath(id), nil, &out)
	return out, err
}

// Create submits a new report. Rejected input yields *domain.ValidationError.
func (c *Client) Create(ctx context.Context, fields map[string]any) (domain.PollutionReport, error) {
	var out domain.PollutionReport
	err := c.do(ctx, http.MethodPost, "/api/reports", fields, &out)
	return out, err
}

// Update applies a partial update to report id.
func (c *Client) Update(ctx context.Context, id int64, fields map[string]any) (domain.PollutionReport, error) {
	var out domain.PollutionReport
	err := c.do(ctx, http.MethodPatch, reportPath(id), fields, &out)
	return out, err
}

// Delete removes report id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, reportPath(id), nil, nil)
}

// ReverseGeocode asks the API to describe a map point.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (domain.Location, error) {
	q := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	var out domain.Location
	err := c.do(ctx, http.MethodGet, "/api/locations/reverse?"+q.Encode(), nil, &out)
	return out, err
}

func reportPath(id int64) string {
	return "/api/reports/" + strconv.FormatInt(id, 10)
}

type errorResponse struct {
	Message string             `json:"message"`
	Errors  []domain.Violation `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return decodeError(resp)
}

func decodeError(resp *http.Response) error {
	var payload errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &payload); err != nil {
		payload.Message = strings.TrimSpace(string(data))
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest && len(payload.Errors) > 0:
		return &domain.ValidationError{Violations: payload.Errors}
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
	}
}
