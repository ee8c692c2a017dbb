package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/marine-pollution-reports/internal/adapter/http"
	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	"github.com/couchcryptid/marine-pollution-reports/internal/reports"
	"github.com/couchcryptid/marine-pollution-reports/internal/store/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.May, 1, 17, 30, 0, 0, time.UTC)

type fixedGeocoder struct{}

func (fixedGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{PlaceName: "Venice Beach", FormattedAddress: "Venice Beach, Los Angeles, California"}, nil
}

// newTestAPI serves the real router over an in-memory store.
func newTestAPI(t *testing.T) (*Client, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := observability.NewMetricsForTesting()
	svc := reports.New(memory.New(clock), nil, clock, logger, m, time.Second)

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Reports:  svc,
		Ready:    svc,
		Geocoder: fixedGeocoder{},
		Metrics:  m,
		Logger:   logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client())), clock
}

func validFields() map[string]any {
	return map[string]any{
		"latitude":      33.985,
		"longitude":     -118.4695,
		"pollutionType": "plastic",
		"severity":      "moderate",
		"description":   "Plastic bags tangled in kelp",
		"dateObserved":  "2024-05-01",
		"name":          "Ana",
	}
}

func TestClient_CRUDRoundTrip(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := c.Create(ctx, validFields())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, created.CreatedAt.Equal(testNow))
	require.NotNil(t, created.Name)
	assert.Equal(t, "Ana", *created.Name)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("Get mismatch (-created +got):\n%s", diff)
	}

	updated, err := c.Update(ctx, created.ID, map[string]any{"severity": "critical"})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityCritical, updated.Severity)
	assert.Equal(t, created.Description, updated.Description)

	require.NoError(t, c.Delete(ctx, created.ID))
	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestClient_ValidationErrorDecoded(t *testing.T) {
	c, _ := newTestAPI(t)

	fields := validFields()
	fields["email"] = "nope"
	_, err := c.Create(context.Background(), fields)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.Violation{{Path: []string{"email"}, Message: "Invalid email address"}}, verr.Violations)
}

func TestClient_APIErrorForBadID(t *testing.T) {
	c, _ := newTestAPI(t)

	// A raw request with a non-numeric id, bypassing reportPath.
	err := c.do(context.Background(), http.MethodGet, "/api/reports/abc", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid report ID", apiErr.Message)
}

func TestClient_ReverseGeocode(t *testing.T) {
	c, _ := newTestAPI(t)

	loc, err := c.ReverseGeocode(context.Background(), 33.985, -118.4695)
	require.NoError(t, err)
	assert.Equal(t, domain.LocationSourceReverse, loc.Source)
	assert.Equal(t, "Venice Beach", loc.PlaceName)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Failed to fetch reports"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "report api: status 500: Failed to fetch reports", apiErr.Error())
}
