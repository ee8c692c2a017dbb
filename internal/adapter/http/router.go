package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportService is the report use-case layer the handlers call into.
type ReportService interface {
	List(ctx context.Context) ([]domain.PollutionReport, error)
	Get(ctx context.Context, id int64) (domain.PollutionReport, error)
	Create(ctx context.Context, input map[string]any) (domain.PollutionReport, error)
	Update(ctx context.Context, id int64, input map[string]any) (domain.PollutionReport, error)
	Delete(ctx context.Context, id int64) error
}

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Reports ReportService
	Ready   sharedobs.ReadinessChecker
	// Geocoder backs /api/locations/reverse. Nil answers 503.
	Geocoder domain.Geocoder
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// NewRouter builds the report API plus health, readiness, and metrics routes.
func NewRouter(cfg RouterConfig) *mux.Router {
	h := &handler{
		reports:  cfg.Reports,
		geocoder: cfg.Geocoder,
		logger:   cfg.Logger,
	}

	middlewares := []mux.MiddlewareFunc{
		requestIDMiddleware,
		loggingMiddleware(cfg.Logger),
		metricsMiddleware(cfg.Metrics),
		recoveryMiddleware(cfg.Logger),
	}

	r := mux.NewRouter()
	r.Use(middlewares...)
	// mux only runs Use middleware on matched routes.
	r.NotFoundHandler = chain(messageHandler(http.StatusNotFound, msgRouteNotFound), middlewares)
	r.MethodNotAllowedHandler = chain(messageHandler(http.StatusMethodNotAllowed, msgMethodNotAllowed), middlewares)

	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(cfg.Ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/reports", h.listReports).Methods(http.MethodGet)
	api.HandleFunc("/reports", h.createReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/{id}", h.getReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", h.updateReport).Methods(http.MethodPatch)
	api.HandleFunc("/reports/{id}", h.deleteReport).Methods(http.MethodDelete)
	api.HandleFunc("/locations/reverse", h.reverseLocation).Methods(http.MethodGet)

	return r
}

func chain(h http.Handler, middlewares []mux.MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func messageHandler(status int, msg string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sharedobs.WriteJSON(w, status, messageResponse{Message: msg})
	})
}
