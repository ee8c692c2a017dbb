package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidID          = "Invalid report ID"
	msgInvalidData        = "Invalid report data"
	msgNotFound           = "Report not found"
	msgInvalidCoordinates = "Invalid coordinates"
	msgGeocodingDisabled  = "Reverse geocoding is not enabled"
	msgMalformedBody      = "Malformed JSON body"
	msgRouteNotFound      = "Not found"
	msgMethodNotAllowed   = "Method not allowed"
)

type handler struct {
	reports  ReportService
	geocoder domain.Geocoder
	logger   *slog.Logger
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string             `json:"message"`
	Errors  []domain.Violation `json:"errors"`
}

func (h *handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch reports")
		return
	}
	if reports == nil {
		reports = []domain.PollutionReport{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, reports)
}

func (h *handler) getReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch report")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (h *handler) createReport(w http.ResponseWriter, r *http.Request) {
	input, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err, "Failed to create report")
		return
	}
	report, err := h.reports.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, "Failed to create report")
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, report)
}

func (h *handler) updateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	input, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err, "Failed to update report")
		return
	}
	report, err := h.reports.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, "Failed to update report")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (h *handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	if err := h.reports.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "Failed to delete report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) reverseLocation(w http.ResponseWriter, r *http.Request) {
	if h.geocoder == nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, messageResponse{Message: msgGeocodingDisabled})
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidCoordinates})
		return
	}

	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			sharedobs.WriteJSON(w, http.StatusBadRequest, validationResponse{Message: msgInvalidCoordinates, Errors: verr.Violations})
			return
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidCoordinates})
		return
	}

	loc := domain.DescribeLocation(r.Context(), lat, lng, h.geocoder, h.logger)
	sharedobs.WriteJSON(w, http.StatusOK, loc)
}

// writeError maps service errors to responses. Unexpected errors are logged
// and answered with the operation's generic message.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		sharedobs.WriteJSON(w, http.StatusBadRequest, validationResponse{Message: msgInvalidData, Errors: verr.Violations})
	case errors.Is(err, domain.ErrNotFound):
		sharedobs.WriteJSON(w, http.StatusNotFound, messageResponse{Message: msgNotFound})
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: failure})
	}
}

// reportID parses the {id} path variable as a base-10 integer, answering 400
// when it is not one.
func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidID})
		return 0, false
	}
	return id, true
}

// decodeObject reads the request body as a single JSON object. Anything but
// whitespace after the object is rejected.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, domain.NewBodyError(msgMalformedBody)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, domain.NewBodyError(msgMalformedBody)
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, domain.NewBodyTypeError(body)
	}
	return obj, nil
}
