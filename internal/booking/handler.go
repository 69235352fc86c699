package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// Handler exposes the booking flow over HTTP.
type Handler struct {
	service  *Service
	logger   *logging.Logger
	location *time.Location
}

// NewHandler creates a booking handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	loc := time.UTC
	if service != nil && service.location != nil {
		loc = service.location
	}
	return &Handler{service: service, logger: logger, location: loc}
}

// RegisterRoutes mounts the booking endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/appointments", h.SubmitBooking)
	r.Get("/appointments/slots", h.Slots)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// SubmitBooking handles POST /appointments.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	result, err := h.service.SubmitBookingByDoctorID(r.Context(), form)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Fields: verr.Fields})
		case errors.Is(err, ErrDoctorRequired):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		default:
			h.logger.Error("booking handler: submit failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Slots handles GET /appointments/slots.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BookableWindow(time.Now(), h.location))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
