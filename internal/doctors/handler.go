package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// ScheduleLister returns weekly hours for a doctor.
type ScheduleLister interface {
	Schedules(ctx context.Context, doctorID string) ([]Schedule, error)
}

// Handler serves the public doctor directory.
type Handler struct {
	directory Directory
	schedules ScheduleLister
	logger    *logging.Logger
}

// NewHandler creates a directory handler. schedules may be nil.
func NewHandler(directory Directory, schedules ScheduleLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{directory: directory, schedules: schedules, logger: logger}
}

// RegisterRoutes mounts the directory under a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/doctors", h.list)
	r.Get("/doctors/{doctorID}", h.get)
}

// list falls back to the built-in directory so the booking page stays usable.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.ListAvailable(r.Context())
	fallback := false
	if err != nil {
		h.logger.Error("doctors handler: list available", "error", err)
		list = Fallback()
		fallback = true
	}
	if list == nil {
		list = []SafeDoctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctors":  list,
		"count":    len(list),
		"fallback": fallback,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	doc, err := h.directory.GetSafe(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("doctors handler: get", "doctor_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	profile := Profile{SafeDoctor: *doc, Schedules: []Schedule{}}
	if h.schedules != nil {
		schedules, err := h.schedules.Schedules(r.Context(), id)
		if err != nil {
			h.logger.Warn("doctors handler: schedules unavailable", "doctor_id", id, "error", err)
		} else if schedules != nil {
			profile.Schedules = schedules
		}
	}
	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
