package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/patients"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// Handler serves the /admin routes. Callers mount it behind admin auth.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/patients", h.SearchPatients)
	r.Get("/appointments/export", h.ExportAppointments)
	r.Patch("/appointments/{appointmentID}/status", h.UpdateStatus)
}

// GetDashboard handles GET /admin/dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("dashboard: snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// UpdateStatus handles PATCH /admin/appointments/{appointmentID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.service.UpdateStatus(r.Context(), id, body.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, snap)
	case errors.Is(err, appointments.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, appointments.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("dashboard: status update failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// SearchPatients handles GET /admin/patients?search=&limit=&offset=.
func (h *Handler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	list, err := h.service.SearchPatients(r.Context(), patients.ListFilter{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("dashboard: patient search failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": list, "count": len(list)})
}

// ExportAppointments handles GET /admin/appointments/export?status=pending,confirmed&archive=true.
func (h *Handler) ExportAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var statuses []appointments.Status
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := appointments.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			statuses = append(statuses, st)
		}
	}
	upload, _ := strconv.ParseBool(q.Get("archive"))

	export, err := h.service.ExportAppointments(r.Context(), statuses, upload)
	if err != nil {
		h.logger.Error("dashboard: export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	if export.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", export.ArchiveKey)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
