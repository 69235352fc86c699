package notify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medibook/clinic-booking/pkg/logging"
)

// Handler exposes a Notifier as the send-appointment-notification function.
type Handler struct {
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler wraps notifier in an HTTP handler.
func NewHandler(notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{notifier: notifier, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers preflight requests and dispatches POSTed notifications.
// Any failure is reported as 500 with the error message.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, req, errors.New("invalid request body: "+err.Error()))
		return
	}

	res, err := h.notifier.Notify(r.Context(), req)
	if err != nil {
		h.respondError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) respondError(w http.ResponseWriter, req Request, err error) {
	h.logger.Error("notification function failed", "type", req.Type, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
