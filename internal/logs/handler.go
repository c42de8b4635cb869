package logs

import (
	"log/slog"
	"net/http"

	"github.com/aiox-platform/roverchat/internal/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get handles GET /logs?earth_date=YYYY-MM-DD.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	earthDate := r.URL.Query().Get("earth_date")
	if earthDate == "" {
		api.HandleTextError(w, api.ErrInvalidRequest)
		return
	}

	entries, err := h.svc.ForDate(r.Context(), earthDate)
	if err != nil {
		slog.Error("building transaction log", "earth_date", earthDate, "error", err)
		api.HandleTextError(w, api.ErrInternalServer)
		return
	}

	slog.Debug("transaction log served", "earth_date", earthDate, "entries", len(entries))
	api.JSON(w, http.StatusOK, Response{Logs: entries})
}
