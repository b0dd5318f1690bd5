package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/imagetext/apiserver/internal/services"
	"github.com/imagetext/apiserver/types"
)

// StatsHandler serves usage statistics and exports.
type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// StatsRouter registers statistics routes. Every route requires authentication.
func StatsRouter(r chi.Router, statsService *services.StatsService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewStatsHandler(statsService)

	r.Use(authMiddleware)
	r.Get("/summary", handler.Summary)
	r.Get("/export", handler.Export)
	r.Get("/languages", handler.Languages)
}

// LanguagesResponse flags the breakdown as placeholder data.
type LanguagesResponse struct {
	Placeholder bool                  `json:"placeholder"`
	Languages   []types.LanguageCount `json:"languages"`
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.statsService.Summary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Export returns the snapshot as a JSON attachment. With ?archive=true the
// snapshot is also written to object storage and the key is returned in
// X-Archive-Key.
func (h *StatsHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	archive := false
	if raw := r.URL.Query().Get("archive"); raw != "" {
		archive, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid archive flag")
			return
		}
	}
	if archive && !h.statsService.CanArchive() {
		writeError(w, http.StatusNotImplemented, "export archiving is not configured")
		return
	}

	export, err := h.statsService.Export(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to export data")
		return
	}

	if archive {
		key, err := h.statsService.Archive(r.Context(), export)
		if err != nil {
			writeServiceError(w, r, err, "failed to archive export")
			return
		}
		w.Header().Set("X-Archive-Key", key)
	}

	filename := fmt.Sprintf("export_%d_%s.json", userID, export.Profile.ExportedAt.Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, export)
}

// Languages returns the fixed placeholder breakdown.
func (h *StatsHandler) Languages(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, LanguagesResponse{
		Placeholder: true,
		Languages:   h.statsService.LanguageBreakdown(r.Context(), userID),
	})
}
