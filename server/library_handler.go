package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"AriaFM/logger"
)

// GetTracksHandler lists library tracks for the bespoke JSON API. An empty
// query returns the first page of the whole library.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	songs, err := h.songRepo.SearchSongs(r.Context(), query, limit)
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	username, _ := GetUsernameFromContext(r.Context())
	logger.Debug("Listed tracks",
		logger.String("username", username),
		logger.String("query", query),
		logger.Int("count", len(songs)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tracks": songs,
	})
}
