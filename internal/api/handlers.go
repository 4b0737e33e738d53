package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fetchq/fetchq/internal/playlist"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	playlists *playlist.Generator
	logger    *slog.Logger
}

// NewHandlers creates the handler set. A nil logger discards diagnostics.
func NewHandlers(generator *playlist.Generator, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		playlists: generator,
		logger:    logger,
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "fetchq",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// GetPlaylist renders an HLS VOD playlist for a downloaded file.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	// The route parameter arrives escaped; decode it so the generator sees
	// the real file name.
	file, err := url.PathUnescape(chi.URLParam(r, "file"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	out, err := h.playlists.MakeStream(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, playlist.ErrInvalidPath):
			respondError(w, http.StatusBadRequest, "invalid file name")
		case errors.Is(err, fs.ErrNotExist):
			respondError(w, http.StatusNotFound, "file not found")
		default:
			h.logger.Error("playlist generation failed",
				slog.String("file", file), slog.Any("error", err))
			respondError(w, http.StatusInternalServerError, "playlist generation failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
