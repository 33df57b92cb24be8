package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"clipstream/config"
	"clipstream/db"
	"clipstream/logger"
	"clipstream/metrics"
	"clipstream/model"
	"clipstream/repository"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	clipRepo repository.ClipRepository
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(clipRepo repository.ClipRepository, cfg *config.Config) *APIHandler {
	return &APIHandler{
		clipRepo: clipRepo,
		cfg:      cfg,
	}
}

// RegisterRoutes registers the API routes. /clips/popular must be
// registered before /clips/{id} so it is not captured as an id.
func (h *APIHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/clips", h.ListClipsHandler).Methods(http.MethodGet)
	router.HandleFunc("/clips", h.CreateClipHandler).Methods(http.MethodPost)
	router.HandleFunc("/clips/popular", h.PopularClipsHandler).Methods(http.MethodGet)
	router.HandleFunc("/clips/{id:[0-9]+}", h.GetClipHandler).Methods(http.MethodGet)
	router.HandleFunc("/clips/{id:[0-9]+}/stream", h.StreamClipHandler).Methods(http.MethodGet)
	router.HandleFunc("/clips/{id:[0-9]+}/stats", h.ClipStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.OverviewStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/admin/init-db", h.InitDBHandler).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func clipIDFromRequest(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["id"], 10, 64)
}

// ListClipsHandler returns all clips in creation order, optionally
// filtered by genre.
func (h *APIHandler) ListClipsHandler(w http.ResponseWriter, r *http.Request) {
	clips, err := h.clipRepo.GetAllClips(r.Context())
	if err != nil {
		logger.Error("Failed to list clips", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to retrieve clips")
		return
	}

	if genre := r.URL.Query().Get("genre"); genre != "" {
		filtered := make([]*model.Clip, 0, len(clips))
		for _, clip := range clips {
			if strings.EqualFold(clip.Genre, genre) {
				filtered = append(filtered, clip)
			}
		}
		clips = filtered
	}

	writeJSON(w, http.StatusOK, clips)
}

// CreateClipHandler creates a new clip after validating the request.
func (h *APIHandler) CreateClipHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected invalid clip", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	clip := req.Clip()
	id, err := h.clipRepo.CreateClip(r.Context(), clip)
	if err != nil {
		logger.Error("Failed to create clip", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to create clip")
		return
	}

	created, err := h.clipRepo.GetClipByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load created clip",
			logger.Int64("clipId", id),
			logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to load created clip")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetClipHandler returns a single clip by id.
func (h *APIHandler) GetClipHandler(w http.ResponseWriter, r *http.Request) {
	id, err := clipIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clip ID")
		return
	}

	clip, err := h.clipRepo.GetClipByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrClipNotFound) {
			writeError(w, http.StatusNotFound, "No such clip")
			return
		}
		logger.Error("Failed to get clip", logger.Int64("clipId", id), logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to retrieve clip")
		return
	}

	writeJSON(w, http.StatusOK, clip)
}

// ClipStatsHandler returns the play-count view of a clip.
func (h *APIHandler) ClipStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := clipIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clip ID")
		return
	}

	clip, err := h.clipRepo.GetClipByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrClipNotFound) {
			writeError(w, http.StatusNotFound, "No such clip")
			return
		}
		logger.Error("Failed to get clip stats", logger.Int64("clipId", id), logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to retrieve clip statistics")
		return
	}

	writeJSON(w, http.StatusOK, clip.Stats())
}

// PopularClipsHandler returns the top clips by play count.
func (h *APIHandler) PopularClipsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	clips, err := h.clipRepo.GetPopularClips(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to get popular clips", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to retrieve popular clips")
		return
	}

	writeJSON(w, http.StatusOK, clips)
}

// OverviewStatsHandler returns catalog-wide statistics.
func (h *APIHandler) OverviewStatsHandler(w http.ResponseWriter, r *http.Request) {
	clips, err := h.clipRepo.GetAllClips(r.Context())
	if err != nil {
		logger.Error("Failed to get overview stats", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to retrieve statistics")
		return
	}

	if len(clips) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"totalClips": 0,
			"totalPlays": 0,
			"genres":     []string{},
		})
		return
	}

	var totalPlays int64
	genreSet := make(map[string]struct{})
	mostPopular := clips[0]
	for _, clip := range clips {
		totalPlays += clip.PlayCount
		genreSet[clip.Genre] = struct{}{}
		if clip.PlayCount > mostPopular.PlayCount {
			mostPopular = clip
		}
	}
	genres := make([]string, 0, len(genreSet))
	for genre := range genreSet {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalClips": len(clips),
		"totalPlays": totalPlays,
		"genres":     genres,
		"mostPopularClip": map[string]interface{}{
			"id":    mostPopular.ID,
			"title": mostPopular.Title,
			"plays": mostPopular.PlayCount,
		},
	})
}

// HealthHandler reports liveness including store connectivity.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if db.DB != nil {
		if err := db.DB.PingContext(r.Context()); err != nil {
			logger.Error("Health check failed", logger.ErrorField(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "unhealthy",
				"database": "connection_failed",
			})
			return
		}
	}

	clipCount, err := h.clipRepo.CountClips(r.Context())
	if err != nil {
		logger.Error("Health check failed", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"database": "query_failed",
		})
		return
	}

	totalPlays, err := h.clipRepo.TotalPlayCount(r.Context())
	if err != nil {
		logger.Error("Health check failed", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"database": "query_failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"database":  "connected",
		"stats": map[string]int64{
			"totalClips": clipCount,
			"totalPlays": totalPlays,
		},
	})
}

// InitDBHandler seeds the database with the starter catalog. Idempotent:
// an already-populated table is left untouched.
func (h *APIHandler) InitDBHandler(w http.ResponseWriter, r *http.Request) {
	inserted, err := db.SeedClips()
	if err != nil {
		logger.Error("Database initialization failed", logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Database initialization failed")
		return
	}

	if inserted == 0 {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Database already initialized",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Database initialized successfully",
		"inserted": inserted,
	})
}
