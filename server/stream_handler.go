package server

import (
	"errors"
	"net/http"
	"strings"

	"clipstream/logger"
	"clipstream/metrics"
	"clipstream/repository"
	"clipstream/storage"
)

// StreamClipHandler serves the audio for a clip and counts the play.
//
// The increment happens only after the clip is resolved and, for
// object-store sources, the object has been confirmed reachable, so failed
// playback does not inflate counts. It is attempted exactly once per
// request; a failed increment is surfaced as an error, never swallowed.
func (h *APIHandler) StreamClipHandler(w http.ResponseWriter, r *http.Request) {
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
		logger.Error("Failed to resolve clip for streaming",
			logger.Int64("clipId", id),
			logger.ErrorField(err))
		metrics.RecordStoreError()
		writeError(w, http.StatusInternalServerError, "Failed to stream clip")
		return
	}

	if clip.HasRemoteSource() {
		newCount, err := h.clipRepo.IncrementPlayCount(r.Context(), id)
		if err != nil {
			h.handleIncrementError(w, id, err)
			return
		}
		metrics.RecordClipStream(id)

		logger.Info("Streaming clip via redirect",
			logger.Int64("clipId", id),
			logger.String("title", clip.Title),
			logger.Int64("playCount", newCount))
		http.Redirect(w, r, clip.AudioURL, http.StatusFound)
		return
	}

	// Object-store source: confirm the object exists before counting.
	objectPath := strings.TrimPrefix(clip.AudioURL, "/")
	if _, err := storage.StatAudioObject(r.Context(), h.cfg.MinioBucket, objectPath); err != nil {
		logger.Error("Audio source unreachable",
			logger.Int64("clipId", id),
			logger.String("objectPath", objectPath),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Audio source unreachable")
		return
	}

	newCount, err := h.clipRepo.IncrementPlayCount(r.Context(), id)
	if err != nil {
		h.handleIncrementError(w, id, err)
		return
	}
	metrics.RecordClipStream(id)

	logger.Info("Streaming clip from object store",
		logger.Int64("clipId", id),
		logger.String("title", clip.Title),
		logger.Int64("playCount", newCount))

	if err := storage.ServeAudioObject(r.Context(), w, h.cfg.MinioBucket, objectPath); err != nil {
		// Headers are likely already written; the play was served in part
		// and the completed increment stands.
		logger.Error("Error serving audio object",
			logger.Int64("clipId", id),
			logger.ErrorField(err))
	}
}

func (h *APIHandler) handleIncrementError(w http.ResponseWriter, id int64, err error) {
	if errors.Is(err, repository.ErrClipNotFound) {
		// Clip was resolved a moment ago; treat a vanished row as NotFound.
		writeError(w, http.StatusNotFound, "No such clip")
		return
	}
	logger.Error("Failed to record play",
		logger.Int64("clipId", id),
		logger.ErrorField(err))
	metrics.RecordStoreError()
	writeError(w, http.StatusInternalServerError, "Failed to record play")
}
