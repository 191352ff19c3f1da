package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/audioflow-service/internal/delivery/http/request"
	"github.com/user/audioflow-service/internal/delivery/http/response"
	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/usecase"
)

type Handler struct {
	audioManager usecase.AudioManager
}

func NewHandler(audioManager usecase.AudioManager) *Handler {
	return &Handler{
		audioManager: audioManager,
	}
}

func (h *Handler) HandleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	jobID, err := h.audioManager.Submit(r.Context(), req.Content, usecase.SubmitOptions{
		DebugMode:      req.DebugMode,
		MaxWaitMinutes: req.MaxWaitMinutes,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrContentTooShort) {
			h.writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		slog.Error("Failed to submit audio job", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SubmitAudioResponse{
		Status:  "success",
		Message: "Content queued for audio generation",
		JobID:   jobID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleSubmitFromCache(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitFromCacheRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	jobID, err := h.audioManager.SubmitFromCache(r.Context(), req.CacheKey, usecase.SubmitOptions{
		DebugMode:      req.DebugMode,
		MaxWaitMinutes: req.MaxWaitMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoCachedContent):
			h.writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, usecase.ErrContentTooShort):
			h.writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			slog.Error("Failed to submit cached content", "cache_key", req.CacheKey, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.SubmitAudioResponse{
		Status:  "success",
		Message: "Cached content queued for audio generation",
		JobID:   jobID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("id")
	if jobID == "" {
		h.writeJSONError(w, "id query parameter is required", http.StatusBadRequest)
		return
	}

	job, err := h.audioManager.GetStatus(r.Context(), jobID)
	if err != nil {
		slog.Error("Failed to get job status", "job_id", jobID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if job.Status == entity.JobStatusNotFound {
		h.writeJSONError(w, "No job found for the given id", http.StatusNotFound)
		return
	}

	resp := response.AudioJobResponse{
		JobID:         job.ID,
		Status:        job.Status,
		ContentLength: job.ContentLength,
		FailureStage:  string(job.FailureStage),
		FilePath:      job.FilePath,
		ElapsedMS:     job.ElapsedMS,
		ErrorMessage:  job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		resp.CreatedAt = &job.CreatedAt
	}
	if !job.UpdatedAt.IsZero() {
		resp.UpdatedAt = &job.UpdatedAt
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
