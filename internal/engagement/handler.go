package engagement

import (
	"errors"
	"net/http"
	"strconv"

	"recommendation-service/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(s Service) *Handler { return &Handler{svc: s} }

// Public: current engagement summary for a post (computed on first request).
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(r.PathValue("post_id"), 10, 64)
	if err != nil {
		return errors.New("invalid post_id")
	}
	summary, err := h.svc.Summary(r.Context(), uint(id))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, summary, http.StatusOK)
	return nil
}

// Admin: batch-refresh stale summaries.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) error {
	olderThan := httpx.QueryInt(r, "older_than_hours", defaultStaleHours)
	batchSize := httpx.QueryInt(r, "batch_size", defaultBatchSize)
	updated, err := h.svc.BatchUpdateAll(r.Context(), olderThan, batchSize)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, map[string]any{"updated": updated}, http.StatusOK)
	return nil
}

// Admin: drop summaries past the retention window.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) error {
	days := httpx.QueryInt(r, "days", defaultRetentionDays)
	removed, err := h.svc.CleanupOldSummaries(r.Context(), days)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, map[string]any{"removed": removed}, http.StatusOK)
	return nil
}
