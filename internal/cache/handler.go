package cache

import (
	"errors"
	"net/http"
	"strconv"

	"recommendation-service/internal/shared/httpx"
)

type Handler struct{ c *Cache }

func NewHandler(c *Cache) *Handler { return &Handler{c: c} }

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, h.c.Stats(), http.StatusOK)
	return nil
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, h.c.Analytics(), http.StatusOK)
	return nil
}

func (h *Handler) Maintenance(w http.ResponseWriter, r *http.Request) error {
	removed := h.c.Maintenance()
	httpx.WriteJSON(w, map[string]any{"expired_removed": removed}, http.StatusOK)
	return nil
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) error {
	h.c.Clear()
	httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	return nil
}

// Invalidate drops entries by user_id or algorithm, whichever the
// collaborator knows changed.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) error {
	if s := r.URL.Query().Get("user_id"); s != "" {
		uid, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return errors.New("invalid user_id")
		}
		removed := h.c.InvalidateUser(uint(uid))
		httpx.WriteJSON(w, map[string]any{"removed": removed}, http.StatusOK)
		return nil
	}
	if alg := r.URL.Query().Get("algorithm"); alg != "" {
		removed := h.c.InvalidateAlgorithm(alg)
		httpx.WriteJSON(w, map[string]any{"removed": removed}, http.StatusOK)
		return nil
	}
	return errors.New("user_id or algorithm required")
}
