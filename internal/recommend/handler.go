package recommend

import (
	"net/http"

	"recommendation-service/internal/cache"
	"recommendation-service/internal/shared/httpx"
)

type Handler struct {
	svc   Service
	cache *cache.Cache
}

func NewHandler(svc Service, c *cache.Cache) *Handler {
	return &Handler{svc: svc, cache: c}
}

func configFromQuery(r *http.Request) Config {
	conf := DefaultConfig()
	if alg := Algorithm(r.URL.Query().Get("algorithm")); alg.Valid() {
		conf.Algorithm = alg
	}
	conf.TimeWeight = httpx.QueryFloat(r, "time_weight", conf.TimeWeight)
	conf.RelationshipWeight = httpx.QueryFloat(r, "relationship_weight", conf.RelationshipWeight)
	conf.EngagementWeight = httpx.QueryFloat(r, "engagement_weight", conf.EngagementWeight)
	conf.DiversityFactor = httpx.QueryFloat(r, "diversity_factor", conf.DiversityFactor)
	conf.ExcludeViewed = httpx.QueryBool(r, "exclude_viewed", conf.ExcludeViewed)
	conf.MaxAgeHours = httpx.QueryInt(r, "max_age_hours", conf.MaxAgeHours)
	return conf
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func writeFeed(w http.ResponseWriter, res *Result, page, limit int) {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (res.Total + int64(limit) - 1) / int64(limit)
	}
	httpx.WriteJSON(w, map[string]any{
		"posts": res.Posts,
		"pagination": pagination{
			Page:       page,
			Limit:      limit,
			Total:      res.Total,
			TotalPages: totalPages,
		},
	}, http.StatusOK)
}

// GetRecommendations serves the personalized feed: cache first, engine
// on miss, result stored back for the algorithm's TTL window.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserIDFromCtx(r)
	if err != nil {
		return err
	}
	page := httpx.QueryInt(r, "page", 1)
	limit := httpx.QueryInt(r, "limit", defaultLimit)
	conf := configFromQuery(r)

	if e, ok := h.cache.Get(uid, string(conf.Algorithm), page, limit, conf); ok {
		if res, ok := e.Data.(*Result); ok {
			writeFeed(w, res, page, limit)
			return nil
		}
	}

	res, err := h.svc.GetRecommendedPosts(r.Context(), uid, page, limit, &conf)
	if err != nil {
		return err
	}
	res.Posts = h.svc.AdjustScoresByUserBehavior(r.Context(), uid, res.Posts)

	h.cache.Set(uid, string(conf.Algorithm), page, limit, res, res.Total, conf)
	writeFeed(w, res, page, limit)
	return nil
}

// Refresh drops the caller's cached pages so the next request
// recomputes against the current graph and view history.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserIDFromCtx(r)
	if err != nil {
		return err
	}
	removed := h.cache.InvalidateUser(uid)
	httpx.WriteJSON(w, map[string]any{"removed": removed}, http.StatusOK)
	return nil
}
