package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kf "github.com/segmentio/kafka-go"

	"recommendation-service/internal/cache"
	"recommendation-service/internal/engagement"
)

// Event is one interaction published by the collaborating services.
type Event struct {
	Type         string    `json:"type"`
	PostID       uint      `json:"post_id"`
	UserID       uint      `json:"user_id"`
	TargetUserID uint      `json:"target_user_id"`
	IP           string    `json:"ip"`
	Duration     float64   `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
}

type Handler struct {
	eng   engagement.Service
	cache *cache.Cache
	log   zerolog.Logger
}

func NewHandler(eng engagement.Service, c *cache.Cache, log zerolog.Logger) *Handler {
	return &Handler{eng: eng, cache: c, log: log.With().Str("component", "events").Logger()}
}

func (h *Handler) Handle(ctx context.Context, ev Event) error {
	switch ev.Type {
	case "view":
		ip := ev.IP
		if ip == "" && ev.UserID == 0 {
			// No viewer identity at all; synthesize one so the row
			// still satisfies the (post, user, ip) uniqueness.
			ip = "anon-" + uuid.NewString()
		}
		return h.eng.RecordView(ctx, &engagement.PostView{
			PostID:    ev.PostID,
			UserID:    ev.UserID,
			IP:        ip,
			Duration:  ev.Duration,
			CreatedAt: ev.CreatedAt,
		})
	case "follow", "block":
		// Recommendation-relevant graph change: both sides' cached
		// pages are stale now.
		h.cache.InvalidateUser(ev.UserID)
		if ev.TargetUserID != 0 {
			h.cache.InvalidateUser(ev.TargetUserID)
		}
		return nil
	case "like", "comment", "share", "bookmark":
		// Summaries pick these up on the next batch pass; staleness is
		// bounded by the cache TTL.
		return nil
	default:
		h.log.Debug().Str("type", ev.Type).Msg("unknown interaction event skipped")
		return nil
	}
}

// StartConsumer reads interaction events until the context is
// canceled. Bad payloads and handler failures are logged and skipped.
func StartConsumer(ctx context.Context, bootstrap, topic, groupID string, h *Handler) error {
	r := kf.NewReader(kf.ReaderConfig{
		Brokers:  strings.Split(bootstrap, ","),
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  2 * time.Second,
	})
	defer r.Close()

	h.log.Info().Str("topic", topic).Str("group", groupID).Msg("kafka consumer started")

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			h.log.Warn().Err(err).Msg("kafka: bad payload")
			continue
		}
		if err := h.Handle(ctx, ev); err != nil {
			h.log.Warn().Err(err).Str("type", ev.Type).Uint("post_id", ev.PostID).Msg("handle interaction event")
		}
	}
}
