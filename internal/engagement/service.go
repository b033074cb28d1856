package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultRetentionDays = 180
	defaultStaleHours    = 24
	defaultBatchSize     = 100
)

type Service interface {
	// UpdateSummary fully recomputes and upserts the summary for one
	// post. A post with zero interactions yields a zero-valued summary.
	UpdateSummary(ctx context.Context, postID uint) (*InteractionSummary, error)
	// Summary returns the persisted summary, computing it once if it
	// does not exist yet.
	Summary(ctx context.Context, postID uint) (*InteractionSummary, error)
	// Score returns the current engagement score for a post.
	Score(ctx context.Context, postID uint) (float64, error)
	// BatchUpdateAll recomputes summaries that are missing or older
	// than olderThanHours and returns the number of successful updates.
	BatchUpdateAll(ctx context.Context, olderThanHours, batchSize int) (int, error)
	// CleanupOldSummaries drops summaries for posts past the retention
	// window and returns the number of rows removed.
	CleanupOldSummaries(ctx context.Context, daysToKeep int) (int64, error)
	// RecordView upserts a raw view event, keeping the max duration.
	RecordView(ctx context.Context, v *PostView) error
}

type service struct {
	repo    Repository
	weights Weights
	log     zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo:    repo,
		weights: DefaultWeights,
		log:     log.With().Str("component", "engagement").Logger(),
	}
}

func (s *service) UpdateSummary(ctx context.Context, postID uint) (*InteractionSummary, error) {
	ok, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post %d: %w", postID, err)
	}
	if !ok {
		return nil, ErrPostNotFound
	}

	counts, err := s.repo.CountsForPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("count interactions for post %d: %w", postID, err)
	}

	summary := &InteractionSummary{
		PostID:          postID,
		TotalViews:      counts.TotalViews,
		UniqueViews:     counts.UniqueViews,
		TotalLikes:      counts.TotalLikes,
		TotalComments:   counts.TotalComments,
		TotalShares:     counts.TotalShares,
		TotalBookmarks:  counts.TotalBookmarks,
		AvgViewDuration: counts.AvgViewDuration,
		LastUpdated:     time.Now(),
	}
	summary.EngagementScore = ComputeScore(*summary, s.weights)

	if err := s.repo.UpsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("upsert summary for post %d: %w", postID, err)
	}
	return summary, nil
}

func (s *service) Summary(ctx context.Context, postID uint) (*InteractionSummary, error) {
	summary, err := s.repo.GetSummary(ctx, postID)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get summary for post %d: %w", postID, err)
	}
	// Self-healing read: compute the summary on first request.
	return s.UpdateSummary(ctx, postID)
}

func (s *service) Score(ctx context.Context, postID uint) (float64, error) {
	summary, err := s.Summary(ctx, postID)
	if err != nil {
		return 0, err
	}
	return summary.EngagementScore, nil
}

func (s *service) BatchUpdateAll(ctx context.Context, olderThanHours, batchSize int) (int, error) {
	if olderThanHours <= 0 {
		olderThanHours = defaultStaleHours
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	cutoff := time.Now().Add(-time.Duration(olderThanHours) * time.Hour)
	ids, err := s.repo.StalePostIDs(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("select stale posts: %w", err)
	}

	updated := 0
	for _, id := range ids {
		if _, err := s.UpdateSummary(ctx, id); err != nil {
			// One bad row must not abort the batch.
			s.log.Warn().Err(err).Uint("post_id", id).Msg("summary update skipped")
			continue
		}
		updated++
	}
	s.log.Info().Int("selected", len(ids)).Int("updated", updated).Msg("batch summary update finished")
	return updated, nil
}

func (s *service) CleanupOldSummaries(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		daysToKeep = defaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -daysToKeep)
	removed, err := s.repo.DeleteSummariesForPostsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup summaries: %w", err)
	}
	s.log.Info().Int64("removed", removed).Int("days_kept", daysToKeep).Msg("summary cleanup finished")
	return removed, nil
}

func (s *service) RecordView(ctx context.Context, v *PostView) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	return s.repo.RecordView(ctx, v)
}
