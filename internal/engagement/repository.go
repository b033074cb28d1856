package engagement

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Views shorter than this are noise, not real views.
const minViewSeconds = 3.0

var ErrPostNotFound = errors.New("post not found")

// Counts are the raw per-post counters the score is derived from.
type Counts struct {
	TotalViews      int64
	UniqueViews     int64
	AvgViewDuration float64
	TotalLikes      int64
	TotalComments   int64
	TotalShares     int64
	TotalBookmarks  int64
}

type Repository interface {
	PostExists(ctx context.Context, postID uint) (bool, error)
	CountsForPost(ctx context.Context, postID uint) (Counts, error)
	UpsertSummary(ctx context.Context, s *InteractionSummary) error
	GetSummary(ctx context.Context, postID uint) (*InteractionSummary, error)
	StalePostIDs(ctx context.Context, olderThan time.Time, limit int) ([]uint, error)
	DeleteSummariesForPostsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	RecordView(ctx context.Context, v *PostView) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) PostExists(ctx context.Context, postID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("posts").Where("id = ?", postID).Count(&n).Error
	return n > 0, err
}

func (r *repository) CountsForPost(ctx context.Context, postID uint) (Counts, error) {
	var c Counts

	// Anonymous rows (user_id = 0) are distinct per ip.
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_views,
			COUNT(DISTINCT COALESCE(NULLIF(user_id, 0)::text, ip)) AS unique_views,
			COALESCE(AVG(duration), 0) AS avg_view_duration
		FROM post_views
		WHERE post_id = ? AND duration >= ?`,
		postID, minViewSeconds,
	).Scan(&c).Error
	if err != nil {
		return Counts{}, err
	}

	type pair struct {
		Table string
		Dst   *int64
	}
	for _, p := range []pair{
		{"post_likes", &c.TotalLikes},
		{"post_comments", &c.TotalComments},
		{"post_shares", &c.TotalShares},
		{"post_bookmarks", &c.TotalBookmarks},
	} {
		if err := r.db.WithContext(ctx).Table(p.Table).
			Where("post_id = ?", postID).Count(p.Dst).Error; err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}

func (r *repository) UpsertSummary(ctx context.Context, s *InteractionSummary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		UpdateAll: true,
	}).Create(s).Error
}

func (r *repository) GetSummary(ctx context.Context, postID uint) (*InteractionSummary, error) {
	var s InteractionSummary
	if err := r.db.WithContext(ctx).First(&s, "post_id = ?", postID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// StalePostIDs selects posts whose summary is missing or older than
// the cutoff, oldest summaries first.
func (r *repository) StalePostIDs(ctx context.Context, olderThan time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id
		FROM posts p
		LEFT JOIN interaction_summaries s ON s.post_id = p.id
		WHERE s.post_id IS NULL OR s.last_updated < ?
		ORDER BY s.last_updated ASC NULLS FIRST, p.id ASC
		LIMIT ?`,
		olderThan, limit,
	).Scan(&ids).Error
	return ids, err
}

func (r *repository) DeleteSummariesForPostsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM interaction_summaries s
		USING posts p
		WHERE s.post_id = p.id AND p.created_at < ?`,
		cutoff,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) RecordView(ctx context.Context, v *PostView) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "post_id"}, {Name: "user_id"}, {Name: "ip"}},
		DoUpdates: clause.Assignments(map[string]any{
			"duration": gorm.Expr("GREATEST(post_views.duration, EXCLUDED.duration)"),
		}),
	}).Create(v).Error
}
