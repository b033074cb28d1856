package recommend

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// How many candidates a scoring pass works over at most. Scores are
// computed in application code, so the pool has to be wide enough to
// page into.
const candidatePoolLimit = 500

// Candidate is the raw row a scoring algorithm works on: the post, its
// author, and the aggregator's denormalized counters (zero when no
// summary exists yet).
type Candidate struct {
	PostID             uint
	AuthorID           uint
	AuthorName         string
	AuthorAvatar       string
	Content            string
	CreatedAt          time.Time
	EngagementScore    float64
	TotalLikes         int64
	TotalComments      int64
	TotalShares        int64
	TotalViews         int64
	RecentInteractions int64
}

// Repository issues reads against tables owned by collaborating
// services (posts, follows, likes, comments, hashtags) plus the
// aggregator's summaries. Candidates are restricted to public posts;
// relaxing that is a one-line change to the visibility predicate.
type Repository interface {
	CandidatePosts(ctx context.Context, viewerID uint, maxAgeHours int, excludeViewed bool) ([]Candidate, error)
	CountCandidates(ctx context.Context, viewerID uint, maxAgeHours int, excludeViewed bool) (int64, error)
	TrendingCandidates(ctx context.Context, viewerID uint) ([]Candidate, error)
	CountTrendingCandidates(ctx context.Context, viewerID uint) (int64, error)

	// Social graph reads; only accepted follows count.
	Followees(ctx context.Context, userID uint) ([]uint, error)
	SecondDegreeFollowees(ctx context.Context, userID uint) ([]uint, error)
	FrequentlyLikedAuthors(ctx context.Context, userID uint, minLikes int) ([]uint, error)

	HashtagsForPosts(ctx context.Context, postIDs []uint) (map[uint][]string, error)
	RecentEngagedHashtags(ctx context.Context, userID uint, recentLimit int) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

const candidateSelect = `
	SELECT
		p.id AS post_id,
		p.user_id AS author_id,
		u.nickname AS author_name,
		COALESCE(u.profile_image, '') AS author_avatar,
		p.content,
		p.created_at,
		COALESCE(s.engagement_score, 0) AS engagement_score,
		COALESCE(s.total_likes, 0) AS total_likes,
		COALESCE(s.total_comments, 0) AS total_comments,
		COALESCE(s.total_shares, 0) AS total_shares,
		COALESCE(s.total_views, 0) AS total_views
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN interaction_summaries s ON s.post_id = p.id`

const candidateWhere = `
	WHERE p.visibility = 'public'
	  AND p.user_id <> ?
	  AND p.created_at > ?`

const notViewedClause = `
	  AND NOT EXISTS (
		SELECT 1 FROM post_views v WHERE v.post_id = p.id AND v.user_id = ?
	  )`

func (r *repository) CandidatePosts(ctx context.Context, viewerID uint, maxAgeHours int, excludeViewed bool) ([]Candidate, error) {
	since := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)

	query := candidateSelect + candidateWhere
	args := []any{viewerID, since}
	if excludeViewed {
		query += notViewedClause
		args = append(args, viewerID)
	}
	query += ` ORDER BY p.created_at DESC LIMIT ?`
	args = append(args, candidatePoolLimit)

	var out []Candidate
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&out).Error
	return out, err
}

func (r *repository) CountCandidates(ctx context.Context, viewerID uint, maxAgeHours int, excludeViewed bool) (int64, error) {
	since := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)

	query := `SELECT COUNT(*) FROM posts p` + candidateWhere
	args := []any{viewerID, since}
	if excludeViewed {
		query += notViewedClause
		args = append(args, viewerID)
	}

	var n int64
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&n).Error
	return n, err
}

// TrendingCandidates looks at public posts from the last 24 hours and
// counts likes+comments+shares from the last 2 hours per post.
func (r *repository) TrendingCandidates(ctx context.Context, viewerID uint) ([]Candidate, error) {
	since := time.Now().Add(-24 * time.Hour)
	recentSince := time.Now().Add(-2 * time.Hour)

	query := `
	SELECT
		p.id AS post_id,
		p.user_id AS author_id,
		u.nickname AS author_name,
		COALESCE(u.profile_image, '') AS author_avatar,
		p.content,
		p.created_at,
		COALESCE(s.engagement_score, 0) AS engagement_score,
		COALESCE(s.total_likes, 0) AS total_likes,
		COALESCE(s.total_comments, 0) AS total_comments,
		COALESCE(s.total_shares, 0) AS total_shares,
		COALESCE(s.total_views, 0) AS total_views,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id AND l.created_at > ?)
		+ (SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id AND c.created_at > ?)
		+ (SELECT COUNT(*) FROM post_shares sh WHERE sh.post_id = p.id AND sh.created_at > ?)
		AS recent_interactions
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN interaction_summaries s ON s.post_id = p.id
	WHERE p.visibility = 'public'
	  AND p.user_id <> ?
	  AND p.created_at > ?
	ORDER BY p.created_at DESC
	LIMIT ?`

	var out []Candidate
	err := r.db.WithContext(ctx).Raw(query,
		recentSince, recentSince, recentSince, viewerID, since, candidatePoolLimit,
	).Scan(&out).Error
	return out, err
}

func (r *repository) CountTrendingCandidates(ctx context.Context, viewerID uint) (int64, error) {
	since := time.Now().Add(-24 * time.Hour)
	var n int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM posts p
		WHERE p.visibility = 'public' AND p.user_id <> ? AND p.created_at > ?`,
		viewerID, since,
	).Scan(&n).Error
	return n, err
}

func (r *repository) Followees(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
		SELECT following_id FROM follows
		WHERE follower_id = ? AND status = 'accepted'`,
		userID,
	).Scan(&ids).Error
	return ids, err
}

// SecondDegreeFollowees returns accepted follows-of-follows, excluding
// the user and anyone already followed directly.
func (r *repository) SecondDegreeFollowees(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT f2.following_id
		FROM follows f1
		JOIN follows f2 ON f2.follower_id = f1.following_id AND f2.status = 'accepted'
		WHERE f1.follower_id = ? AND f1.status = 'accepted'
		  AND f2.following_id <> ?
		  AND f2.following_id NOT IN (
			SELECT following_id FROM follows WHERE follower_id = ? AND status = 'accepted'
		  )`,
		userID, userID, userID,
	).Scan(&ids).Error
	return ids, err
}

func (r *repository) FrequentlyLikedAuthors(ctx context.Context, userID uint, minLikes int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.user_id
		FROM post_likes l
		JOIN posts p ON p.id = l.post_id
		WHERE l.user_id = ? AND p.user_id <> ?
		GROUP BY p.user_id
		HAVING COUNT(*) >= ?`,
		userID, userID, minLikes,
	).Scan(&ids).Error
	return ids, err
}

func (r *repository) HashtagsForPosts(ctx context.Context, postIDs []uint) (map[uint][]string, error) {
	if len(postIDs) == 0 {
		return map[uint][]string{}, nil
	}
	var rows []struct {
		PostID uint
		Name   string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT ph.post_id, h.name
		FROM post_hashtags ph
		JOIN hashtags h ON h.id = ph.hashtag_id
		WHERE ph.post_id IN ?`,
		postIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint][]string, len(postIDs))
	for _, row := range rows {
		out[row.PostID] = append(out[row.PostID], row.Name)
	}
	return out, nil
}

// RecentEngagedHashtags counts hashtags on the posts the user most
// recently liked or commented on.
func (r *repository) RecentEngagedHashtags(ctx context.Context, userID uint, recentLimit int) (map[string]int64, error) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.name, COUNT(*) AS count
		FROM post_hashtags ph
		JOIN hashtags h ON h.id = ph.hashtag_id
		WHERE ph.post_id IN (
			(SELECT post_id FROM post_likes WHERE user_id = ? ORDER BY created_at DESC LIMIT ?)
			UNION
			(SELECT post_id FROM post_comments WHERE user_id = ? ORDER BY created_at DESC LIMIT ?)
		)
		GROUP BY h.name`,
		userID, recentLimit, userID, recentLimit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Count
	}
	return out, nil
}
