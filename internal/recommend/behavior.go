package recommend

import (
	"context"
	"math"
)

// How many recent likes/comments feed the affinity profile.
const recentEngagementLimit = 50

// AdjustScoresByUserBehavior boosts posts whose hashtags overlap with
// the hashtags on posts the viewer recently liked or commented on.
// Personalization is best-effort and never blocks a request: on any
// failure, or when there is no usable profile, the input ranking comes
// back unchanged.
func (s *service) AdjustScoresByUserBehavior(ctx context.Context, viewerID uint, posts []PostWithScore) []PostWithScore {
	if len(posts) == 0 {
		return posts
	}

	affinity, err := s.repo.RecentEngagedHashtags(ctx, viewerID, recentEngagementLimit)
	if err != nil {
		s.log.Warn().Err(err).Uint("viewer_id", viewerID).Msg("behavior adjustment skipped")
		return posts
	}
	if len(affinity) == 0 {
		return posts
	}

	adjusted := make([]PostWithScore, len(posts))
	copy(adjusted, posts)
	for i := range adjusted {
		var overlap int64
		for _, tag := range adjusted[i].Hashtags {
			overlap += affinity[tag]
		}
		if overlap > 0 {
			adjusted[i].RecommendationScore *= 1 + 0.1*math.Log1p(float64(overlap))
		}
	}
	sortByScore(adjusted)
	return adjusted
}
