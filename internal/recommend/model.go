package recommend

import "time"

type Algorithm string

const (
	AlgorithmRelationship Algorithm = "relationship"
	AlgorithmEngagement   Algorithm = "engagement"
	AlgorithmTrending     Algorithm = "trending"
	AlgorithmHybrid       Algorithm = "hybrid"
)

func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmRelationship, AlgorithmEngagement, AlgorithmTrending, AlgorithmHybrid:
		return true
	}
	return false
}

// Config tunes a single recommendation request. It is a value object,
// never persisted; distinct configs never share a cache entry.
type Config struct {
	Algorithm          Algorithm `json:"algorithm"`
	TimeWeight         float64   `json:"time_weight"`
	RelationshipWeight float64   `json:"relationship_weight"`
	EngagementWeight   float64   `json:"engagement_weight"`
	DiversityFactor    float64   `json:"diversity_factor"`
	ExcludeViewed      bool      `json:"exclude_viewed"`
	MaxAgeHours        int       `json:"max_age_hours"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm:          AlgorithmHybrid,
		TimeWeight:         0.3,
		RelationshipWeight: 0.4,
		EngagementWeight:   0.3,
		DiversityFactor:    0.1,
		ExcludeViewed:      true,
		MaxAgeHours:        72,
	}
}

type AuthorSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PostWithScore is a candidate post projected with its recommendation
// score. Transient: exists only as a response and cache payload.
type PostWithScore struct {
	PostID              uint          `json:"post_id"`
	Author              AuthorSummary `json:"author"`
	Content             string        `json:"content"`
	CreatedAt           time.Time     `json:"created_at"`
	Hashtags            []string      `json:"hashtags"`
	TotalLikes          int64         `json:"total_likes"`
	TotalComments       int64         `json:"total_comments"`
	TotalShares         int64         `json:"total_shares"`
	TotalViews          int64         `json:"total_views"`
	EngagementScore     float64       `json:"engagement_score"`
	RecommendationScore float64       `json:"recommendation_score"`
	Reason              string        `json:"reason"`
}

// Result is one ranked page.
//
// Total is store-computed for single algorithms but is the size of the
// deduplicated merged set for hybrid; callers must not assume it
// matches a persisted count.
type Result struct {
	Posts []PostWithScore `json:"posts"`
	Total int64           `json:"total"`
}
