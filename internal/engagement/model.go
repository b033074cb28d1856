package engagement

import "time"

// InteractionSummary is the denormalized per-post engagement record.
// It is always a full recomputation from the raw interaction tables,
// never an incremental delta.
type InteractionSummary struct {
	PostID          uint      `gorm:"primaryKey" json:"post_id"`
	TotalViews      int64     `gorm:"not null;default:0" json:"total_views"`
	UniqueViews     int64     `gorm:"not null;default:0" json:"unique_views"`
	TotalLikes      int64     `gorm:"not null;default:0" json:"total_likes"`
	TotalComments   int64     `gorm:"not null;default:0" json:"total_comments"`
	TotalShares     int64     `gorm:"not null;default:0" json:"total_shares"`
	TotalBookmarks  int64     `gorm:"not null;default:0" json:"total_bookmarks"`
	AvgViewDuration float64   `gorm:"not null;default:0" json:"avg_view_duration"`
	EngagementScore float64   `gorm:"not null;default:0;index" json:"engagement_score"`
	LastUpdated     time.Time `json:"last_updated"`
}

func (InteractionSummary) TableName() string { return "interaction_summaries" }

// PostView is a raw view event. One row per (post, user, ip); a
// repeated view keeps the maximum duration seen.
type PostView struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	PostID    uint    `gorm:"uniqueIndex:idx_post_viewer;index" json:"post_id"`
	UserID    uint    `gorm:"uniqueIndex:idx_post_viewer" json:"user_id"` // 0 for anonymous
	IP        string  `gorm:"uniqueIndex:idx_post_viewer;size:64" json:"ip"`
	Duration  float64 `gorm:"not null;default:0" json:"duration"` // seconds
	CreatedAt time.Time
}

func (PostView) TableName() string { return "post_views" }
