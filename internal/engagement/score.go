package engagement

// Weights for the engagement score. Deeper engagement is rarer and
// signals stronger interest: bookmark > share > comment > like > view.
type Weights struct {
	View     float64
	Like     float64
	Comment  float64
	Share    float64
	Bookmark float64
	Duration float64
}

var DefaultWeights = Weights{
	View:     0.1,
	Like:     1.0,
	Comment:  3.0,
	Share:    5.0,
	Bookmark: 7.0,
	Duration: 0.01,
}

// ComputeScore is the weighted linear combination over a summary's
// counters. Pure function: same counters and weights always produce
// the same score.
func ComputeScore(s InteractionSummary, w Weights) float64 {
	return float64(s.TotalViews)*w.View +
		float64(s.TotalLikes)*w.Like +
		float64(s.TotalComments)*w.Comment +
		float64(s.TotalShares)*w.Share +
		float64(s.TotalBookmarks)*w.Bookmark +
		s.AvgViewDuration*float64(s.TotalViews)*w.Duration
}

// CustomScore recomputes a summary's score with caller-supplied
// weights without touching persisted state.
func CustomScore(s InteractionSummary, w Weights) float64 {
	return ComputeScore(s, w)
}
