package recommend

import (
	"math"
	"time"
)

// Fixed half-life window for the trending algorithm, independent of
// the request config.
const trendingDecayHours = 12

// TimeDecay is the exponential down-weighting of older posts,
// normalized so a post exactly maxAgeHours old decays by e^-1 and a
// brand-new post keeps factor 1.
func TimeDecay(age time.Duration, maxAgeHours int) float64 {
	if maxAgeHours <= 0 {
		return 1
	}
	return math.Exp(-age.Hours() / float64(maxAgeHours))
}

// relationshipReason maps connection strength to a display reason.
func relationshipReason(rel float64) string {
	switch {
	case rel > 0.8:
		return "followed"
	case rel > 0.4:
		return "network"
	case rel > 0.2:
		return "possibly interesting"
	default:
		return "popular"
	}
}

const engagementReason = "popular"

func trendingReason(recent int64) string {
	switch {
	case recent > 10:
		return "surging"
	case recent > 5:
		return "notable"
	default:
		return "trending"
	}
}
