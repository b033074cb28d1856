package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeDecayBounds(t *testing.T) {
	assert.Equal(t, 1.0, TimeDecay(0, 72))

	// A post exactly maxAge old decays by e^-1.
	assert.InDelta(t, math.Exp(-1), TimeDecay(72*time.Hour, 72), 1e-9)
	assert.InDelta(t, math.Exp(-1), TimeDecay(12*time.Hour, 12), 1e-9)
}

func TestTimeDecayMonotonic(t *testing.T) {
	younger := TimeDecay(1*time.Hour, 72)
	older := TimeDecay(48*time.Hour, 72)
	assert.Greater(t, younger, older)
	assert.Greater(t, older, 0.0)
}

func TestRelationshipReasonThresholds(t *testing.T) {
	cases := []struct {
		rel  float64
		want string
	}{
		{1.0, "followed"},
		{0.5, "network"},
		{0.3, "possibly interesting"},
		{0.0, "popular"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, relationshipReason(c.rel))
	}
}

func TestTrendingReasonThresholds(t *testing.T) {
	assert.Equal(t, "surging", trendingReason(11))
	assert.Equal(t, "notable", trendingReason(6))
	assert.Equal(t, "trending", trendingReason(5))
	assert.Equal(t, "trending", trendingReason(0))
}
