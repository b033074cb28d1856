package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseSummary() InteractionSummary {
	return InteractionSummary{
		TotalViews:      100,
		UniqueViews:     80,
		TotalLikes:      10,
		TotalComments:   5,
		TotalShares:     2,
		TotalBookmarks:  1,
		AvgViewDuration: 30,
	}
}

func TestComputeScoreDefaultWeights(t *testing.T) {
	s := baseSummary()
	// 100*0.1 + 10*1 + 5*3 + 2*5 + 1*7 + 30*100*0.01
	assert.InDelta(t, 82.0, ComputeScore(s, DefaultWeights), 1e-9)
}

func TestComputeScoreDeterministic(t *testing.T) {
	s := baseSummary()
	first := ComputeScore(s, DefaultWeights)
	second := ComputeScore(s, DefaultWeights)
	assert.Equal(t, first, second)
}

func TestComputeScoreZeroSummary(t *testing.T) {
	assert.Equal(t, 0.0, ComputeScore(InteractionSummary{}, DefaultWeights))
}

func TestComputeScoreMonotonic(t *testing.T) {
	base := ComputeScore(baseSummary(), DefaultWeights)

	bump := map[string]func(*InteractionSummary){
		"views":     func(s *InteractionSummary) { s.TotalViews++ },
		"likes":     func(s *InteractionSummary) { s.TotalLikes++ },
		"comments":  func(s *InteractionSummary) { s.TotalComments++ },
		"shares":    func(s *InteractionSummary) { s.TotalShares++ },
		"bookmarks": func(s *InteractionSummary) { s.TotalBookmarks++ },
	}
	for name, fn := range bump {
		t.Run(name, func(t *testing.T) {
			s := baseSummary()
			fn(&s)
			assert.GreaterOrEqual(t, ComputeScore(s, DefaultWeights), base)
		})
	}
}

func TestCustomScoreOverrideWeights(t *testing.T) {
	s := baseSummary()
	likesOnly := Weights{Like: 2.0}
	assert.InDelta(t, 20.0, CustomScore(s, likesOnly), 1e-9)
	// Persisted-score weights are untouched by experimentation.
	assert.InDelta(t, 82.0, ComputeScore(s, DefaultWeights), 1e-9)
}
