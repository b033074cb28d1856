package recommend

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecRepo struct {
	candidates []Candidate
	trending   []Candidate
	followees  []uint
	second     []uint
	liked      []uint
	hashtags   map[uint][]string
	engaged    map[string]int64
	engagedErr error
	candTotal  int64
	trendTotal int64
}

func (f *fakeRecRepo) CandidatePosts(context.Context, uint, int, bool) ([]Candidate, error) {
	return f.candidates, nil
}

func (f *fakeRecRepo) CountCandidates(context.Context, uint, int, bool) (int64, error) {
	return f.candTotal, nil
}

func (f *fakeRecRepo) TrendingCandidates(context.Context, uint) ([]Candidate, error) {
	return f.trending, nil
}

func (f *fakeRecRepo) CountTrendingCandidates(context.Context, uint) (int64, error) {
	return f.trendTotal, nil
}

func (f *fakeRecRepo) Followees(context.Context, uint) ([]uint, error) {
	return f.followees, nil
}

func (f *fakeRecRepo) SecondDegreeFollowees(context.Context, uint) ([]uint, error) {
	return f.second, nil
}

func (f *fakeRecRepo) FrequentlyLikedAuthors(context.Context, uint, int) ([]uint, error) {
	return f.liked, nil
}

func (f *fakeRecRepo) HashtagsForPosts(_ context.Context, ids []uint) (map[uint][]string, error) {
	if f.hashtags == nil {
		return map[uint][]string{}, nil
	}
	return f.hashtags, nil
}

func (f *fakeRecRepo) RecentEngagedHashtags(context.Context, uint, int) (map[string]int64, error) {
	if f.engagedErr != nil {
		return nil, f.engagedErr
	}
	return f.engaged, nil
}

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(repo Repository) *service {
	return &service{
		repo: repo,
		log:  zerolog.Nop(),
		now:  func() time.Time { return testNow },
	}
}

func relCfg() *Config {
	c := DefaultConfig()
	c.Algorithm = AlgorithmRelationship
	return &c
}

// Viewer follows author 2 but not author 3. Author 2's post has zero
// interactions, author 3's has engagement 50; the relationship term
// must dominate.
func TestRelationshipRankingFollowBeatsEngagement(t *testing.T) {
	repo := &fakeRecRepo{
		followees: []uint{2},
		candidates: []Candidate{
			{PostID: 10, AuthorID: 2, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 0},
			{PostID: 11, AuthorID: 3, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 50},
		},
		candTotal: 2,
	}

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, relCfg())
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)

	assert.Equal(t, uint(10), res.Posts[0].PostID)
	assert.Equal(t, "followed", res.Posts[0].Reason)
	assert.Equal(t, uint(11), res.Posts[1].PostID)
	assert.Equal(t, "popular", res.Posts[1].Reason)
	assert.Equal(t, int64(2), res.Total)

	// score = engagement*0.3 + rel*100*0.4 + decay*50*0.3
	decay := math.Exp(-1.0 / 72.0)
	assert.InDelta(t, 40+decay*50*0.3, res.Posts[0].RecommendationScore, 1e-9)
	assert.InDelta(t, 15+decay*50*0.3, res.Posts[1].RecommendationScore, 1e-9)
}

func TestRelationshipWeightsPrecedence(t *testing.T) {
	repo := &fakeRecRepo{
		followees: []uint{2},
		second:    []uint{2, 3}, // 2 already direct; must stay 1.0
		liked:     []uint{3, 4}, // 3 already second-degree; must stay 0.5
		candidates: []Candidate{
			{PostID: 1, AuthorID: 2, CreatedAt: testNow},
			{PostID: 2, AuthorID: 3, CreatedAt: testNow},
			{PostID: 3, AuthorID: 4, CreatedAt: testNow},
		},
		candTotal: 3,
	}

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, relCfg())
	require.NoError(t, err)
	require.Len(t, res.Posts, 3)

	assert.Equal(t, "followed", res.Posts[0].Reason)
	assert.Equal(t, "network", res.Posts[1].Reason)
	assert.Equal(t, "possibly interesting", res.Posts[2].Reason)
}

func TestSelfExclusionEveryAlgorithm(t *testing.T) {
	own := Candidate{PostID: 99, AuthorID: 1, CreatedAt: testNow, EngagementScore: 1000}
	other := Candidate{PostID: 5, AuthorID: 2, CreatedAt: testNow, EngagementScore: 1}
	repo := &fakeRecRepo{
		candidates: []Candidate{own, other},
		trending:   []Candidate{own, other},
		candTotal:  2,
		trendTotal: 2,
	}

	for _, alg := range []Algorithm{AlgorithmRelationship, AlgorithmEngagement, AlgorithmTrending, AlgorithmHybrid} {
		t.Run(string(alg), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Algorithm = alg
			res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, &cfg)
			require.NoError(t, err)
			for _, p := range res.Posts {
				assert.NotEqual(t, uint(99), p.PostID)
			}
			require.NotEmpty(t, res.Posts)
		})
	}
}

func TestEngagementRecencyBias(t *testing.T) {
	repo := &fakeRecRepo{
		candidates: []Candidate{
			{PostID: 20, AuthorID: 2, CreatedAt: testNow, EngagementScore: 10},
			{PostID: 21, AuthorID: 3, CreatedAt: testNow.Add(-360 * time.Hour), EngagementScore: 50},
		},
		candTotal: 2,
	}
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmEngagement

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)

	// Fresh low-engagement outranks stale high-engagement.
	assert.Equal(t, uint(20), res.Posts[0].PostID)
	assert.InDelta(t, 10.0, res.Posts[0].RecommendationScore, 1e-9)
	assert.InDelta(t, 50*math.Exp(-5), res.Posts[1].RecommendationScore, 1e-9)
}

func TestTrendingScoreAndReasons(t *testing.T) {
	repo := &fakeRecRepo{
		trending: []Candidate{
			{PostID: 30, AuthorID: 2, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 4, RecentInteractions: 12},
			{PostID: 31, AuthorID: 3, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 4, RecentInteractions: 6},
			{PostID: 32, AuthorID: 4, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 4, RecentInteractions: 0},
		},
		trendTotal: 3,
	}
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmTrending

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Posts, 3)

	decay := math.Exp(-1.0 / 12.0)
	assert.InDelta(t, (12*10+4*0.5)*decay, res.Posts[0].RecommendationScore, 1e-9)
	assert.Equal(t, "surging", res.Posts[0].Reason)
	assert.Equal(t, "notable", res.Posts[1].Reason)
	assert.Equal(t, "trending", res.Posts[2].Reason)
}

func TestHybridDeduplicationAndBoost(t *testing.T) {
	shared := Candidate{PostID: 10, AuthorID: 2, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 5}
	repo := &fakeRecRepo{
		followees:  []uint{2},
		candidates: []Candidate{shared},
		trending: []Candidate{
			{PostID: 10, AuthorID: 2, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 5, RecentInteractions: 12},
			{PostID: 12, AuthorID: 4, CreatedAt: testNow.Add(-time.Hour), EngagementScore: 2, RecentInteractions: 1},
		},
		candTotal:  1,
		trendTotal: 2,
	}

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 10, nil)
	require.NoError(t, err)

	occurrences := 0
	var sharedPost PostWithScore
	for _, p := range res.Posts {
		if p.PostID == 10 {
			occurrences++
			sharedPost = p
		}
	}
	require.Equal(t, 1, occurrences, "shared post must be deduplicated")

	// Relationship wins the duplicate: boosted score, relationship reason.
	decay := math.Exp(-1.0 / 72.0)
	relScore := 5*0.3 + 1.0*100*0.4 + decay*50*0.3
	assert.InDelta(t, relScore*hybridBoost, sharedPost.RecommendationScore, 1e-9)
	assert.True(t, strings.HasPrefix(sharedPost.Reason, "[관계] "), "reason %q", sharedPost.Reason)
	assert.Equal(t, "[관계] followed", sharedPost.Reason)

	// Trending-only post keeps its own prefixed reason.
	var trendingPost PostWithScore
	for _, p := range res.Posts {
		if p.PostID == 12 {
			trendingPost = p
		}
	}
	assert.True(t, strings.HasPrefix(trendingPost.Reason, "[trending] "))

	// Total is the deduplicated merged-set size, not a store count.
	assert.Equal(t, int64(2), res.Total)
}

func TestHybridEngagementPrefix(t *testing.T) {
	// The viewer follows author 2, so relationship's top pick (post 41)
	// differs from engagement's top pick (post 40).
	repo := &fakeRecRepo{
		followees: []uint{2},
		candidates: []Candidate{
			{PostID: 40, AuthorID: 3, CreatedAt: testNow, EngagementScore: 3},
			{PostID: 41, AuthorID: 2, CreatedAt: testNow, EngagementScore: 1},
		},
		candTotal: 2,
	}

	// limit 2 -> each sub-algorithm contributes its single best post.
	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Posts)

	prefixes := map[string]bool{}
	for _, p := range res.Posts {
		switch {
		case strings.HasPrefix(p.Reason, "[관계] "):
			prefixes["rel"] = true
		case strings.HasPrefix(p.Reason, "[engagement] "):
			prefixes["eng"] = true
		}
	}
	assert.True(t, prefixes["rel"])
	assert.True(t, prefixes["eng"])
}

func TestPageSlicing(t *testing.T) {
	cands := make([]Candidate, 6)
	for i := range cands {
		cands[i] = Candidate{
			PostID:          uint(i + 1),
			AuthorID:        2,
			CreatedAt:       testNow,
			EngagementScore: float64(60 - i*10), // descending by id
		}
	}
	repo := &fakeRecRepo{candidates: cands, candTotal: 6}
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmEngagement

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 2, 2, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, uint(3), res.Posts[0].PostID)
	assert.Equal(t, uint(4), res.Posts[1].PostID)
	assert.Equal(t, int64(6), res.Total)

	empty, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 9, 2, &cfg)
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)
}

func TestHashtagsAttached(t *testing.T) {
	repo := &fakeRecRepo{
		candidates: []Candidate{
			{PostID: 10, AuthorID: 2, CreatedAt: testNow, EngagementScore: 1},
			{PostID: 11, AuthorID: 3, CreatedAt: testNow, EngagementScore: 2},
		},
		hashtags:  map[uint][]string{10: {"golang", "backend"}},
		candTotal: 2,
	}
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmEngagement

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 20, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)

	for _, p := range res.Posts {
		if p.PostID == 10 {
			assert.ElementsMatch(t, []string{"golang", "backend"}, p.Hashtags)
		} else {
			assert.NotNil(t, p.Hashtags)
			assert.Empty(t, p.Hashtags)
		}
	}
}

func TestAdjustScoresFailureReturnsInputUnchanged(t *testing.T) {
	repo := &fakeRecRepo{engagedErr: errors.New("store down")}
	engine := newTestEngine(repo)

	in := []PostWithScore{
		{PostID: 1, RecommendationScore: 10, Hashtags: []string{"go"}},
		{PostID: 2, RecommendationScore: 5, Hashtags: []string{"rust"}},
	}
	out := engine.AdjustScoresByUserBehavior(context.Background(), 1, in)
	assert.Equal(t, in, out)
}

func TestAdjustScoresBoostsAffinity(t *testing.T) {
	repo := &fakeRecRepo{engaged: map[string]int64{"go": 5}}
	engine := newTestEngine(repo)

	in := []PostWithScore{
		{PostID: 1, RecommendationScore: 10, Hashtags: []string{"cooking"}},
		{PostID: 2, RecommendationScore: 9, Hashtags: []string{"go"}},
	}
	out := engine.AdjustScoresByUserBehavior(context.Background(), 1, in)
	require.Len(t, out, 2)

	// The affinity boost lifts post 2 above post 1.
	assert.Equal(t, uint(2), out[0].PostID)
	assert.Greater(t, out[0].RecommendationScore, 10.0)
	// Input slice is not mutated.
	assert.Equal(t, 9.0, in[1].RecommendationScore)
}

func TestInvalidAlgorithmFallsBackToHybrid(t *testing.T) {
	repo := &fakeRecRepo{
		candidates: []Candidate{{PostID: 1, AuthorID: 2, CreatedAt: testNow, EngagementScore: 1}},
		candTotal:  1,
	}
	cfg := DefaultConfig()
	cfg.Algorithm = Algorithm("nonsense")

	res, err := newTestEngine(repo).GetRecommendedPosts(context.Background(), 1, 1, 10, &cfg)
	require.NoError(t, err)
	// Hybrid totals come from the merged set.
	assert.Equal(t, int64(1), res.Total)
}
