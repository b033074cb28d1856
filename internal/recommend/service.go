package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	// Likes on an author's posts before the viewer counts as having an
	// interaction-derived relationship with them.
	minInteractionLikes = 3

	directFollowWeight = 1.0
	secondDegreeWeight = 0.5
	interactionWeight  = 0.3

	hybridBoost = 1.2

	prefixRelationship = "[관계] "
	prefixEngagement   = "[engagement] "
	prefixTrending     = "[trending] "
)

type Service interface {
	// GetRecommendedPosts returns one ranked page for the viewer under
	// the configured algorithm (hybrid when cfg is nil).
	GetRecommendedPosts(ctx context.Context, viewerID uint, page, limit int, cfg *Config) (*Result, error)
	// AdjustScoresByUserBehavior re-ranks by the viewer's hashtag
	// affinity. Best-effort: any failure returns the input unchanged.
	AdjustScoresByUserBehavior(ctx context.Context, viewerID uint, posts []PostWithScore) []PostWithScore
}

type service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo: repo,
		log:  log.With().Str("component", "recommend").Logger(),
		now:  time.Now,
	}
}

func (s *service) GetRecommendedPosts(ctx context.Context, viewerID uint, page, limit int, cfg *Config) (*Result, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	conf := DefaultConfig()
	if cfg != nil {
		conf = *cfg
	}
	if !conf.Algorithm.Valid() {
		conf.Algorithm = AlgorithmHybrid
	}

	var (
		res *Result
		err error
	)
	switch conf.Algorithm {
	case AlgorithmRelationship:
		res, err = s.byRelationship(ctx, viewerID, page, limit, conf)
	case AlgorithmEngagement:
		res, err = s.byEngagement(ctx, viewerID, page, limit, conf)
	case AlgorithmTrending:
		res, err = s.byTrending(ctx, viewerID, page, limit)
	default:
		res, err = s.byHybrid(ctx, viewerID, page, limit, conf)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachHashtags(ctx, res.Posts); err != nil {
		return nil, fmt.Errorf("attach hashtags: %w", err)
	}
	return res, nil
}

// relationshipWeights builds the viewer's transient social network:
// direct follows, follows-of-follows, and authors the viewer has liked
// at least minInteractionLikes times. Stronger ties win on overlap.
func (s *service) relationshipWeights(ctx context.Context, viewerID uint) (map[uint]float64, error) {
	weights := make(map[uint]float64)

	direct, err := s.repo.Followees(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("followees: %w", err)
	}
	for _, id := range direct {
		weights[id] = directFollowWeight
	}

	second, err := s.repo.SecondDegreeFollowees(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("second-degree followees: %w", err)
	}
	for _, id := range second {
		if _, ok := weights[id]; !ok {
			weights[id] = secondDegreeWeight
		}
	}

	liked, err := s.repo.FrequentlyLikedAuthors(ctx, viewerID, minInteractionLikes)
	if err != nil {
		return nil, fmt.Errorf("frequently liked authors: %w", err)
	}
	for _, id := range liked {
		if _, ok := weights[id]; !ok {
			weights[id] = interactionWeight
		}
	}
	return weights, nil
}

func (s *service) byRelationship(ctx context.Context, viewerID uint, page, limit int, conf Config) (*Result, error) {
	weights, err := s.relationshipWeights(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	scored, err := s.scoreRelationship(ctx, viewerID, conf, weights)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountCandidates(ctx, viewerID, conf.MaxAgeHours, conf.ExcludeViewed)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	return &Result{Posts: pageSlice(scored, page, limit), Total: total}, nil
}

func (s *service) scoreRelationship(ctx context.Context, viewerID uint, conf Config, weights map[uint]float64) ([]PostWithScore, error) {
	candidates, err := s.repo.CandidatePosts(ctx, viewerID, conf.MaxAgeHours, conf.ExcludeViewed)
	if err != nil {
		return nil, fmt.Errorf("candidate posts: %w", err)
	}

	now := s.now()
	out := make([]PostWithScore, 0, len(candidates))
	for _, c := range candidates {
		if c.AuthorID == viewerID {
			continue
		}
		rel := weights[c.AuthorID]
		decay := TimeDecay(now.Sub(c.CreatedAt), conf.MaxAgeHours)
		score := c.EngagementScore*conf.EngagementWeight +
			rel*100*conf.RelationshipWeight +
			decay*50*conf.TimeWeight

		p := fromCandidate(c)
		p.RecommendationScore = score
		p.Reason = relationshipReason(rel)
		out = append(out, p)
	}
	sortByScore(out)
	return out, nil
}

func (s *service) byEngagement(ctx context.Context, viewerID uint, page, limit int, conf Config) (*Result, error) {
	scored, err := s.scoreEngagement(ctx, viewerID, conf)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountCandidates(ctx, viewerID, conf.MaxAgeHours, conf.ExcludeViewed)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	return &Result{Posts: pageSlice(scored, page, limit), Total: total}, nil
}

func (s *service) scoreEngagement(ctx context.Context, viewerID uint, conf Config) ([]PostWithScore, error) {
	candidates, err := s.repo.CandidatePosts(ctx, viewerID, conf.MaxAgeHours, conf.ExcludeViewed)
	if err != nil {
		return nil, fmt.Errorf("candidate posts: %w", err)
	}

	now := s.now()
	out := make([]PostWithScore, 0, len(candidates))
	for _, c := range candidates {
		if c.AuthorID == viewerID {
			continue
		}
		// Zero-interaction posts score 0 but still get the decay
		// multiplier, so fresh posts can outrank stale popular ones.
		decay := TimeDecay(now.Sub(c.CreatedAt), conf.MaxAgeHours)

		p := fromCandidate(c)
		p.RecommendationScore = c.EngagementScore * decay
		p.Reason = engagementReason
		out = append(out, p)
	}
	sortByScore(out)
	return out, nil
}

func (s *service) byTrending(ctx context.Context, viewerID uint, page, limit int) (*Result, error) {
	scored, err := s.scoreTrending(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountTrendingCandidates(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("count trending candidates: %w", err)
	}
	return &Result{Posts: pageSlice(scored, page, limit), Total: total}, nil
}

func (s *service) scoreTrending(ctx context.Context, viewerID uint) ([]PostWithScore, error) {
	candidates, err := s.repo.TrendingCandidates(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("trending candidates: %w", err)
	}

	now := s.now()
	out := make([]PostWithScore, 0, len(candidates))
	for _, c := range candidates {
		if c.AuthorID == viewerID {
			continue
		}
		decay := TimeDecay(now.Sub(c.CreatedAt), trendingDecayHours)
		score := (float64(c.RecentInteractions)*10 + c.EngagementScore*0.5) * decay

		p := fromCandidate(c)
		p.RecommendationScore = score
		p.Reason = trendingReason(c.RecentInteractions)
		out = append(out, p)
	}
	sortByScore(out)
	return out, nil
}

// byHybrid runs relationship (40% of limit), engagement (30%) and
// trending (30%) concurrently and merges them. Relationship wins on
// duplicates with a boosted score; the reported total is the size of
// the deduplicated merged set, not a store count.
func (s *service) byHybrid(ctx context.Context, viewerID uint, page, limit int, conf Config) (*Result, error) {
	relLimit := limit * 40 / 100
	engLimit := limit * 30 / 100
	trendLimit := limit * 30 / 100
	if relLimit < 1 {
		relLimit = 1
	}
	if engLimit < 1 {
		engLimit = 1
	}
	if trendLimit < 1 {
		trendLimit = 1
	}

	var (
		wg       sync.WaitGroup
		relPosts []PostWithScore
		engPosts []PostWithScore
		trPosts  []PostWithScore
		relErr   error
		engErr   error
		trendErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		weights, err := s.relationshipWeights(ctx, viewerID)
		if err != nil {
			relErr = err
			return
		}
		relPosts, relErr = s.scoreRelationship(ctx, viewerID, conf, weights)
	}()
	go func() {
		defer wg.Done()
		engPosts, engErr = s.scoreEngagement(ctx, viewerID, conf)
	}()
	go func() {
		defer wg.Done()
		trPosts, trendErr = s.scoreTrending(ctx, viewerID)
	}()
	wg.Wait()

	for _, err := range []error{relErr, engErr, trendErr} {
		if err != nil {
			return nil, fmt.Errorf("hybrid: %w", err)
		}
	}

	relPosts = truncate(relPosts, relLimit)
	engPosts = truncate(engPosts, engLimit)
	trPosts = truncate(trPosts, trendLimit)

	merged := make([]PostWithScore, 0, len(relPosts)+len(engPosts)+len(trPosts))
	seen := make(map[uint]struct{})
	for _, p := range relPosts {
		p.RecommendationScore *= hybridBoost
		p.Reason = prefixRelationship + p.Reason
		merged = append(merged, p)
		seen[p.PostID] = struct{}{}
	}
	for _, p := range engPosts {
		if _, ok := seen[p.PostID]; ok {
			continue
		}
		p.Reason = prefixEngagement + p.Reason
		merged = append(merged, p)
		seen[p.PostID] = struct{}{}
	}
	for _, p := range trPosts {
		if _, ok := seen[p.PostID]; ok {
			continue
		}
		p.Reason = prefixTrending + p.Reason
		merged = append(merged, p)
		seen[p.PostID] = struct{}{}
	}

	sortByScore(merged)
	return &Result{Posts: pageSlice(merged, page, limit), Total: int64(len(merged))}, nil
}

func (s *service) attachHashtags(ctx context.Context, posts []PostWithScore) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	tags, err := s.repo.HashtagsForPosts(ctx, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		if t, ok := tags[posts[i].PostID]; ok {
			posts[i].Hashtags = t
		} else {
			posts[i].Hashtags = []string{}
		}
	}
	return nil
}

func fromCandidate(c Candidate) PostWithScore {
	return PostWithScore{
		PostID: c.PostID,
		Author: AuthorSummary{
			ID:     c.AuthorID,
			Name:   c.AuthorName,
			Avatar: c.AuthorAvatar,
		},
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		Hashtags:        []string{},
		TotalLikes:      c.TotalLikes,
		TotalComments:   c.TotalComments,
		TotalShares:     c.TotalShares,
		TotalViews:      c.TotalViews,
		EngagementScore: c.EngagementScore,
	}
}

// sortByScore sorts descending and is stable so equal scores keep
// their candidate order.
func sortByScore(posts []PostWithScore) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].RecommendationScore > posts[j].RecommendationScore
	})
}

func pageSlice(posts []PostWithScore, page, limit int) []PostWithScore {
	start := (page - 1) * limit
	if start >= len(posts) {
		return []PostWithScore{}
	}
	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end]
}

func truncate(posts []PostWithScore, n int) []PostWithScore {
	if len(posts) > n {
		return posts[:n]
	}
	return posts
}
