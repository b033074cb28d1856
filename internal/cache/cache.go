package cache

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	defaultMaxEntries = 1000
	// Batch eviction drops to cap-headroom resident entries so a
	// borderline-full cache does not evict on every insert.
	evictionHeadroom = 100
)

// Per-algorithm freshness windows. Trending is the most volatile;
// social graphs change slowly.
var defaultTTLs = map[string]time.Duration{
	"relationship": 15 * time.Minute,
	"engagement":   10 * time.Minute,
	"trending":     5 * time.Minute,
	"hybrid":       12 * time.Minute,
}

const fallbackTTL = 10 * time.Minute

var (
	hitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommendation_cache_hits_total",
		Help: "Recommendation cache lookups served from memory.",
	})
	missCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommendation_cache_misses_total",
		Help: "Recommendation cache lookups that fell through to the engine.",
	})
)

// Metadata describes the page stored in an entry.
type Metadata struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type Entry struct {
	Data      any           `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
	Meta      Metadata      `json:"metadata"`

	userID    uint
	algorithm string
}

func (e *Entry) expiredAt(now time.Time) bool {
	return now.Sub(e.Timestamp) > e.TTL
}

// Cache memoizes (viewer, algorithm, page, limit, config) -> ranked
// page results. Process-local; each worker process has its own
// instance, which is acceptable because correctness only needs
// staleness bounded by TTL. Explicitly constructed and injected, never
// a package-level singleton, so every test can build its own.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	hits       int64
	misses     int64
	now        func() time.Time
	log        zerolog.Logger
}

func New(maxEntries int, log zerolog.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		now:        time.Now,
		log:        log.With().Str("component", "cache").Logger(),
	}
}

// buildKey hashes the config into the key so distinct configs never
// collide on the same entry.
func buildKey(userID uint, algorithm string, page, limit int, cfg any) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("serialize config: %w", err)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%d|%s|%d|%d|%x", userID, algorithm, page, limit, sum), nil
}

// Get returns the cached entry for the request tuple. An entry past
// its own TTL is treated as absent and removed on the spot. Key-build
// failure degrades to a miss: the cache is never the reason a feed
// request fails.
func (c *Cache) Get(userID uint, algorithm string, page, limit int, cfg any) (*Entry, bool) {
	key, err := buildKey(userID, algorithm, page, limit, cfg)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache key build failed, treating as miss")
		c.miss()
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.missLocked()
		return nil, false
	}
	if e.expiredAt(c.now()) {
		delete(c.entries, key)
		c.missLocked()
		return nil, false
	}
	c.hits++
	hitCounter.Inc()
	return e, true
}

// Set stores one page under its key. TTL is the explicit customTTL
// when given, else the per-algorithm default. Failure degrades to a
// no-op.
func (c *Cache) Set(userID uint, algorithm string, page, limit int, data any, total int64, cfg any, customTTL ...time.Duration) {
	key, err := buildKey(userID, algorithm, page, limit, cfg)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache key build failed, set skipped")
		return
	}

	ttl := fallbackTTL
	if d, ok := defaultTTLs[algorithm]; ok {
		ttl = d
	}
	if len(customTTL) > 0 && customTTL[0] > 0 {
		ttl = customTTL[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry{
		Data:      data,
		Timestamp: c.now(),
		TTL:       ttl,
		Meta:      Metadata{Page: page, Limit: limit, Total: total},
		userID:    userID,
		algorithm: algorithm,
	}
	c.evictOverflowLocked()
}

// evictOverflowLocked enforces the resident-entry cap by dropping the
// oldest entries by insertion time until headroom is restored.
func (c *Cache) evictOverflowLocked() {
	if len(c.entries) <= c.maxEntries {
		return
	}
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, at: e.Timestamp})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	target := c.maxEntries - evictionHeadroom
	if target < 0 {
		target = 0
	}
	evicted := 0
	for _, a := range all {
		if len(c.entries) <= target {
			break
		}
		delete(c.entries, a.key)
		evicted++
	}
	c.log.Debug().Int("evicted", evicted).Int("resident", len(c.entries)).Msg("cache eviction")
}

// InvalidateUser removes every entry built for the user. Called when
// the user's social graph or view history changes materially.
func (c *Cache) InvalidateUser(userID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.userID == userID {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// InvalidateAlgorithm removes every entry for the algorithm. Called
// after a global scoring-weight change.
func (c *Cache) InvalidateAlgorithm(algorithm string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.algorithm == algorithm {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// CleanupExpired eagerly sweeps all entries past TTL so memory is
// reclaimed even for keys nobody re-requests.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.expiredAt(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear drops everything and resets the counters. Operational escape
// hatch, not part of the normal request flow.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.hits = 0
	c.misses = 0
}

// Maintenance sweeps expired entries and logs the resulting hit rate.
// Intended to run on a fixed schedule independent of read traffic.
func (c *Cache) Maintenance() int {
	removed := c.CleanupExpired()
	st := c.Stats()
	c.log.Info().
		Int("expired_removed", removed).
		Int("resident", st.TotalEntries).
		Float64("hit_rate_pct", st.HitRate).
		Msg("cache maintenance")
	return removed
}

func (c *Cache) miss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missLocked()
}

func (c *Cache) missLocked() {
	c.misses++
	missCounter.Inc()
}
