package cache

import "encoding/json"

type Stats struct {
	TotalEntries int     `json:"total_entries"`
	HitCount     int64   `json:"hit_count"`
	MissCount    int64   `json:"miss_count"`
	HitRate      float64 `json:"hit_rate_pct"`
	MemoryBytes  int64   `json:"memory_bytes"`
}

// Stats reports counters and an approximate memory footprint computed
// by serializing resident entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bytes int64
	for _, e := range c.entries {
		if raw, err := json.Marshal(e); err == nil {
			bytes += int64(len(raw))
		}
	}

	st := Stats{
		TotalEntries: len(c.entries),
		HitCount:     c.hits,
		MissCount:    c.misses,
		MemoryBytes:  bytes,
	}
	if total := c.hits + c.misses; total > 0 {
		st.HitRate = float64(c.hits) / float64(total) * 100
	}
	return st
}

type Analytics struct {
	ByAlgorithm map[string]int `json:"by_algorithm"`
	ByUser      map[uint]int   `json:"by_user"`
	ByHour      map[string]int `json:"by_hour"`
}

// Analytics buckets resident entries for capacity planning.
func (c *Cache) Analytics() Analytics {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := Analytics{
		ByAlgorithm: make(map[string]int),
		ByUser:      make(map[uint]int),
		ByHour:      make(map[string]int),
	}
	for _, e := range c.entries {
		a.ByAlgorithm[e.algorithm]++
		a.ByUser[e.userID]++
		a.ByHour[e.Timestamp.Format("2006-01-02T15")]++
	}
	return a
}
