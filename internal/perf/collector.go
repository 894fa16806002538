// Package perf keeps a fixed-size ring of timings for dashboard requests,
// local queries and backend calls, aggregated on read for the admin status page.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// Kind says where a timing came from.
type Kind uint8

const (
	KindRequest Kind = iota // dashboard HTTP request
	KindQuery               // local SQLite statement
	KindBackend             // call to the tuition REST API
)

// Entry is one timing record.
type Entry struct {
	Kind       Kind
	Label      string // "GET /s1b", "SELECT outbox", "POST /reports"
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a ring buffer of entries. Writes overwrite the oldest entry
// once the ring is full.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   atomic.Int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: none; size <= 0 falls back to DefaultRingSize
// POST: Returns an empty collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// Stat aggregates the timings of one label.
type Stat struct {
	Label   string
	Count   int
	Errors  int // status >= 500, requests and backend calls only
	AvgMs   float64
	MaxMs   float64
	TotalMs float64
}

// Snapshot is the aggregate view over a time window.
type Snapshot struct {
	TotalRecorded  int64
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	BackendP95Ms   float64
	SlowestPaths   []Stat
	SlowestQueries []Stat
	SlowestBackend []Stat
}

// Snapshot aggregates the entries recorded at or after since, keeping the topN
// slowest labels per kind by average duration.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	stats := [3]map[string]*Stat{{}, {}, {}}
	durations := [3][]float64{}
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) || int(e.Kind) >= len(stats) {
			continue
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
		s, ok := stats[e.Kind][e.Label]
		if !ok {
			s = &Stat{Label: e.Label}
			stats[e.Kind][e.Label] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.StatusCode >= 500 {
			s.Errors++
		}
	}

	for k := range durations {
		sort.Float64s(durations[k])
	}
	return Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		RequestP50Ms:   percentile(durations[KindRequest], 50),
		RequestP95Ms:   percentile(durations[KindRequest], 95),
		RequestP99Ms:   percentile(durations[KindRequest], 99),
		BackendP95Ms:   percentile(durations[KindBackend], 95),
		SlowestPaths:   slowest(stats[KindRequest], topN),
		SlowestQueries: slowest(stats[KindQuery], topN),
		SlowestBackend: slowest(stats[KindBackend], topN),
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(m map[string]*Stat, n int) []Stat {
	list := make([]Stat, 0, len(m))
	for _, s := range m {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Label < list[j].Label
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
