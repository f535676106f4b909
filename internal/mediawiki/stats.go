package mediawiki

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at     time.Time
	tookMs int64
	failed bool
}

// StatsSnapshot aggregates the requests seen within the window.
type StatsSnapshot struct {
	Count   int     `json:"count"`
	Failed  int     `json:"failed"`
	Retries int     `json:"retries"`
	MinMs   int64   `json:"min_ms"`
	MaxMs   int64   `json:"max_ms"`
	AvgMs   float64 `json:"avg_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

// RequestStats tracks recent wiki API calls within a rolling window.
type RequestStats struct {
	mu      sync.Mutex
	samples []sample
	retries []time.Time
	maxAge  time.Duration
}

func NewRequestStats(maxAge time.Duration) *RequestStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &RequestStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one finished request. Negative durations count as zero.
func (s *RequestStats) Record(took time.Duration, failed bool) {
	ms := took.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, tookMs: ms, failed: failed})
}

// RecordRetry counts a request that is about to be repeated.
func (s *RequestStats) RecordRetry() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.retries = append(s.retries, now)
}

func (s *RequestStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{Retries: len(s.retries)}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.tookMs)
		sum += sm.tookMs
		if sm.failed {
			snap.Failed++
		}
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *RequestStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool { return sm.at.Before(cutoff) })
	s.retries = slices.DeleteFunc(s.retries, func(t time.Time) bool { return t.Before(cutoff) })
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + ((hi - lo) * weight)
}
