package mediawiki

import (
	"testing"
	"time"
)

func TestRequestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewRequestStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, ms == 500)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Failed != 1 {
		t.Fatalf("expected failed=1, got %d", snap.Failed)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestRequestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewRequestStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, false)
	stats.RecordRetry()
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 || snap.Retries != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record(200*time.Millisecond, false)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestRequestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewRequestStats(time.Hour)
	stats.Record(-10*time.Millisecond, false)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
