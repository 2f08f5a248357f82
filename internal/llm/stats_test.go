package llm

import (
	"errors"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(OpSummarize, time.Duration(ms)*time.Millisecond, nil)
	}

	snap, ok := stats.Snapshot()[OpSummarize]
	if !ok {
		t.Fatal("expected summarize snapshot")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
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
}

func TestStatsSeparatesOperationsAndCountsFailures(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(OpSummarize, 10*time.Millisecond, nil)
	stats.Record(OpSummarize, 20*time.Millisecond, errors.New("timeout"))
	stats.Record(OpAnswer, 30*time.Millisecond, nil)

	snaps := stats.Snapshot()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(snaps))
	}
	if snaps[OpSummarize].Count != 2 || snaps[OpSummarize].Failures != 1 {
		t.Errorf("summarize: expected count=2 failures=1, got %+v", snaps[OpSummarize])
	}
	if snaps[OpAnswer].Count != 1 || snaps[OpAnswer].Failures != 0 {
		t.Errorf("answer: expected count=1 failures=0, got %+v", snaps[OpAnswer])
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(OpAnswer, 100*time.Millisecond, nil)
	time.Sleep(25 * time.Millisecond)

	if _, ok := stats.Snapshot()[OpAnswer]; ok {
		t.Fatal("expected expired samples to be pruned")
	}

	stats.Record(OpAnswer, 200*time.Millisecond, nil)
	snap := stats.Snapshot()[OpAnswer]
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one fresh 200ms sample, got %+v", snap)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(OpAnswer, -10*time.Millisecond, nil)
	snap := stats.Snapshot()[OpAnswer]
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}
