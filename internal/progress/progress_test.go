package progress_test

import (
	"math"
	"testing"

	"github.com/torosent/benchforge/internal/progress"
)

func TestUpdateAggregatesAcrossSuites(t *testing.T) {
	var got []progress.Snapshot
	a := progress.NewAggregator(func(s progress.Snapshot) {
		got = append(got, s)
	})

	a.Update("alpha", progress.Snapshot{Task: "t1", Current: 25, Total: 100, Phase: progress.PhaseRunning})
	a.Update("beta", progress.Snapshot{Task: "t2", Current: 25, Total: 100, Phase: progress.PhaseWarmup})

	if len(got) != 2 {
		t.Fatalf("expected 2 callback invocations, got %d", len(got))
	}
	last := got[1]
	if last.Current != 50 || last.Total != 200 {
		t.Fatalf("expected 50/200 aggregate, got %d/%d", last.Current, last.Total)
	}
	if math.Abs(last.Percentage-25) > 1e-9 {
		t.Fatalf("expected 25%%, got %f", last.Percentage)
	}
	// Identity fields follow the most recent update.
	if last.Suite != "beta" || last.Task != "t2" || last.Phase != progress.PhaseWarmup {
		t.Fatalf("expected last-write-wins identity, got %+v", last)
	}
}

func TestZeroTotalYieldsZeroPercentage(t *testing.T) {
	a := progress.NewAggregator(nil)
	a.Update("alpha", progress.Snapshot{Task: "t", Current: 0, Total: 0})
	if pct := a.Aggregate().Percentage; pct != 0 {
		t.Fatalf("expected 0%% with zero total, got %f", pct)
	}
}

func TestUpdateUpsertsLatestSnapshot(t *testing.T) {
	a := progress.NewAggregator(nil)
	a.Update("alpha", progress.Snapshot{Task: "t", Current: 10, Total: 100})
	a.Update("alpha", progress.Snapshot{Task: "t", Current: 90, Total: 100})

	agg := a.Aggregate()
	if agg.Current != 90 || agg.Total != 100 {
		t.Fatalf("expected upsert to replace, got %d/%d", agg.Current, agg.Total)
	}
	if a.Tracked() != 1 {
		t.Fatalf("expected 1 tracked suite, got %d", a.Tracked())
	}
}

func TestRemoveDropsEntryWithoutCallback(t *testing.T) {
	calls := 0
	a := progress.NewAggregator(func(progress.Snapshot) { calls++ })
	a.Update("alpha", progress.Snapshot{Task: "t", Current: 5, Total: 10})
	a.Update("beta", progress.Snapshot{Task: "u", Current: 5, Total: 10})

	before := calls
	a.Remove("alpha")
	if calls != before {
		t.Fatal("Remove must not re-emit the callback")
	}
	agg := a.Aggregate()
	if agg.Current != 5 || agg.Total != 10 {
		t.Fatalf("expected beta only after removal, got %d/%d", agg.Current, agg.Total)
	}
}

func TestSnapshotsSortedBySuite(t *testing.T) {
	a := progress.NewAggregator(nil)
	a.Update("zeta", progress.Snapshot{Current: 1, Total: 10})
	a.Update("alpha", progress.Snapshot{Current: 2, Total: 20})
	a.Update("mid", progress.Snapshot{Current: 3, Total: 30})

	snaps := a.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[0].Suite != "alpha" || snaps[1].Suite != "mid" || snaps[2].Suite != "zeta" {
		t.Fatalf("snapshots not sorted by suite: %v", snaps)
	}
	if snaps[0].Current != 2 {
		t.Fatalf("expected alpha snapshot data, got %+v", snaps[0])
	}
}
