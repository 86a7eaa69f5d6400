package bench_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/benchforge/internal/bench"
	"github.com/torosent/benchforge/internal/progress"
	"github.com/torosent/benchforge/internal/suite"
)

func TestRunMeasuresIterations(t *testing.T) {
	var calls int64
	b := bench.New("demo", bench.Options{Iterations: 10, Warmup: 3}, nil)
	b.AddTask("spin", func(ctx context.Context) error {
		atomic.AddInt64(&calls, 1)
		return nil
	})

	records, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != suite.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", rec.Status, rec.Error)
	}
	if rec.Iterations != 10 {
		t.Fatalf("expected 10 measured iterations, got %d", rec.Iterations)
	}
	// Warmup iterations execute but are not measured.
	if got := atomic.LoadInt64(&calls); got != 13 {
		t.Fatalf("expected 13 total calls (3 warmup + 10 measured), got %d", got)
	}
	if rec.OpsPerSecond <= 0 {
		t.Fatalf("expected positive throughput, got %f", rec.OpsPerSecond)
	}
}

func TestRunCapturesTaskError(t *testing.T) {
	b := bench.New("demo", bench.Options{Iterations: 5}, nil)
	b.AddTask("bad", func(ctx context.Context) error {
		return errors.New("broken pipe")
	})
	b.AddTask("good", func(ctx context.Context) error { return nil })

	records, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("task errors must not escape Run: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected both tasks recorded, got %d", len(records))
	}
	if records[0].Status != suite.StatusFailed || !strings.Contains(records[0].Error, "broken pipe") {
		t.Fatalf("expected failed record, got %+v", records[0])
	}
	if records[1].Status != suite.StatusSuccess {
		t.Fatalf("later tasks must still run, got %+v", records[1])
	}
}

func TestRunOverrunYieldsPartialRecord(t *testing.T) {
	b := bench.New("demo", bench.Options{Iterations: 1000, Timeout: 30 * time.Millisecond}, nil)
	b.AddTask("slow", func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	records, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rec := records[0]
	if rec.Status != suite.StatusTimeout {
		t.Fatalf("expected timeout status, got %s", rec.Status)
	}
	if rec.Iterations == 0 || rec.Iterations >= 1000 {
		t.Fatalf("expected a partial iteration count, got %d", rec.Iterations)
	}
	if rec.AvgMs <= 0 || rec.OpsPerSecond <= 0 {
		t.Fatalf("partial record missing derived stats: %+v", rec)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := bench.New("demo", bench.Options{Iterations: 100000}, nil)
	b.AddTask("spin", func(ctx context.Context) error {
		time.Sleep(time.Millisecond)
		return nil
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := b.Run(ctx)
	if err == nil {
		t.Fatal("expected cancellation to surface from Run")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation ignored")
	}
}

func TestProgressNotifications(t *testing.T) {
	var snaps []progress.Snapshot
	b := bench.New("demo", bench.Options{Iterations: 4, Warmup: 1}, nil)
	b.AddTask("a", func(ctx context.Context) error { return nil })
	b.AddTask("b", func(ctx context.Context) error { return nil })
	b.SetProgressFunc(func(s progress.Snapshot) { snaps = append(snaps, s) })

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(snaps) == 0 {
		t.Fatal("no progress emitted")
	}

	sawWarmup := false
	last := snaps[len(snaps)-1]
	for _, s := range snaps {
		if s.Phase == progress.PhaseWarmup {
			sawWarmup = true
		}
		if s.Suite != "demo" {
			t.Fatalf("snapshot carries wrong suite: %+v", s)
		}
		if s.Current > s.Total {
			t.Fatalf("current exceeds total: %+v", s)
		}
	}
	if !sawWarmup {
		t.Fatal("expected warmup-phase snapshots")
	}
	if last.Phase != progress.PhaseComplete || last.Current != last.Total {
		t.Fatalf("expected final complete snapshot, got %+v", last)
	}
	if last.Percentage != 100 {
		t.Fatalf("expected 100%% at completion, got %f", last.Percentage)
	}
}

func TestCommandTask(t *testing.T) {
	fn := bench.Command([]string{"true"})
	if err := fn(context.Background()); err != nil {
		t.Fatalf("true must succeed: %v", err)
	}
	fn = bench.Command([]string{"false"})
	if err := fn(context.Background()); err == nil {
		t.Fatal("false must fail")
	}
	fn = bench.Command(nil)
	if err := fn(context.Background()); err == nil {
		t.Fatal("empty command must fail")
	}
}

func TestPrintResults(t *testing.T) {
	b := bench.New("demo", bench.Options{Iterations: 2}, nil)
	b.AddTask("noop", func(ctx context.Context) error { return nil })

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf bytes.Buffer
	b.PrintResults(&buf)
	out := buf.String()
	if !strings.Contains(out, "demo") || !strings.Contains(out, "noop") {
		t.Fatalf("expected suite and task names in output, got %q", out)
	}
	if !strings.Contains(out, "ops/s") {
		t.Fatalf("expected throughput in output, got %q", out)
	}
}
