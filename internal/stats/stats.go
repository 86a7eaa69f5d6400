// Package stats computes sample statistics for benchmark task timings.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats aggregates a task's iteration timings.
type Stats struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Total time.Duration

	// OpsPerSecond is derived from the mean: 1000 / mean-in-milliseconds.
	OpsPerSecond float64
}

// FromDurations computes statistics over the given samples. Min, max, mean
// and total are exact; percentiles come from an HDR histogram with 3
// significant figures, tracking 1µs through 60s.
func FromDurations(samples []time.Duration) Stats {
	var s Stats
	if len(samples) == 0 {
		return s
	}

	h := hdrhistogram.New(1, 60_000_000, 3)
	s.Count = len(samples)
	s.Min = samples[0]
	s.Max = samples[0]
	for _, d := range samples {
		s.Total += d
		if d < s.Min {
			s.Min = d
		}
		if d > s.Max {
			s.Max = d
		}
		us := d.Microseconds()
		if us < h.LowestTrackableValue() {
			us = h.LowestTrackableValue()
		}
		if us > h.HighestTrackableValue() {
			us = h.HighestTrackableValue()
		}
		_ = h.RecordValue(us)
	}

	s.Mean = s.Total / time.Duration(s.Count)
	s.P50 = time.Duration(h.ValueAtQuantile(50)) * time.Microsecond
	s.P90 = time.Duration(h.ValueAtQuantile(90)) * time.Microsecond
	s.P99 = time.Duration(h.ValueAtQuantile(99)) * time.Microsecond

	if meanMs := Ms(s.Mean); meanMs > 0 {
		s.OpsPerSecond = 1000 / meanMs
	}
	return s
}

// Ms converts a duration to fractional milliseconds.
func Ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
