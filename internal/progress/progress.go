// Package progress merges per-suite progress snapshots into one aggregate
// stream for a single external callback.
package progress

import (
	"sort"
	"sync"
)

// Phase identifies which part of a task's lifecycle a snapshot belongs to.
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
)

// Snapshot is one suite's latest progress state. Ephemeral; only the latest
// snapshot per suite is retained.
type Snapshot struct {
	Suite      string  `json:"suite"`
	Task       string  `json:"task"`
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Phase      Phase   `json:"phase"`
}

// Func receives progress snapshots.
type Func func(Snapshot)

// Notifier is an optional capability a Runnable may implement to stream
// progress while it runs. The scheduler wires it up before Run.
type Notifier interface {
	SetProgressFunc(fn Func)
}

// Aggregator keeps the latest snapshot per suite and folds them into a
// single aggregate view. The aggregate's identity fields (suite, task,
// phase) follow the most recent update, last-write-wins; they are a
// best-effort snapshot, not a globally consistent view.
type Aggregator struct {
	mu       sync.Mutex
	latest   map[string]Snapshot
	lastSeen Snapshot
	callback Func
}

// NewAggregator creates an aggregator. callback may be nil.
func NewAggregator(callback Func) *Aggregator {
	return &Aggregator{
		latest:   make(map[string]Snapshot),
		callback: callback,
	}
}

// Update upserts a suite's snapshot, recomputes the aggregate, and invokes
// the callback synchronously if one is registered.
func (a *Aggregator) Update(suiteName string, snap Snapshot) {
	snap.Suite = suiteName

	a.mu.Lock()
	a.latest[suiteName] = snap
	a.lastSeen = snap
	agg := a.aggregateLocked()
	cb := a.callback
	a.mu.Unlock()

	if cb != nil {
		cb(agg)
	}
}

// Remove drops a suite's entry on completion. No callback is re-emitted.
func (a *Aggregator) Remove(suiteName string) {
	a.mu.Lock()
	delete(a.latest, suiteName)
	a.mu.Unlock()
}

// Aggregate returns the current merged view across all tracked suites.
func (a *Aggregator) Aggregate() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aggregateLocked()
}

// Snapshots returns the latest snapshot of every tracked suite, sorted by
// suite name.
func (a *Aggregator) Snapshots() []Snapshot {
	a.mu.Lock()
	snaps := make([]Snapshot, 0, len(a.latest))
	for _, snap := range a.latest {
		snaps = append(snaps, snap)
	}
	a.mu.Unlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Suite < snaps[j].Suite })
	return snaps
}

// Tracked returns the number of suites currently reporting progress.
func (a *Aggregator) Tracked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.latest)
}

func (a *Aggregator) aggregateLocked() Snapshot {
	agg := Snapshot{
		Suite: a.lastSeen.Suite,
		Task:  a.lastSeen.Task,
		Phase: a.lastSeen.Phase,
	}
	for _, snap := range a.latest {
		agg.Current += snap.Current
		agg.Total += snap.Total
	}
	if agg.Total > 0 {
		agg.Percentage = float64(agg.Current) / float64(agg.Total) * 100
	}
	return agg
}
