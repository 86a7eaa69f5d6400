package scheduler

import "time"

// executionState is the single mutable record for one RunAll invocation,
// created fresh per run. All mutation happens under the scheduler's mutex.
type executionState struct {
	runningCount   int
	completedCount int
	totalCount     int
	running        map[string]bool
	completed      map[string]bool
	startTimes     map[string]time.Time
}

func newExecutionState(total int) *executionState {
	return &executionState{
		totalCount: total,
		running:    make(map[string]bool, total),
		completed:  make(map[string]bool, total),
		startTimes: make(map[string]time.Time, total),
	}
}

func (st *executionState) markRunning(name string, at time.Time) {
	st.running[name] = true
	st.runningCount++
	st.startTimes[name] = at
}

// markCompleted folds every terminal outcome into completed; failure does
// not block dependents from becoming ready.
func (st *executionState) markCompleted(name string) {
	if st.running[name] {
		delete(st.running, name)
		st.runningCount--
	}
	st.completed[name] = true
	st.completedCount++
}

func (st *executionState) completedSet() map[string]bool {
	out := make(map[string]bool, len(st.completed))
	for name := range st.completed {
		out[name] = true
	}
	return out
}
