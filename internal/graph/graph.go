// Package graph validates and orders suite dependency declarations.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/torosent/benchforge/internal/suite"
)

// UnknownDependencyError reports a dependsOn entry naming an unregistered suite.
type UnknownDependencyError struct {
	Suite      string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("suite %q depends on unknown suite %q", e.Suite, e.Dependency)
}

// CycleError reports the suites left unresolved by the topological sort:
// the cycle participants plus any suites blocked behind them.
type CycleError struct {
	Suites []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving suites: %s", strings.Join(e.Suites, ", "))
}

// TopologicalSort orders suites so that every suite follows all of its
// dependencies, using Kahn's in-degree-zero queue. It fails on the first
// dependsOn entry that names no registered suite, and fails with a CycleError
// when the graph is cyclic. Runs once at setup; a cycle is a configuration
// error, never a runtime one.
func TopologicalSort(suites []suite.Descriptor) ([]string, error) {
	names := make(map[string]bool, len(suites))
	for _, s := range suites {
		names[s.Name] = true
	}

	// forward[A] = [B] means A must complete before B.
	forward := make(map[string][]string, len(suites))
	inDegree := make(map[string]int, len(suites))
	for _, s := range suites {
		inDegree[s.Name] = 0
	}

	for _, s := range suites {
		seen := make(map[string]bool)
		for _, dep := range s.DependsOn {
			if !names[dep] {
				return nil, &UnknownDependencyError{Suite: s.Name, Dependency: dep}
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			forward[dep] = append(forward[dep], s.Name)
			inDegree[s.Name]++
		}
	}

	var queue []string
	for _, s := range suites {
		if inDegree[s.Name] == 0 {
			queue = append(queue, s.Name)
		}
	}

	order := make([]string, 0, len(suites))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, succ := range forward[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(suites) {
		var unresolved []string
		for name, deg := range inDegree {
			if deg > 0 {
				unresolved = append(unresolved, name)
			}
		}
		sort.Strings(unresolved)
		return nil, &CycleError{Suites: unresolved}
	}

	return order, nil
}

// Executable returns the suites not yet completed whose dependencies are all
// in completed, preserving registration order. Suites with no dependencies
// are always executable. Pure and monotonic over a growing completed set.
func Executable(suites []suite.Descriptor, completed map[string]bool) []suite.Descriptor {
	var ready []suite.Descriptor
	for _, s := range suites {
		if completed[s.Name] {
			continue
		}
		ok := true
		for _, dep := range s.DependsOn {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, s)
		}
	}
	return ready
}
