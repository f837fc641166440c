// Package backlog maintains docs/.../backlog.md and the deterministic
// ready-WU ordering used to decide what to work on next.
package backlog

import (
	"sort"

	"github.com/lumenflow/lumenflow/internal/wu"
)

var priorityRank = map[wu.Priority]int{
	wu.PriorityP0: 0,
	wu.PriorityP1: 1,
	wu.PriorityP2: 2,
	wu.PriorityP3: 3,
}

func rank(p wu.Priority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank) // unset/unrecognized priority sorts last
}

// QueryReadyNodes returns units whose status is ready, ordered by priority
// (P0 highest) then created date ascending then id ascending — always
// re-sorted from scratch rather than maintained incrementally, so the
// order is deterministic regardless of insertion history.
func QueryReadyNodes(units []*wu.WorkUnit) []*wu.WorkUnit {
	var ready []*wu.WorkUnit
	for _, u := range units {
		if u.Status == wu.StatusReady {
			ready = append(ready, u)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		if ra, rb := rank(a.Priority), rank(b.Priority); ra != rb {
			return ra < rb
		}
		if a.Created != b.Created {
			return a.Created < b.Created
		}
		return a.ID < b.ID
	})
	return ready
}
