// pattern: Functional Core

package render

import (
	"slices"
	"strings"

	"projscan/internal/analysis"
)

var statusOrder = map[string]int{
	analysis.StatusActive: 0,
	analysis.StatusRecent: 1,
	analysis.StatusStale:  2,
}

func statusRank(status string) int {
	if r, ok := statusOrder[status]; ok {
		return r
	}
	return len(statusOrder)
}

// Rank returns projects ordered by status, then most recent activity, then
// name. The input is left untouched.
func Rank(projects []analysis.Project) []analysis.Project {
	ranked := slices.Clone(projects)
	slices.SortStableFunc(ranked, func(a, b analysis.Project) int {
		if d := statusRank(a.Status) - statusRank(b.Status); d != 0 {
			return d
		}
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return ranked
}

// Counts tallies projects per status.
func Counts(projects []analysis.Project) map[string]int {
	counts := make(map[string]int, len(statusOrder))
	for _, p := range projects {
		counts[p.Status]++
	}
	return counts
}
