// Package errtally reduces the error names seen in an attempt to per-type counts.
package errtally

import (
	"sort"

	"github.com/verte-zerg/cbminer/internal/model"
)

// Aggregate returns one occurrence record per distinct error name.
// Records are sorted by descending count, then name, so output is stable.
func Aggregate(names []string) []model.ErrorOccurrence {
	if len(names) == 0 {
		return nil
	}
	counts := make(map[string]int, len(names))
	for _, name := range names {
		counts[name]++
	}
	out := make([]model.ErrorOccurrence, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.ErrorOccurrence{ErrorTypeName: name, Occurrences: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences == out[j].Occurrences {
			return out[i].ErrorTypeName < out[j].ErrorTypeName
		}
		return out[i].Occurrences > out[j].Occurrences
	})
	return out
}

// Total sums the occurrences of all records.
func Total(occurrences []model.ErrorOccurrence) int {
	total := 0
	for _, o := range occurrences {
		total += o.Occurrences
	}
	return total
}
