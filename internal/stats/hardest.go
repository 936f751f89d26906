package stats

import (
	"sort"

	"github.com/verte-zerg/cbminer/internal/model"
)

// HardestActivities returns up to top activities with the lowest accept
// rate, ties broken by more attempts first. Activities with fewer than
// minAttempts attempts are ignored.
func HardestActivities(aggs []model.ActivityAggregate, top, minAttempts int) []model.ActivityAggregate {
	candidates := make([]model.ActivityAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Attempts > 0 && agg.Attempts >= minAttempts {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri := AcceptRate(candidates[i])
		rj := AcceptRate(candidates[j])
		if ri != rj {
			return ri < rj
		}
		if candidates[i].Attempts != candidates[j].Attempts {
			return candidates[i].Attempts > candidates[j].Attempts
		}
		return candidates[i].Activity < candidates[j].Activity
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}
