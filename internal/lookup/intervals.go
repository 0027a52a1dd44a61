package lookup

import (
	"sort"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// MergeIntervals sorts the intervals by start and folds overlapping or
// touching ones together. Empty and inverted intervals are dropped.
func MergeIntervals(intervals []domain.Interval) []domain.Interval {
	sorted := make([]domain.Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End > iv.Start {
			sorted = append(sorted, iv)
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var merged []domain.Interval
	for _, iv := range sorted {
		last := len(merged) - 1
		if last >= 0 && iv.Start <= merged[last].End {
			merged[last].End = max(merged[last].End, iv.End)
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

func summarizeUnavailability(rows []domain.UnavailabilityRow, machines map[string]*domain.Machine) map[string][]domain.Interval {
	byMachine := make(map[string][]domain.Interval)
	for _, row := range rows {
		if _, ok := machines[row.Machine]; !ok {
			continue
		}
		byMachine[row.Machine] = append(byMachine[row.Machine], domain.Interval{Start: row.Start, End: row.End})
	}

	summary := make(map[string][]domain.Interval, len(byMachine))
	for machine, intervals := range byMachine {
		if merged := MergeIntervals(intervals); len(merged) > 0 {
			summary[machine] = merged
		}
	}
	return summary
}
