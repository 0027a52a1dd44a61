// Package postprocess turns pad-level assignments into the per-well,
// per-subtask schedule.
package postprocess

import (
	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/precedence"
	"github.com/hochfrequenz/padsched/internal/scheduler"
)

// Explode crosses every pad's wells with the tasks they still need and joins
// the pad-level assignment onto each pair. Hints come out in pad rank order,
// then well rank, then task-table order.
func Explode(idx *lookup.Index, adj *precedence.StatusAdjustments, plan *scheduler.Plan) []domain.Hint {
	var hints []domain.Hint
	for _, pad := range idx.Pads {
		for _, job := range pad.Jobs {
			for _, name := range idx.TaskOrder {
				if adj.Skip(job, name) {
					continue
				}
				a, ok := plan.Assignment(pad.Name, name)
				if !ok {
					continue
				}

				task := idx.Tasks[name]
				h := domain.Hint{
					Job:               job,
					Pad:               pad.Name,
					Task:              name,
					Machine:           a.Machine,
					PadOperation:      task.PadOperation,
					RequiresResources: task.RequiresResources,
					Start:             a.Start,
					End:               a.End,
					Duration:          a.Duration,
					DurationBase:      task.DurationBase,
				}
				if m, ok := idx.Machines[a.Machine]; ok {
					h.Mobilization = m.Mobilization
					h.Demobilization = m.Demobilization
				}
				hints = append(hints, h)
			}
		}
	}
	return hints
}
