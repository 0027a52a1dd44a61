package postprocess

import (
	"time"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// CleanDegenerate drops the resourceless tasks whose window is the same on
// every well; they carry no scheduling information once exploded.
func CleanDegenerate(hints []domain.Hint) []domain.Hint {
	spans := make(map[string]domain.Interval)
	varies := make(map[string]bool)
	for _, h := range hints {
		if h.RequiresResources {
			continue
		}
		span, seen := spans[h.Task]
		if !seen {
			spans[h.Task] = h.Span()
			continue
		}
		if span != h.Span() {
			varies[h.Task] = true
		}
	}

	kept := make([]domain.Hint, 0, len(hints))
	for _, h := range hints {
		if !h.RequiresResources && !varies[h.Task] {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// Melt produces one row per well, task and subtask with calendar dates
// counted in days from startProgram. Zero-length subtasks keep their row
// with nil timing.
func Melt(hints []domain.Hint, startProgram time.Time) []domain.ScheduleRow {
	rows := make([]domain.ScheduleRow, 0, len(hints)*len(domain.Subtasks))
	for i := range hints {
		h := &hints[i]
		for _, s := range domain.Subtasks {
			row := domain.ScheduleRow{
				Job:     h.Job,
				Task:    h.Task,
				Machine: h.Machine,
				Subtask: s,
			}

			w := h.Window(s)
			if d := w.End - w.Start; d > 0 {
				start := OffsetDate(startProgram, w.Start)
				end := OffsetDate(startProgram, w.End)
				row.Start, row.End, row.Duration = &start, &end, &d
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// OffsetDate converts a day offset into a calendar time
func OffsetDate(base time.Time, days float64) time.Time {
	return base.Add(time.Duration(days * float64(24*time.Hour)))
}
