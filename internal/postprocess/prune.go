package postprocess

import (
	"github.com/hochfrequenz/padsched/internal/domain"
)

// Violation is one task ending after its machine's true lifetime
type Violation struct {
	Job         string
	Task        string
	Machine     string
	End         float64
	AvailableTo float64
}

// Underresourced lists the wells removed from the schedule and why
type Underresourced struct {
	Wells      []string
	Violations []Violation
}

// PruneUnderresourced removes every well with at least one task ending after
// the raw available_to of its machine.
func PruneUnderresourced(hints []domain.Hint, machines map[string]*domain.Machine) ([]domain.Hint, Underresourced) {
	var report Underresourced
	dropped := make(map[string]bool)

	for _, h := range hints {
		m, ok := machines[h.Machine]
		if !ok || h.End <= m.AvailableToRaw {
			continue
		}
		report.Violations = append(report.Violations, Violation{
			Job:         h.Job,
			Task:        h.Task,
			Machine:     h.Machine,
			End:         h.End,
			AvailableTo: m.AvailableToRaw,
		})
		if !dropped[h.Job] {
			dropped[h.Job] = true
			report.Wells = append(report.Wells, h.Job)
		}
	}

	if len(dropped) == 0 {
		return hints, report
	}

	kept := make([]domain.Hint, 0, len(hints))
	for _, h := range hints {
		if !dropped[h.Job] {
			kept = append(kept, h)
		}
	}
	return kept, report
}
