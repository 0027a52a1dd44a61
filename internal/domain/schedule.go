package domain

import "time"

// Assignment is one pad-level task placement
type Assignment struct {
	Pad      string
	Task     string
	Machine  string
	Start    float64
	End      float64
	Duration float64
}

// Hint is a pad-level assignment exploded onto one well, with the well's
// own mobilization, main and demobilization windows
type Hint struct {
	Job               string
	Pad               string
	Task              string
	Machine           string
	PadOperation      PadOperation
	RequiresResources bool

	// Pad-level bounds copied from the assignment
	Start    float64
	End      float64
	Duration float64

	DurationBase   float64
	Mobilization   float64
	Demobilization float64

	Order         int
	FirstJobOnPad bool
	LastJobOnPad  bool

	Mob   Interval
	Main  Interval
	Demob Interval
}

// Window returns the well's interval for the given subtask
func (h *Hint) Window(s Subtask) Interval {
	switch s {
	case SubtaskMob:
		return h.Mob
	case SubtaskDemob:
		return h.Demob
	default:
		return h.Main
	}
}

// Span returns the interval covering all three subtasks of the well
func (h *Hint) Span() Interval {
	return Interval{Start: h.Mob.Start, End: h.Demob.End}
}

// ScheduleRow is one line of the final schedule; zero-length subtasks
// carry nil Start, End and Duration
type ScheduleRow struct {
	Job      string     `json:"job"`
	Task     string     `json:"task"`
	Machine  string     `json:"machine,omitempty"`
	Subtask  Subtask    `json:"subtask"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Duration *float64   `json:"duration"`
}
