package domain

import "math"

// Task is a named unit of work performed on every well of a pad
type Task struct {
	Name              string
	DurationBase      float64
	PreviousTasks     []string
	PadOperation      PadOperation
	RequiresResources bool
}

// IsReady returns true if every prerequisite has a recorded completion time
// and the task itself has none
func (t *Task) IsReady(completed map[string]float64) bool {
	if _, done := completed[t.Name]; done {
		return false
	}
	for _, prev := range t.PreviousTasks {
		if _, ok := completed[prev]; !ok {
			return false
		}
	}
	return true
}

// EarliestStart returns the latest completion time among the prerequisites
func (t *Task) EarliestStart(completed map[string]float64) float64 {
	var last float64
	for _, prev := range t.PreviousTasks {
		last = math.Max(last, completed[prev])
	}
	return last
}

// Duration returns the pad-level duration of the task for the given number of
// wells still requiring it and the machine's mobilization overheads
func (t *Task) Duration(wells int, mob, demob float64) float64 {
	n := float64(wells)
	if !t.RequiresResources {
		mob, demob = 0, 0
	}
	switch t.PadOperation {
	case PadParallel:
		return t.DurationBase + mob + demob
	case PadBatch, PadSequence:
		return n*t.DurationBase + mob + demob
	case PadDisabled:
		return n * (t.DurationBase + mob + demob)
	}
	return n * t.DurationBase
}

// TaskRow is one row of the task table; a task eligible on several
// machines appears once per machine
type TaskRow struct {
	Task              string
	Machine           string
	DurationBase      float64
	PreviousTasks     []string
	PadOperation      PadOperation
	RequiresResources bool
}

// Machine is a physical resource instance such as a rig or crew
type Machine struct {
	Name           string
	AvailableFrom  float64
	AvailableTo    float64
	AvailableToRaw float64
	Mobilization   float64
	Demobilization float64
}

// Extended reports whether the machine's lifetime was raised for planning
func (m *Machine) Extended() bool {
	return math.IsInf(m.AvailableTo, 1) && !math.IsInf(m.AvailableToRaw, 1)
}

// ResourceRow is one row of the resource table
type ResourceRow struct {
	Machine        string
	AvailableFrom  float64
	AvailableTo    float64
	Mobilization   float64
	Demobilization float64
}
