package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/precedence"
)

var (
	// ErrNoFeasibleResource is returned when every eligible machine of a task
	// has been exhausted
	ErrNoFeasibleResource = errors.New("no feasible resource assignment")
	// ErrStalledPad is returned when a pad has unscheduled tasks but none is legal
	ErrStalledPad = errors.New("no legal task left on pad")
)

// Options tunes the scheduling pass
type Options struct {
	TieBreak domain.TieBreak
}

// State is the mutable bookkeeping of one scheduling pass
type State struct {
	// Precedence holds task completion times per pad
	Precedence map[string]map[string]float64
	// Cursor holds the next free time per machine; +Inf marks it exhausted
	Cursor map[string]float64
	// Unavailable holds the blackout windows not yet passed per machine
	Unavailable map[string][]domain.Interval
}

// NewState copies the resource cursors and blackout windows of the index so
// a pass never mutates it
func NewState(idx *lookup.Index) *State {
	st := &State{
		Precedence:  make(map[string]map[string]float64, len(idx.Pads)),
		Cursor:      make(map[string]float64, len(idx.ResourceCursor)),
		Unavailable: make(map[string][]domain.Interval, len(idx.Unavailability)),
	}
	for m, c := range idx.ResourceCursor {
		st.Cursor[m] = c
	}
	for m, windows := range idx.Unavailability {
		st.Unavailable[m] = append([]domain.Interval(nil), windows...)
	}
	return st
}

// Scheduler places every task of every pad on the timeline
type Scheduler struct {
	idx   *lookup.Index
	adj   *precedence.StatusAdjustments
	opts  Options
	state *State

	assignments []domain.Assignment
}

// New creates a new Scheduler
func New(idx *lookup.Index, adj *precedence.StatusAdjustments, opts Options) *Scheduler {
	if opts.TieBreak == "" {
		opts.TieBreak = domain.TieBreakInputOrder
	}
	return &Scheduler{
		idx:   idx,
		adj:   adj,
		opts:  opts,
		state: NewState(idx),
	}
}

// Plan is the pad-level outcome of a scheduling pass
type Plan struct {
	Assignments []domain.Assignment
	Precedence  map[string]map[string]float64

	byPadTask map[precedence.PadTask]int
}

// Assignment returns the assignment of task on pad, if one was recorded
func (p *Plan) Assignment(pad, task string) (domain.Assignment, bool) {
	i, ok := p.byPadTask[precedence.PadTask{Pad: pad, Task: task}]
	if !ok {
		return domain.Assignment{}, false
	}
	return p.Assignments[i], true
}

// Run schedules the pads in rank order
func (s *Scheduler) Run() (*Plan, error) {
	for _, pad := range s.idx.Pads {
		if err := s.SchedulePad(pad); err != nil {
			return nil, err
		}
	}

	plan := &Plan{
		Assignments: s.assignments,
		Precedence:  s.state.Precedence,
		byPadTask:   make(map[precedence.PadTask]int, len(s.assignments)),
	}
	for i, a := range s.assignments {
		plan.byPadTask[precedence.PadTask{Pad: a.Pad, Task: a.Task}] = i
	}
	return plan, nil
}

// State exposes the bookkeeping of the pass
func (s *Scheduler) State() *State {
	return s.state
}

// SchedulePad repeatedly schedules the legal frontier of pad until every
// task has a completion time
func (s *Scheduler) SchedulePad(pad *domain.Pad) error {
	done, ok := s.state.Precedence[pad.Name]
	if !ok {
		done = make(map[string]float64, len(s.idx.TaskOrder))
		s.state.Precedence[pad.Name] = done
	}

	for len(done) < len(s.idx.TaskOrder) {
		ready := s.ReadyTasks(pad.Name)
		if len(ready) == 0 {
			return fmt.Errorf("pad %q: %w", pad.Name, ErrStalledPad)
		}
		for _, task := range ready {
			if err := s.scheduleTask(pad, task); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadyTasks returns, in task-table order, the tasks of pad whose
// prerequisites are all scheduled and which are not scheduled themselves
func (s *Scheduler) ReadyTasks(pad string) []*domain.Task {
	done := s.state.Precedence[pad]

	var ready []*domain.Task
	for _, name := range s.idx.TaskOrder {
		task := s.idx.Tasks[name]
		if task.IsReady(done) {
			ready = append(ready, task)
		}
	}
	return ready
}

func (s *Scheduler) scheduleTask(pad *domain.Pad, task *domain.Task) error {
	done := s.state.Precedence[pad.Name]

	wells := s.adj.Multiplier(pad, task.Name)
	if wells <= 0 {
		done[task.Name] = 0
		return nil
	}

	tLast := task.EarliestStart(done)

	var (
		assignment domain.Assignment
		err        error
	)
	if task.RequiresResources {
		assignment, err = s.placeOnMachine(pad, task, wells, tLast)
		if err != nil {
			return err
		}
	} else {
		duration := task.Duration(wells, 0, 0)
		assignment = domain.Assignment{
			Pad:      pad.Name,
			Task:     task.Name,
			Start:    tLast,
			End:      tLast + duration,
			Duration: duration,
		}
	}

	s.assignments = append(s.assignments, assignment)
	done[task.Name] = assignment.End
	return nil
}

// placeOnMachine retries the least-loaded eligible machine until one clears
// both its blackout windows and its lifetime. Each retry either drops a
// blackout window or exhausts a machine, so the loop terminates.
func (s *Scheduler) placeOnMachine(pad *domain.Pad, task *domain.Task, wells int, tLast float64) (domain.Assignment, error) {
	machines := s.idx.TaskMachines[task.Name]

	for {
		name, ok := s.pickMachine(machines)
		if !ok {
			return domain.Assignment{}, fmt.Errorf("pad %q task %q (machines %v): %w",
				pad.Name, task.Name, machines, ErrNoFeasibleResource)
		}

		m := s.idx.Machines[name]
		duration := task.Duration(wells, m.Mobilization, m.Demobilization)
		start := math.Max(s.state.Cursor[name], tLast)
		end := start + duration

		if until, blocked := s.blockedUntil(name, domain.Interval{Start: start, End: end}); blocked {
			s.state.Cursor[name] = until
			continue
		}
		if end > m.AvailableTo {
			s.state.Cursor[name] = math.Inf(1)
			continue
		}

		s.state.Cursor[name] = end
		return domain.Assignment{
			Pad:      pad.Name,
			Task:     task.Name,
			Machine:  name,
			Start:    start,
			End:      end,
			Duration: duration,
		}, nil
	}
}

// pickMachine returns the eligible machine with the smallest cursor;
// exhausted machines are never picked
func (s *Scheduler) pickMachine(machines []string) (string, bool) {
	var (
		best  string
		found bool
	)
	for _, m := range machines {
		c := s.state.Cursor[m]
		if math.IsInf(c, 1) {
			continue
		}
		if !found {
			best, found = m, true
			continue
		}

		bc := s.state.Cursor[best]
		switch {
		case c < bc:
			best = m
		case c == bc && s.opts.TieBreak == domain.TieBreakName && m < best:
			best = m
		}
	}
	return best, found
}

// blockedUntil reports the end of the first blackout window of machine
// overlapping iv, dropping that window and every earlier one
func (s *Scheduler) blockedUntil(machine string, iv domain.Interval) (float64, bool) {
	windows := s.state.Unavailable[machine]
	for i, w := range windows {
		if w.Overlaps(iv) {
			s.state.Unavailable[machine] = windows[i+1:]
			return w.End, true
		}
	}
	return 0, false
}
