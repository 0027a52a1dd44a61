// Package precedence resolves transitive task prerequisites and the work
// already completed on each well.
package precedence

import (
	"fmt"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
)

// Closure maps a task to itself plus every task it transitively requires
type Closure map[string]map[string]bool

// AllDescendants computes the reflexive-transitive prerequisite closure of
// every task with a worklist walk.
func AllDescendants(tasks map[string]*domain.Task) Closure {
	closure := make(Closure, len(tasks))
	for name := range tasks {
		visited := map[string]bool{name: true}
		queue := []string{name}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			task, ok := tasks[current]
			if !ok {
				continue
			}
			for _, prev := range task.PreviousTasks {
				if !visited[prev] {
					visited[prev] = true
					queue = append(queue, prev)
				}
			}
		}
		closure[name] = visited
	}
	return closure
}

// PadTask keys a counter by pad and task
type PadTask struct {
	Pad  string
	Task string
}

// JobTask keys a (well, task) pair
type JobTask struct {
	Job  string
	Task string
}

// StatusAdjustments records the work each well has already completed
type StatusAdjustments struct {
	// Offset counts, per pad and task, the wells that no longer need the task
	Offset map[PadTask]int
	// DoNotSchedule marks (well, task) pairs satisfied by the well's status
	DoNotSchedule map[JobTask]bool
	// InstantFPDWells lists wells whose status covers every task
	InstantFPDWells []string
}

// Multiplier returns the number of wells on pad still requiring task
func (a *StatusAdjustments) Multiplier(pad *domain.Pad, task string) int {
	return len(pad.Jobs) - a.Offset[PadTask{Pad: pad.Name, Task: task}]
}

// Skip reports whether job's status already covers task
func (a *StatusAdjustments) Skip(job, task string) bool {
	return a.DoNotSchedule[JobTask{Job: job, Task: task}]
}

// CollectStatus discounts, per pad and task, the wells whose declared status
// already covers the task.
func CollectStatus(idx *lookup.Index, closure Closure) (*StatusAdjustments, error) {
	adj := &StatusAdjustments{
		Offset:        make(map[PadTask]int),
		DoNotSchedule: make(map[JobTask]bool),
	}

	for _, pad := range idx.Pads {
		for _, job := range pad.Jobs {
			status := idx.Wells[job].Status
			if status == "" {
				continue
			}
			covered, ok := closure[status]
			if !ok {
				return nil, fmt.Errorf("well %q status %q: %w", job, status, lookup.ErrUnknownTask)
			}

			for task := range covered {
				adj.Offset[PadTask{Pad: pad.Name, Task: task}]++
				adj.DoNotSchedule[JobTask{Job: job, Task: task}] = true
			}
			if len(covered) == len(idx.Tasks) {
				adj.InstantFPDWells = append(adj.InstantFPDWells, job)
			}
		}
	}

	return adj, nil
}
