package lookup

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hochfrequenz/padsched/internal/domain"
)

var (
	// ErrUnknownTask is returned when a prerequisite or status names a task
	// missing from the task table
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownMachine is returned when the task table names a machine
	// missing from the resource table
	ErrUnknownMachine = errors.New("unknown machine")
	// ErrCyclicTasks is returned when the prerequisite graph has a cycle
	ErrCyclicTasks = errors.New("cyclic task prerequisites")
	// ErrNoEligibleResource is returned for a resource-bound task without machines
	ErrNoEligibleResource = errors.New("no eligible resource")
)

// Index holds the lookup tables of one scheduling run
type Index struct {
	// TaskOrder lists task names by first appearance in the task table
	TaskOrder []string
	// TopoOrder lists task names so every task follows its prerequisites
	TopoOrder    []string
	Tasks        map[string]*domain.Task
	TaskMachines map[string][]string

	Machines     map[string]*domain.Machine
	// MachineOrder lists machine names by first appearance in the resource table
	MachineOrder []string

	Wells map[string]*domain.Well
	Pads  []*domain.Pad
	PadBy map[string]*domain.Pad

	// ResourceCursor is the next time each machine is free
	ResourceCursor map[string]float64
	// Unavailability holds the merged blackout windows per machine
	Unavailability map[string][]domain.Interval
}

// Build converts the input tables into an Index
func Build(in *domain.Inputs) (*Index, error) {
	idx := &Index{
		Tasks:          make(map[string]*domain.Task),
		TaskMachines:   make(map[string][]string),
		Machines:       make(map[string]*domain.Machine),
		Wells:          make(map[string]*domain.Well),
		PadBy:          make(map[string]*domain.Pad),
		ResourceCursor: make(map[string]float64),
	}

	idx.buildMachines(in.Resources)

	if err := idx.buildTasks(in.Tasks); err != nil {
		return nil, err
	}

	topo, err := TopologicalSort(idx.TaskOrder, idx.Tasks)
	if err != nil {
		return nil, err
	}
	idx.TopoOrder = topo

	idx.extendLifetimes()
	idx.buildWells(in.Ranks)
	idx.Unavailability = summarizeUnavailability(in.Unavailability, idx.Machines)

	return idx, nil
}

func (idx *Index) buildMachines(rows []domain.ResourceRow) {
	for _, row := range rows {
		if _, seen := idx.Machines[row.Machine]; seen {
			continue
		}
		to := math.Max(row.AvailableTo, 0)
		m := &domain.Machine{
			Name:           row.Machine,
			AvailableFrom:  math.Max(row.AvailableFrom, 0),
			AvailableTo:    to,
			AvailableToRaw: to,
			Mobilization:   row.Mobilization,
			Demobilization: row.Demobilization,
		}
		idx.Machines[m.Name] = m
		idx.MachineOrder = append(idx.MachineOrder, m.Name)
		idx.ResourceCursor[m.Name] = m.AvailableFrom
	}
}

func (idx *Index) buildTasks(rows []domain.TaskRow) error {
	for _, row := range rows {
		task, seen := idx.Tasks[row.Task]
		if !seen {
			task = &domain.Task{
				Name:              row.Task,
				DurationBase:      row.DurationBase,
				PreviousTasks:     dedupe(row.PreviousTasks),
				PadOperation:      row.PadOperation,
				RequiresResources: row.RequiresResources,
			}
			idx.Tasks[row.Task] = task
			idx.TaskOrder = append(idx.TaskOrder, row.Task)
			idx.TaskMachines[row.Task] = nil
		}

		if !task.RequiresResources || row.Machine == "" {
			continue
		}
		if _, ok := idx.Machines[row.Machine]; !ok {
			return fmt.Errorf("task %q: %q: %w", row.Task, row.Machine, ErrUnknownMachine)
		}
		if !contains(idx.TaskMachines[row.Task], row.Machine) {
			idx.TaskMachines[row.Task] = append(idx.TaskMachines[row.Task], row.Machine)
		}
	}

	for _, name := range idx.TaskOrder {
		if idx.Tasks[name].RequiresResources && len(idx.TaskMachines[name]) == 0 {
			return fmt.Errorf("task %q: %w", name, ErrNoEligibleResource)
		}
	}
	return nil
}

// extendLifetimes raises available_to to infinity for the longest-lived
// machines of every task; the raw value is kept for pruning.
func (idx *Index) extendLifetimes() {
	for _, name := range idx.TaskOrder {
		machines := idx.TaskMachines[name]
		if len(machines) == 0 {
			continue
		}

		longest := math.Inf(-1)
		for _, m := range machines {
			longest = math.Max(longest, idx.Machines[m].AvailableToRaw)
		}
		for _, m := range machines {
			if idx.Machines[m].AvailableToRaw == longest {
				idx.Machines[m].AvailableTo = math.Inf(1)
			}
		}
	}
}

func (idx *Index) buildWells(rows []domain.RankRow) {
	var unique []domain.RankRow
	seen := make(map[string]bool)
	for _, row := range rows {
		if seen[row.Job] {
			continue
		}
		seen[row.Job] = true
		unique = append(unique, row)
	}

	ranks := denseRanks(unique)
	splitPads := idx.allDisabled()

	for _, row := range unique {
		pad := row.Pad
		if pad == "" || splitPads {
			pad = row.Job
		}
		idx.Wells[row.Job] = &domain.Well{
			Job:    row.Job,
			Pad:    pad,
			Rank:   ranks[row.Job],
			Status: row.Status,
		}

		p, ok := idx.PadBy[pad]
		if !ok {
			p = &domain.Pad{Name: pad, Rank: ranks[row.Job]}
			idx.PadBy[pad] = p
			idx.Pads = append(idx.Pads, p)
		}
		p.Rank = min(p.Rank, ranks[row.Job])
		p.Jobs = append(p.Jobs, row.Job)
	}

	for _, p := range idx.Pads {
		sort.SliceStable(p.Jobs, func(i, j int) bool {
			wi, wj := idx.Wells[p.Jobs[i]], idx.Wells[p.Jobs[j]]
			if wi.Rank != wj.Rank {
				return wi.Rank < wj.Rank
			}
			return NaturalLess(wi.Job, wj.Job)
		})
	}
	sort.SliceStable(idx.Pads, func(i, j int) bool {
		if idx.Pads[i].Rank != idx.Pads[j].Rank {
			return idx.Pads[i].Rank < idx.Pads[j].Rank
		}
		return NaturalLess(idx.Pads[i].Name, idx.Pads[j].Name)
	})
}

func (idx *Index) allDisabled() bool {
	if len(idx.TaskOrder) == 0 {
		return false
	}
	for _, task := range idx.Tasks {
		if task.PadOperation != domain.PadDisabled {
			return false
		}
	}
	return true
}

// denseRanks assigns 1-based dense ranks. Rows without a rank follow all
// ranked rows in natural job order, so W-9 comes before W-10; when no row
// has a rank the job id alone decides.
func denseRanks(rows []domain.RankRow) map[string]int {
	var values []float64
	var unranked []string
	for _, row := range rows {
		if row.Rank == nil {
			unranked = append(unranked, row.Job)
			continue
		}
		values = append(values, *row.Rank)
	}
	sort.Float64s(values)

	dense := make(map[float64]int)
	for _, v := range values {
		if _, ok := dense[v]; !ok {
			dense[v] = len(dense) + 1
		}
	}

	ranks := make(map[string]int, len(rows))
	for _, row := range rows {
		if row.Rank != nil {
			ranks[row.Job] = dense[*row.Rank]
		}
	}

	sort.Slice(unranked, func(i, j int) bool { return NaturalLess(unranked[i], unranked[j]) })
	next := len(dense)
	for _, job := range unranked {
		next++
		ranks[job] = next
	}
	return ranks
}

// NaturalLess compares identifiers with embedded numbers by value, so
// "W-9" sorts before "W-10". Runs of digits compare numerically, everything
// else byte-wise.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func dedupe(xs []string) []string {
	var out []string
	for _, x := range xs {
		if x != "" && !contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}
