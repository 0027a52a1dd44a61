package scheduler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/precedence"
)

func rank(v float64) *float64 { return &v }

func prepare(t *testing.T, in *domain.Inputs) (*lookup.Index, *precedence.StatusAdjustments) {
	t.Helper()
	idx, err := lookup.Build(in)
	require.NoError(t, err)
	adj, err := precedence.CollectStatus(idx, precedence.AllDescendants(idx.Tasks))
	require.NoError(t, err)
	return idx, adj
}

func run(t *testing.T, in *domain.Inputs, opts Options) *Plan {
	t.Helper()
	idx, adj := prepare(t, in)
	plan, err := New(idx, adj, opts).Run()
	require.NoError(t, err)
	return plan
}

func mustAssignment(t *testing.T, plan *Plan, pad, task string) domain.Assignment {
	t.Helper()
	a, ok := plan.Assignment(pad, task)
	require.True(t, ok, "no assignment for pad %s task %s", pad, task)
	return a
}

func TestScheduler_ParallelWithMobilization(t *testing.T) {
	plan := run(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 3, PadOperation: domain.PadParallel, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{
			{Machine: "rig", AvailableTo: 100, Mobilization: 1, Demobilization: 1},
		},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "p"}, {Job: "w2", Pad: "p"}, {Job: "w3", Pad: "p"},
		},
	}, Options{})

	a := mustAssignment(t, plan, "p", "drill")
	require.Equal(t, 5.0, a.Duration)
	require.Equal(t, 0.0, a.Start)
	require.Equal(t, 5.0, a.End)
	require.Equal(t, "rig", a.Machine)
}

func TestScheduler_SequenceWithoutResource(t *testing.T) {
	plan := run(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "facilities", DurationBase: 5, PadOperation: domain.PadSequence},
		},
		Ranks: []domain.RankRow{{Job: "w1", Pad: "p"}, {Job: "w2", Pad: "p"}},
	}, Options{})

	a := mustAssignment(t, plan, "p", "facilities")
	require.Equal(t, 10.0, a.Duration)
	require.Empty(t, a.Machine)
}

func TestScheduler_StatusReducesMultiplier(t *testing.T) {
	plan := run(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 4, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "complete", Machine: "frac", DurationBase: 2, PreviousTasks: []string{"drill"}, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{
			{Machine: "rig", AvailableTo: 100, Mobilization: 1, Demobilization: 1},
			{Machine: "frac", AvailableTo: 100},
		},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "p", Status: "drill"},
			{Job: "w2", Pad: "p"},
		},
	}, Options{})

	drill := mustAssignment(t, plan, "p", "drill")
	require.Equal(t, 1.0*4+1+1, drill.Duration)
	complete := mustAssignment(t, plan, "p", "complete")
	require.Equal(t, 2.0*2, complete.Duration)
	require.Equal(t, drill.End, complete.Start)
}

func TestScheduler_FullyCompletedTaskSkipsResource(t *testing.T) {
	idx, adj := prepare(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 4, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "complete", DurationBase: 2, PreviousTasks: []string{"drill"}, PadOperation: domain.PadParallel},
		},
		Resources: []domain.ResourceRow{{Machine: "rig", AvailableTo: 100}},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "p", Status: "drill"},
			{Job: "w2", Pad: "p", Status: "drill"},
		},
	})

	s := New(idx, adj, Options{})
	plan, err := s.Run()
	require.NoError(t, err)

	_, ok := plan.Assignment("p", "drill")
	require.False(t, ok, "drill is not assigned when every well already finished it")
	require.Zero(t, plan.Precedence["p"]["drill"])
	require.Zero(t, s.State().Cursor["rig"], "rig stays untouched")

	complete := mustAssignment(t, plan, "p", "complete")
	require.Equal(t, 0.0, complete.Start)
	require.Equal(t, 2.0, complete.End)
}

func TestScheduler_UnavailabilityCollision(t *testing.T) {
	plan := run(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 8, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{{Machine: "rig", AvailableTo: 1000}},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "a", Rank: rank(1)},
			{Job: "w2", Pad: "b", Rank: rank(2)},
			{Job: "w3", Pad: "c", Rank: rank(3)},
		},
		Unavailability: []domain.UnavailabilityRow{
			{Machine: "rig", Start: 10, End: 20},
			{Machine: "rig", Start: 26, End: 29},
		},
	}, Options{})

	a := mustAssignment(t, plan, "a", "drill")
	require.Equal(t, 0.0, a.Start)
	require.Equal(t, 8.0, a.End)

	// [8, 16) collides with [10, 20); retried from 20 it collides with [26, 29)
	b := mustAssignment(t, plan, "b", "drill")
	require.Equal(t, 29.0, b.Start)
	require.Equal(t, 37.0, b.End)

	c := mustAssignment(t, plan, "c", "drill")
	require.Equal(t, 37.0, c.Start)
}

func TestScheduler_UnavailabilityRetryStartsAfterWindow(t *testing.T) {
	idx, adj := prepare(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 7, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{{Machine: "rig", AvailableFrom: 8, AvailableTo: 1000}},
		Ranks:     []domain.RankRow{{Job: "w1"}},
		Unavailability: []domain.UnavailabilityRow{
			{Machine: "rig", Start: 10, End: 20},
		},
	})

	s := New(idx, adj, Options{})
	plan, err := s.Run()
	require.NoError(t, err)

	a := mustAssignment(t, plan, "w1", "drill")
	require.GreaterOrEqual(t, a.Start, 20.0, "retry starts after the rejected [8, 15)")
	require.Empty(t, s.State().Unavailable["rig"], "passed blackout windows are dropped")
	require.Len(t, idx.Unavailability["rig"], 1, "index blackout windows are not consumed by a run")
}

func TestScheduler_LeastLoadedMachine(t *testing.T) {
	plan := run(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig-a", DurationBase: 10, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "drill", Machine: "rig-b", DurationBase: 10, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{
			{Machine: "rig-a", AvailableTo: 500},
			{Machine: "rig-b", AvailableTo: 500},
		},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "p1", Rank: rank(1)},
			{Job: "w2", Pad: "p2", Rank: rank(2)},
			{Job: "w3", Pad: "p3", Rank: rank(3)},
		},
	}, Options{})

	want := map[string]string{"p1": "rig-a", "p2": "rig-b", "p3": "rig-a"}
	for pad, machine := range want {
		require.Equal(t, machine, mustAssignment(t, plan, pad, "drill").Machine, "pad %s", pad)
	}
	require.Equal(t, 10.0, mustAssignment(t, plan, "p3", "drill").Start)
}

func TestScheduler_TieBreak(t *testing.T) {
	in := func() *domain.Inputs {
		return &domain.Inputs{
			Tasks: []domain.TaskRow{
				{Task: "drill", Machine: "rig-b", DurationBase: 10, PadOperation: domain.PadBatch, RequiresResources: true},
				{Task: "drill", Machine: "rig-a", DurationBase: 10, PadOperation: domain.PadBatch, RequiresResources: true},
			},
			Resources: []domain.ResourceRow{
				{Machine: "rig-a", AvailableTo: 500},
				{Machine: "rig-b", AvailableTo: 500},
			},
			Ranks: []domain.RankRow{{Job: "w1"}},
		}
	}

	tests := []struct {
		tieBreak domain.TieBreak
		want     string
	}{
		{"", "rig-b"},
		{domain.TieBreakInputOrder, "rig-b"},
		{domain.TieBreakName, "rig-a"},
	}

	for _, tt := range tests {
		plan := run(t, in(), Options{TieBreak: tt.tieBreak})
		require.Equal(t, tt.want, mustAssignment(t, plan, "w1", "drill").Machine, "tie break %q", tt.tieBreak)
	}
}

func TestScheduler_LifetimeExhaustsMachine(t *testing.T) {
	idx, adj := prepare(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig-a", DurationBase: 8, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "drill", Machine: "rig-b", DurationBase: 8, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{
			{Machine: "rig-a", AvailableTo: 100},
			{Machine: "rig-b", AvailableTo: 10},
		},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "p1", Rank: rank(1)},
			{Job: "w2", Pad: "p2", Rank: rank(2)},
			{Job: "w3", Pad: "p3", Rank: rank(3)},
			{Job: "w4", Pad: "p4", Rank: rank(4)},
		},
	})

	s := New(idx, adj, Options{})
	plan, err := s.Run()
	require.NoError(t, err)

	want := []struct {
		pad, machine string
		start        float64
	}{
		{"p1", "rig-a", 0},
		{"p2", "rig-b", 0},
		{"p3", "rig-a", 8},
		{"p4", "rig-a", 16},
	}
	for _, w := range want {
		a := mustAssignment(t, plan, w.pad, "drill")
		require.Equal(t, w.machine, a.Machine, "pad %s", w.pad)
		require.Equal(t, w.start, a.Start, "pad %s", w.pad)
	}
	require.True(t, math.IsInf(s.State().Cursor["rig-b"], 1), "rig-b is retired")
}

func TestScheduler_NoFeasibleResource(t *testing.T) {
	idx, adj := prepare(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "drill", Machine: "rig", DurationBase: 8, PadOperation: domain.PadBatch, RequiresResources: true},
		},
		Resources: []domain.ResourceRow{{Machine: "rig", AvailableTo: 10}},
		Ranks:     []domain.RankRow{{Job: "w1", Rank: rank(1)}, {Job: "w2", Rank: rank(2)}},
	})
	idx.Machines["rig"].AvailableTo = idx.Machines["rig"].AvailableToRaw

	_, err := New(idx, adj, Options{}).Run()
	require.ErrorIs(t, err, ErrNoFeasibleResource)
}

func TestScheduler_StalledPad(t *testing.T) {
	idx, adj := prepare(t, &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "a", DurationBase: 1, PadOperation: domain.PadParallel},
			{Task: "b", DurationBase: 1, PreviousTasks: []string{"a"}, PadOperation: domain.PadParallel},
		},
		Ranks: []domain.RankRow{{Job: "w1"}},
	})
	idx.Tasks["a"].PreviousTasks = []string{"b"}

	_, err := New(idx, adj, Options{}).Run()
	require.ErrorIs(t, err, ErrStalledPad)
}

func fieldInputs() *domain.Inputs {
	return &domain.Inputs{
		Tasks: []domain.TaskRow{
			{Task: "spud", DurationBase: 1, PadOperation: domain.PadParallel},
			{Task: "drill", Machine: "rig-a", DurationBase: 12, PreviousTasks: []string{"spud"}, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "drill", Machine: "rig-b", DurationBase: 12, PreviousTasks: []string{"spud"}, PadOperation: domain.PadBatch, RequiresResources: true},
			{Task: "complete", Machine: "frac", DurationBase: 5, PreviousTasks: []string{"drill"}, PadOperation: domain.PadSequence, RequiresResources: true},
			{Task: "flowback", Machine: "crew", DurationBase: 3, PreviousTasks: []string{"complete"}, PadOperation: domain.PadDisabled, RequiresResources: true},
			{Task: "facilities", DurationBase: 4, PreviousTasks: []string{"spud"}, PadOperation: domain.PadParallel},
		},
		Resources: []domain.ResourceRow{
			{Machine: "rig-a", AvailableTo: 400, Mobilization: 3, Demobilization: 2},
			{Machine: "rig-b", AvailableFrom: 15, AvailableTo: 120, Mobilization: 3, Demobilization: 2},
			{Machine: "frac", AvailableTo: 600, Mobilization: 2, Demobilization: 2},
			{Machine: "crew", AvailableTo: 600, Mobilization: 1, Demobilization: 1},
		},
		Ranks: []domain.RankRow{
			{Job: "w1", Pad: "north", Rank: rank(1)},
			{Job: "w2", Pad: "north", Rank: rank(2)},
			{Job: "w3", Pad: "south", Rank: rank(3)},
			{Job: "w4", Pad: "south", Rank: rank(4), Status: "drill"},
			{Job: "w5", Pad: "east", Rank: rank(5)},
			{Job: "w6", Rank: rank(6)},
		},
		Unavailability: []domain.UnavailabilityRow{
			{Machine: "frac", Start: 40, End: 55},
			{Machine: "rig-a", Start: 30, End: 32},
		},
	}
}

func TestScheduler_PrecedenceInvariant(t *testing.T) {
	idx, adj := prepare(t, fieldInputs())
	plan, err := New(idx, adj, Options{}).Run()
	require.NoError(t, err)

	for _, a := range plan.Assignments {
		require.GreaterOrEqual(t, a.Start, 0.0, "assignment %+v", a)
		require.GreaterOrEqual(t, a.End, a.Start, "assignment %+v", a)
		require.GreaterOrEqual(t, a.Duration, 0.0, "assignment %+v", a)

		done := plan.Precedence[a.Pad]
		for _, prev := range idx.Tasks[a.Task].PreviousTasks {
			require.GreaterOrEqual(t, a.Start, done[prev], "pad %s task %s starts before %s ends", a.Pad, a.Task, prev)
		}
	}
	for _, pad := range idx.Pads {
		require.Len(t, plan.Precedence[pad.Name], len(idx.TaskOrder), "pad %s", pad.Name)
	}
}

func TestScheduler_MachinesNeverDoubleBooked(t *testing.T) {
	plan := run(t, fieldInputs(), Options{})

	byMachine := make(map[string][]domain.Assignment)
	for _, a := range plan.Assignments {
		if a.Machine != "" {
			byMachine[a.Machine] = append(byMachine[a.Machine], a)
		}
	}
	for machine, as := range byMachine {
		for i := range as {
			for j := i + 1; j < len(as); j++ {
				overlap := as[i].Start < as[j].End && as[j].Start < as[i].End
				require.False(t, overlap, "%s double booked: %+v and %+v", machine, as[i], as[j])
			}
		}
	}
}

func TestScheduler_PadRankOrdering(t *testing.T) {
	plan := run(t, fieldInputs(), Options{})

	// frac is the only completion machine, so pads use it in rank order
	var pads []string
	for _, a := range plan.Assignments {
		if a.Machine == "frac" {
			pads = append(pads, a.Pad)
		}
	}
	require.Equal(t, []string{"north", "south", "east", "w6"}, pads)

	var last float64
	for _, a := range plan.Assignments {
		if a.Machine != "frac" {
			continue
		}
		require.GreaterOrEqual(t, a.Start, last, "pad %s starts on frac before the previous pad released it", a.Pad)
		last = a.End
	}
}

func TestScheduler_Idempotent(t *testing.T) {
	idx, adj := prepare(t, fieldInputs())

	first, err := New(idx, adj, Options{}).Run()
	require.NoError(t, err)
	second, err := New(idx, adj, Options{}).Run()
	require.NoError(t, err)

	require.Equal(t, first.Assignments, second.Assignments)
}

func TestScheduler_ReadyTasks(t *testing.T) {
	idx, adj := prepare(t, fieldInputs())
	s := New(idx, adj, Options{})
	s.State().Precedence["north"] = map[string]float64{}

	ready := s.ReadyTasks("north")
	require.Len(t, ready, 1)
	require.Equal(t, "spud", ready[0].Name)

	s.State().Precedence["north"]["spud"] = 1
	ready = s.ReadyTasks("north")
	var names []string
	for _, task := range ready {
		names = append(names, task.Name)
	}
	require.Equal(t, []string{"drill", "facilities"}, names)
}
