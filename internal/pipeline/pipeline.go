// Package pipeline chains the lookup, status, scheduling and post-processing
// steps of one planning run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/postprocess"
	"github.com/hochfrequenz/padsched/internal/precedence"
	"github.com/hochfrequenz/padsched/internal/scheduler"
)

// Settings controls a run
type Settings struct {
	StartProgram time.Time
	TieBreak     domain.TieBreak
}

// Result is the outcome of a planning run
type Result struct {
	RunID string
	// Assignments are the pad-level rows produced by the scheduler
	Assignments []domain.Assignment
	// Hints are the per-well rows that survived post-processing
	Hints []domain.Hint
	// Rows is the melted schedule, one row per well, task and subtask
	Rows []domain.ScheduleRow

	Underresourced  postprocess.Underresourced
	InstantFPDWells []string

	Pads  []*domain.Pad
	Index *lookup.Index
}

// Run executes the full pipeline over in
func Run(ctx context.Context, in *domain.Inputs, settings Settings) (*Result, error) {
	runID := uuid.New().String()

	idx, err := lookup.Build(in)
	if err != nil {
		return nil, fmt.Errorf("building lookups: %w", err)
	}
	log.Printf("run %s: %d tasks, %d machines, %d wells on %d pads",
		short(runID), len(idx.Tasks), len(idx.Machines), len(idx.Wells), len(idx.Pads))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adj, err := precedence.CollectStatus(idx, precedence.AllDescendants(idx.Tasks))
	if err != nil {
		return nil, fmt.Errorf("resolving status: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := scheduler.New(idx, adj, scheduler.Options{TieBreak: settings.TieBreak}).Run()
	if err != nil {
		return nil, fmt.Errorf("scheduling: %w", err)
	}
	log.Printf("run %s: %d pad assignments", short(runID), len(plan.Assignments))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hints := postprocess.Order(postprocess.Explode(idx, adj, plan))
	hints, under := postprocess.PruneUnderresourced(hints, idx.Machines)
	if len(under.Wells) > 0 {
		log.Printf("run %s: dropped %d underresourced wells", short(runID), len(under.Wells))
	}
	hints = postprocess.CleanDegenerate(hints)

	return &Result{
		RunID:           runID,
		Assignments:     plan.Assignments,
		Hints:           hints,
		Rows:            postprocess.Melt(hints, settings.StartProgram),
		Underresourced:  under,
		InstantFPDWells: adj.InstantFPDWells,
		Pads:            idx.Pads,
		Index:           idx,
	}, nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
