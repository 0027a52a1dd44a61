package parser

import (
	"io"
	"math"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// ParseTasks reads the task table. An empty requires_resources cell defaults
// to whether a machine is named.
func ParseTasks(r io.Reader, name string) ([]domain.TaskRow, error) {
	t, err := readTable(r, name, "task", "duration_base", "pad_operation")
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TaskRow, 0, len(t.records))
	for i, rec := range t.records {
		task := t.cell(rec, "task")
		if task == "" {
			continue
		}

		duration, err := t.nonNegative(i, rec, "duration_base", 0)
		if err != nil {
			return nil, err
		}
		op, err := domain.ParsePadOperation(t.cell(rec, "pad_operation"))
		if err != nil {
			return nil, t.fail(i, "pad_operation", t.cell(rec, "pad_operation"), err)
		}
		machine := t.cell(rec, "machine")
		requires, err := t.boolean(i, rec, "requires_resources", machine != "")
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.TaskRow{
			Task:              task,
			Machine:           machine,
			DurationBase:      duration,
			PreviousTasks:     SplitTaskList(t.cell(rec, "previous_tasks")),
			PadOperation:      op,
			RequiresResources: requires,
		})
	}
	return rows, nil
}

// ParseResources reads the resource table. An empty available_to means the
// machine never retires.
func ParseResources(r io.Reader, name string) ([]domain.ResourceRow, error) {
	t, err := readTable(r, name, "machine")
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ResourceRow, 0, len(t.records))
	for i, rec := range t.records {
		machine := t.cell(rec, "machine")
		if machine == "" {
			continue
		}

		row := domain.ResourceRow{Machine: machine}
		if row.AvailableFrom, err = t.number(i, rec, "available_from", 0); err != nil {
			return nil, err
		}
		if row.AvailableTo, err = t.number(i, rec, "available_to", math.Inf(1)); err != nil {
			return nil, err
		}
		if row.AvailableTo < row.AvailableFrom {
			return nil, t.fail(i, "available_to", t.cell(rec, "available_to"), errBeforeStart("available_from", row.AvailableFrom))
		}
		if row.Mobilization, err = t.nonNegative(i, rec, "mobilization", 0); err != nil {
			return nil, err
		}
		if row.Demobilization, err = t.nonNegative(i, rec, "demobilization", 0); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseRanks reads the rank table
func ParseRanks(r io.Reader, name string) ([]domain.RankRow, error) {
	t, err := readTable(r, name, "job")
	if err != nil {
		return nil, err
	}

	rows := make([]domain.RankRow, 0, len(t.records))
	for i, rec := range t.records {
		job := t.cell(rec, "job")
		if job == "" {
			continue
		}

		row := domain.RankRow{
			Job:    job,
			Pad:    t.cell(rec, "pad"),
			Status: t.cell(rec, "status"),
		}
		if t.cell(rec, "rank") != "" {
			rank, err := t.number(i, rec, "rank", 0)
			if err != nil {
				return nil, err
			}
			row.Rank = &rank
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseUnavailability reads the unavailability table
func ParseUnavailability(r io.Reader, name string) ([]domain.UnavailabilityRow, error) {
	t, err := readTable(r, name, "machine", "start", "end")
	if err != nil {
		return nil, err
	}

	rows := make([]domain.UnavailabilityRow, 0, len(t.records))
	for i, rec := range t.records {
		machine := t.cell(rec, "machine")
		if machine == "" {
			continue
		}

		row := domain.UnavailabilityRow{Machine: machine}
		if row.Start, err = t.number(i, rec, "start", 0); err != nil {
			return nil, err
		}
		if row.End, err = t.number(i, rec, "end", 0); err != nil {
			return nil, err
		}
		if row.End < row.Start {
			return nil, t.fail(i, "end", t.cell(rec, "end"), errBeforeStart("start", row.Start))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
