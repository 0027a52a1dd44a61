// Package report writes schedules to files and renders run summaries.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// TimeLayout is the timestamp layout of written schedules
const TimeLayout = "2006-01-02T15:04:05"

// Header lists the columns of a written schedule
var Header = []string{"job", "task", "machine", "subtask", "start", "end", "duration"}

// Format selects the schedule encoding
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// Write encodes rows in the given format; table output needs a run result
// and is handled by Render
func Write(w io.Writer, format Format, rows []domain.ScheduleRow) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

// WriteCSV writes rows with a header; empty timing cells stay blank
func WriteCSV(w io.Writer, rows []domain.ScheduleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Job,
			r.Task,
			r.Machine,
			string(r.Subtask),
			formatTime(r.Start),
			formatTime(r.End),
			formatDays(r.Duration),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as an indented JSON array
func WriteJSON(w io.Writer, rows []domain.ScheduleRow) error {
	if rows == nil {
		rows = []domain.ScheduleRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimeLayout)
}

func formatDays(d *float64) string {
	if d == nil {
		return ""
	}
	return strconv.FormatFloat(*d, 'f', -1, 64)
}
