package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/pipeline"
	"github.com/hochfrequenz/padsched/internal/postprocess"
)

func sampleRows() []domain.ScheduleRow {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(36 * time.Hour)
	d := 1.5
	return []domain.ScheduleRow{
		{Job: "w1", Task: "drill", Machine: "rig", Subtask: domain.SubtaskMob},
		{Job: "w1", Task: "drill", Machine: "rig", Subtask: domain.SubtaskMain, Start: &start, End: &end, Duration: &d},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, Header, records[0])
	require.Equal(t, []string{"w1", "drill", "rig", "mob", "", "", ""}, records[1])
	require.Equal(t, []string{"w1", "drill", "rig", "main", "2026-01-01T00:00:00", "2026-01-02T12:00:00", "1.5"}, records[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "mob", decoded[0]["subtask"])
	require.Nil(t, decoded[0]["start"])
	require.Equal(t, 1.5, decoded[1]["duration"])
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	require.Equal(t, "[]\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	require.Error(t, Write(&bytes.Buffer{}, Format("xlsx"), sampleRows()))
	require.NoError(t, Write(&bytes.Buffer{}, FormatCSV, sampleRows()))
}

func TestRender(t *testing.T) {
	res := &pipeline.Result{
		RunID: "0b6f2f3e-run",
		Pads: []*domain.Pad{
			{Name: "padA", Rank: 1, Jobs: []string{"w1", "w2"}},
			{Name: "padB", Rank: 2, Jobs: []string{"w3"}},
		},
		Assignments: []domain.Assignment{
			{Pad: "padA", Task: "drill", Machine: "rig", Start: 0, End: 10, Duration: 10},
			{Pad: "padA", Task: "facilities", Start: 10, End: 12.5, Duration: 2.5},
		},
		Underresourced: postprocess.Underresourced{
			Wells:      []string{"w3"},
			Violations: []postprocess.Violation{{Job: "w3", Task: "drill", Machine: "rig", End: 20, AvailableTo: 15}},
		},
		InstantFPDWells: []string{"w2"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res))
	out := buf.String()

	for _, want := range []string{
		"run 0b6f2f3e-run",
		"2 pads, 3 wells, 2 assignments",
		"padA",
		"rank 1, 2 wells",
		"facilities",
		"12.5",
		"padB",
		"nothing left to schedule",
		"Underresourced: 1 well dropped",
		"w3 drill on rig ends at day 20, machine retires at day 15",
		"Instant FPD: w2",
	} {
		require.True(t, strings.Contains(out, want), "output missing %q:\n%s", want, out)
	}
}

func TestRender_Machines(t *testing.T) {
	res := &pipeline.Result{
		RunID: "run",
		Index: &lookup.Index{
			MachineOrder: []string{"rig", "frac"},
			Machines: map[string]*domain.Machine{
				"rig":  {Name: "rig", AvailableFrom: 5, AvailableTo: math.Inf(1), AvailableToRaw: 120},
				"frac": {Name: "frac", AvailableTo: 80, AvailableToRaw: 80},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res))
	out := buf.String()

	require.Contains(t, out, "Machines")
	require.Less(t, strings.Index(out, "rig"), strings.Index(out, "frac"), "machines keep table order")

	lines := strings.Split(out, "\n")
	var rigLine, fracLine string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "rig"):
			rigLine = l
		case strings.Contains(l, "frac"):
			fracLine = l
		}
	}
	require.Contains(t, rigLine, "days 5 to 120")
	require.Contains(t, rigLine, "extended for planning")
	require.Contains(t, fracLine, "days 0 to 80")
	require.NotContains(t, fracLine, "extended")
}
