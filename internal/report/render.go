package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	padStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	dimmedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))
)

// Render writes a terminal summary of a run: the pad-level assignments
// grouped by pad, the machine lifetimes, then the dropped and instantly
// producing wells.
func Render(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pad schedule"))
	b.WriteString(" ")
	b.WriteString(dimmedStyle.Render("run " + res.RunID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s pads, %s wells, %s assignments, %s schedule rows\n\n",
		humanize.Comma(int64(len(res.Pads))),
		humanize.Comma(int64(countWells(res.Pads))),
		humanize.Comma(int64(len(res.Assignments))),
		humanize.Comma(int64(len(res.Rows))))

	byPad := make(map[string][]domain.Assignment)
	for _, a := range res.Assignments {
		byPad[a.Pad] = append(byPad[a.Pad], a)
	}

	for _, pad := range res.Pads {
		assignments := byPad[pad.Name]
		fmt.Fprintf(&b, "%s %s\n",
			padStyle.Render(pad.Name),
			dimmedStyle.Render(fmt.Sprintf("rank %d, %s", pad.Rank, plural(len(pad.Jobs), "well"))))
		if len(assignments) == 0 {
			b.WriteString(dimmedStyle.Render("  nothing left to schedule"))
			b.WriteString("\n\n")
			continue
		}

		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  TASK\tMACHINE\tSTART\tEND\tDAYS")
		for _, a := range assignments {
			machine := a.Machine
			if machine == "" {
				machine = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				a.Task, machine, days(a.Start), days(a.End), days(a.Duration))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		b.WriteString("\n")
	}

	if res.Index != nil && len(res.Index.MachineOrder) > 0 {
		b.WriteString(padStyle.Render("Machines"))
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, name := range res.Index.MachineOrder {
			m := res.Index.Machines[name]
			line := fmt.Sprintf("  %s\tdays %s to %s", m.Name, days(m.AvailableFrom), days(m.AvailableToRaw))
			if m.Extended() {
				line += "\t" + dimmedStyle.Render("extended for planning")
			}
			fmt.Fprintln(tw, line)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		b.WriteString("\n")
	}

	if under := res.Underresourced; len(under.Wells) > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("Underresourced: %s dropped", plural(len(under.Wells), "well"))))
		b.WriteString("\n")
		for _, v := range under.Violations {
			fmt.Fprintf(&b, "  %s %s on %s ends at day %s, machine retires at day %s\n",
				v.Job, v.Task, v.Machine, days(v.End), days(v.AvailableTo))
		}
		b.WriteString("\n")
	}

	if len(res.InstantFPDWells) > 0 {
		fmt.Fprintf(&b, "Instant FPD: %s\n", strings.Join(res.InstantFPDWells, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countWells(pads []*domain.Pad) int {
	n := 0
	for _, p := range pads {
		n += len(p.Jobs)
	}
	return n
}

func days(v float64) string {
	if math.IsInf(v, 1) {
		return "open"
	}
	return humanize.FtoaWithDigits(v, 2)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
