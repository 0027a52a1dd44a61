package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// Scenario is a single YAML document holding all four input tables
type Scenario struct {
	Tasks          []ScenarioTask     `yaml:"tasks"`
	Resources      []ScenarioResource `yaml:"resources"`
	Ranks          []ScenarioWell     `yaml:"ranks"`
	Unavailability []ScenarioBlackout `yaml:"unavailability"`
}

// ScenarioTask describes a task and every machine that may run it
type ScenarioTask struct {
	Task              string   `yaml:"task"`
	Machine           string   `yaml:"machine"`
	Machines          []string `yaml:"machines"`
	DurationBase      float64  `yaml:"duration_base"`
	PreviousTasks     []string `yaml:"previous_tasks"`
	PadOperation      string   `yaml:"pad_operation"`
	RequiresResources *bool    `yaml:"requires_resources"`
}

// ScenarioResource describes a machine; a missing available_to never retires it
type ScenarioResource struct {
	Machine        string   `yaml:"machine"`
	AvailableFrom  float64  `yaml:"available_from"`
	AvailableTo    *float64 `yaml:"available_to"`
	Mobilization   float64  `yaml:"mobilization"`
	Demobilization float64  `yaml:"demobilization"`
}

type ScenarioWell struct {
	Job    string   `yaml:"job"`
	Pad    string   `yaml:"pad"`
	Rank   *float64 `yaml:"rank"`
	Status string   `yaml:"status"`
}

type ScenarioBlackout struct {
	Machine string  `yaml:"machine"`
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
}

// ParseScenarioFile reads a scenario from disk
func ParseScenarioFile(path string) (*domain.Inputs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	return ParseScenario(f, path)
}

// ParseScenario decodes a YAML scenario into scheduler inputs
func ParseScenario(r io.Reader, name string) (*domain.Inputs, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: empty scenario", name)
		}
		return nil, fmt.Errorf("%s: parsing YAML: %w", name, err)
	}
	return sc.Inputs(name)
}

// Inputs flattens the scenario into the tabular form the scheduler consumes
func (sc *Scenario) Inputs(name string) (*domain.Inputs, error) {
	in := &domain.Inputs{}

	for i, t := range sc.Tasks {
		caller := fmt.Sprintf("%s: tasks[%d]", name, i)
		if strings.TrimSpace(t.Task) == "" {
			return nil, goerrors.ErrValidation{Caller: caller, Issue: goerrors.ErrNilInput{InputName: "task"}}
		}
		if t.DurationBase < 0 {
			return nil, goerrors.ErrValidation{Caller: caller, Issue: goerrors.ErrNegativeInput{InputName: "duration_base"}}
		}
		op, err := domain.ParsePadOperation(t.PadOperation)
		if err != nil {
			return nil, goerrors.ErrInvalidInput{Caller: caller, InputName: "pad_operation", InputValue: t.PadOperation, Issue: err}
		}

		machines := t.Machines
		if t.Machine != "" {
			machines = append([]string{t.Machine}, machines...)
		}
		if len(machines) == 0 {
			machines = []string{""}
		}
		for _, m := range machines {
			requires := m != ""
			if t.RequiresResources != nil {
				requires = *t.RequiresResources
			}
			in.Tasks = append(in.Tasks, domain.TaskRow{
				Task:              t.Task,
				Machine:           m,
				DurationBase:      t.DurationBase,
				PreviousTasks:     t.PreviousTasks,
				PadOperation:      op,
				RequiresResources: requires,
			})
		}
	}

	for i, r := range sc.Resources {
		caller := fmt.Sprintf("%s: resources[%d]", name, i)
		if r.Machine == "" {
			return nil, goerrors.ErrValidation{Caller: caller, Issue: goerrors.ErrNilInput{InputName: "machine"}}
		}
		if r.Mobilization < 0 || r.Demobilization < 0 {
			return nil, goerrors.ErrValidation{Caller: caller, Issue: goerrors.ErrNegativeInput{InputName: "mobilization"}}
		}
		to := math.Inf(1)
		if r.AvailableTo != nil {
			to = *r.AvailableTo
		}
		if to < r.AvailableFrom {
			return nil, goerrors.ErrInvalidInput{
				Caller:     caller,
				InputName:  "available_to",
				InputValue: to,
				Issue:      errBeforeStart("available_from", r.AvailableFrom),
			}
		}
		in.Resources = append(in.Resources, domain.ResourceRow{
			Machine:        r.Machine,
			AvailableFrom:  r.AvailableFrom,
			AvailableTo:    to,
			Mobilization:   r.Mobilization,
			Demobilization: r.Demobilization,
		})
	}

	for i, w := range sc.Ranks {
		if w.Job == "" {
			return nil, goerrors.ErrValidation{
				Caller: fmt.Sprintf("%s: ranks[%d]", name, i),
				Issue:  goerrors.ErrNilInput{InputName: "job"},
			}
		}
		in.Ranks = append(in.Ranks, domain.RankRow{Job: w.Job, Pad: w.Pad, Rank: w.Rank, Status: w.Status})
	}

	for i, b := range sc.Unavailability {
		if b.End < b.Start {
			return nil, goerrors.ErrInvalidInput{
				Caller:     fmt.Sprintf("%s: unavailability[%d]", name, i),
				InputName:  "end",
				InputValue: b.End,
				Issue:      errBeforeStart("start", b.Start),
			}
		}
		in.Unavailability = append(in.Unavailability, domain.UnavailabilityRow{Machine: b.Machine, Start: b.Start, End: b.End})
	}

	return in, nil
}
