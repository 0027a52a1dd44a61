package domain

import (
	"fmt"
	"strings"
)

// PadOperation governs how a task's duration scales with the wells on a pad
type PadOperation string

const (
	PadParallel PadOperation = "parallel"
	PadBatch    PadOperation = "batch"
	PadSequence PadOperation = "sequence"
	PadDisabled PadOperation = "disabled"
)

// ParsePadOperation converts a table cell to a PadOperation
func ParsePadOperation(s string) (PadOperation, error) {
	switch op := PadOperation(strings.ToLower(strings.TrimSpace(s))); op {
	case PadParallel, PadBatch, PadSequence, PadDisabled:
		return op, nil
	default:
		return "", fmt.Errorf("invalid pad operation: %q (expected parallel, batch, sequence or disabled)", s)
	}
}

// Subtask is one phase of a resource visit
type Subtask string

const (
	SubtaskMob   Subtask = "mob"
	SubtaskMain  Subtask = "main"
	SubtaskDemob Subtask = "demob"
)

// Subtasks lists the phases in output order
var Subtasks = []Subtask{SubtaskMob, SubtaskMain, SubtaskDemob}

// TieBreak selects among equally loaded machines
type TieBreak string

const (
	// TieBreakInputOrder picks the machine listed first in the task table
	TieBreakInputOrder TieBreak = "input_order"
	// TieBreakName picks the lexicographically smallest machine name
	TieBreakName TieBreak = "name"
)
