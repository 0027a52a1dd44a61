package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
)

// table is a CSV file addressed by column name
type table struct {
	name    string
	columns map[string]int
	records [][]string
}

func readTable(r io.Reader, name string, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty table", name)
		}
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}

	t := &table{name: name, columns: make(map[string]int, len(header))}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := t.columns[col]; !dup {
			t.columns[col] = i
		}
	}

	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, goerrors.ErrValidation{
				Caller: name,
				Issue: goerrors.ErrNilInput{
					InputName: col,
				},
			}
		}
	}

	t.records, err = reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// line returns the 1-based file line of record i, counting the header
func (t *table) line(i int) int {
	return i + 2
}

func (t *table) cell(rec []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	switch strings.ToLower(v) {
	case "nan", "null", "none", "<na>":
		return ""
	}
	return v
}

func (t *table) fail(i int, col, value string, issue error) error {
	return goerrors.ErrInvalidInput{
		Caller:     fmt.Sprintf("%s:%d", t.name, t.line(i)),
		InputName:  col,
		InputValue: value,
		Issue:      issue,
	}
}

func errBeforeStart(col string, start float64) error {
	return fmt.Errorf("ends before %s %s", col, strconv.FormatFloat(start, 'f', -1, 64))
}

// number parses a numeric cell; empty cells yield def
func (t *table) number(i int, rec []string, col string, def float64) (float64, error) {
	v := t.cell(rec, col)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "inf", "+inf", "infinity":
		return math.Inf(1), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, t.fail(i, col, v, errors.New("not a number"))
	}
	return f, nil
}

// nonNegative parses a numeric cell that may not be below zero
func (t *table) nonNegative(i int, rec []string, col string, def float64) (float64, error) {
	f, err := t.number(i, rec, col, def)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, t.fail(i, col, t.cell(rec, col), goerrors.ErrNegativeInput{InputName: col})
	}
	return f, nil
}

func (t *table) boolean(i int, rec []string, col string, def bool) (bool, error) {
	v := t.cell(rec, col)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, t.fail(i, col, v, errors.New("not a boolean"))
	}
	return b, nil
}

// SplitTaskList splits a previous_tasks cell. Names may be separated by
// semicolons, pipes or commas and may be wrapped as a bracketed list.
func SplitTaskList(cell string) []string {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimPrefix(cell, "[")
	cell = strings.TrimSuffix(cell, "]")

	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == '|' || r == ','
	})

	var names []string
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), `'"`)
		if f != "" {
			names = append(names, f)
		}
	}
	return names
}
