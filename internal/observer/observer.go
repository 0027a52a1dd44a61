package observer

import (
	"sync"
	"time"
)

// Observer collects metrics about planning runs
type Observer struct {
	slowThreshold time.Duration

	runs []run
	mu   sync.RWMutex
}

type run struct {
	RunID          string
	Duration       time.Duration
	Rows           int
	Underresourced int
	Failed         bool
	CompletedAt    time.Time
}

// Metrics holds aggregated metrics
type Metrics struct {
	TotalRuns           int
	TotalFailed         int
	TotalRows           int
	TotalUnderresourced int
	AvgDuration         time.Duration
}

// New creates a new Observer
func New(slowThreshold time.Duration) *Observer {
	return &Observer{
		slowThreshold: slowThreshold,
	}
}

// IsSlow returns true if a run took longer than the threshold
func (o *Observer) IsSlow(d time.Duration) bool {
	return o.slowThreshold > 0 && d > o.slowThreshold
}

// RecordRun records a successful planning run
func (o *Observer) RecordRun(runID string, duration time.Duration, rows, underresourced int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runs = append(o.runs, run{
		RunID:          runID,
		Duration:       duration,
		Rows:           rows,
		Underresourced: underresourced,
		CompletedAt:    time.Now(),
	})
}

// RecordFailure records a run that ended in an error
func (o *Observer) RecordFailure(duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runs = append(o.runs, run{
		Duration:    duration,
		Failed:      true,
		CompletedAt: time.Now(),
	})
}

// GetMetrics returns aggregated metrics; AvgDuration covers successful runs
func (o *Observer) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var metrics Metrics
	var totalDuration time.Duration
	succeeded := 0

	for _, r := range o.runs {
		metrics.TotalRuns++
		if r.Failed {
			metrics.TotalFailed++
			continue
		}
		succeeded++
		metrics.TotalRows += r.Rows
		metrics.TotalUnderresourced += r.Underresourced
		totalDuration += r.Duration
	}

	if succeeded > 0 {
		metrics.AvgDuration = totalDuration / time.Duration(succeeded)
	}

	return metrics
}

// GetRecentRuns returns the ids of successful runs from the last duration
func (o *Observer) GetRecentRuns(since time.Duration) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cutoff := time.Now().Add(-since)
	var result []string

	for _, r := range o.runs {
		if !r.Failed && r.CompletedAt.After(cutoff) {
			result = append(result, r.RunID)
		}
	}

	return result
}
