package replan

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler decides when each replanning trigger is due
type Scheduler struct {
	configs map[string]Config
	lastRun map[string]time.Time
	running map[string]bool
	mu      sync.RWMutex

	// now is replaced in tests
	now func() time.Time
}

// NewScheduler creates a new replan scheduler
func NewScheduler(configs []Config) (*Scheduler, error) {
	s := &Scheduler{
		configs: make(map[string]Config),
		lastRun: make(map[string]time.Time),
		running: make(map[string]bool),
		now:     time.Now,
	}

	started := s.now()
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		s.configs[cfg.Name] = cfg
		// a trigger is due at its first tick after start, not at once
		s.lastRun[cfg.Name] = started
	}

	return s, nil
}

// ParseCron parses a five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// NextRun returns the next scheduled run time for a trigger
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return time.Time{}
	}

	sched, err := cronParser.Parse(cfg.Cron)
	if err != nil {
		return time.Time{}
	}

	return sched.Next(s.now())
}

// ShouldRun returns true if a trigger is due and not already running
func (s *Scheduler) ShouldRun(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return false
	}

	if s.running[name] {
		return false
	}

	sched, err := cronParser.Parse(cfg.Cron)
	if err != nil {
		return false
	}

	nextRun := sched.Next(s.lastRun[name])
	return !s.now().Before(nextRun)
}

// MarkRunning marks a trigger as currently running
func (s *Scheduler) MarkRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = true
}

// MarkComplete marks a trigger as complete
func (s *Scheduler) MarkComplete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
	s.lastRun[name] = s.now()
}

// GetConfig returns the config for a trigger
func (s *Scheduler) GetConfig(name string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[name]
	return cfg, ok
}

// List returns all trigger names, sorted
func (s *Scheduler) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start checks the triggers every interval until ctx is done. Due triggers
// run in their own goroutine, bounded by the trigger timeout.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, runFunc func(context.Context, Config) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range s.List() {
				if !s.ShouldRun(name) {
					continue
				}
				cfg, _ := s.GetConfig(name)
				s.MarkRunning(name)
				go func(c Config) {
					defer s.MarkComplete(c.Name)
					runCtx, cancel := context.WithTimeout(ctx, c.Timeout)
					defer cancel()
					if err := runFunc(runCtx, c); err != nil {
						log.Printf("replan %s failed: %v", c.Name, err)
					}
				}(cfg)
			}
		}
	}
}
