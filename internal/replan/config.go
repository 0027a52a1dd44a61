// Package replan re-runs the scheduler on a cron schedule.
package replan

import (
	"fmt"
	"time"

	"github.com/hochfrequenz/padsched/internal/config"
)

// Config represents one periodic replanning trigger
type Config struct {
	Name    string        `toml:"name"`
	Cron    string        `toml:"cron"`
	Timeout time.Duration `toml:"timeout"`
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("replan name is required")
	}
	if c.Cron == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := ParseCron(c.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute // Default
	}
	return nil
}

// FromConfig builds the triggers declared in the [replan] section; an empty
// cron expression declares none
func FromConfig(cfg config.ReplanConfig) ([]Config, error) {
	if cfg.Cron == "" {
		return nil, nil
	}
	c := Config{Name: "cron", Cron: cfg.Cron}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []Config{c}, nil
}
