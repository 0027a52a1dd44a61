package parser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/padsched/internal/config"
	"github.com/hochfrequenz/padsched/internal/domain"
)

// Load reads the scheduler inputs named by cfg, preferring a scenario file
func Load(ctx context.Context, cfg *config.Config) (*domain.Inputs, error) {
	if cfg.Inputs.Scenario != "" {
		return ParseScenarioFile(cfg.InputPath(cfg.Inputs.Scenario))
	}
	return LoadDir(ctx, cfg)
}

// LoadDir reads the four input tables concurrently. The unavailability table
// is optional.
func LoadDir(ctx context.Context, cfg *config.Config) (*domain.Inputs, error) {
	in := &domain.Inputs{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return readFile(ctx, cfg.InputPath(cfg.Inputs.Tasks), false, func(f *os.File) (err error) {
			in.Tasks, err = ParseTasks(f, f.Name())
			return err
		})
	})
	g.Go(func() error {
		return readFile(ctx, cfg.InputPath(cfg.Inputs.Resources), false, func(f *os.File) (err error) {
			in.Resources, err = ParseResources(f, f.Name())
			return err
		})
	})
	g.Go(func() error {
		return readFile(ctx, cfg.InputPath(cfg.Inputs.Ranks), false, func(f *os.File) (err error) {
			in.Ranks, err = ParseRanks(f, f.Name())
			return err
		})
	})
	g.Go(func() error {
		return readFile(ctx, cfg.InputPath(cfg.Inputs.Unavailability), true, func(f *os.File) (err error) {
			in.Unavailability, err = ParseUnavailability(f, f.Name())
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func readFile(ctx context.Context, path string, optional bool, parse func(*os.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("input path not configured")
	}

	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	return parse(f)
}
