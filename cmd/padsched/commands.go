package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/padsched/internal/config"
	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/lookup"
	"github.com/hochfrequenz/padsched/internal/notify"
	"github.com/hochfrequenz/padsched/internal/observer"
	"github.com/hochfrequenz/padsched/internal/parser"
	"github.com/hochfrequenz/padsched/internal/pipeline"
	"github.com/hochfrequenz/padsched/internal/precedence"
	"github.com/hochfrequenz/padsched/internal/replan"
	"github.com/hochfrequenz/padsched/internal/report"
)

var (
	outPath      string
	outFormat    string
	startProgram string
	inputDir     string
	scenarioPath string
)

func init() {
	// schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule all wells and write the per-well schedule",
		RunE:  runSchedule,
	}
	addInputFlags(scheduleCmd)
	addOutputFlags(scheduleCmd)
	rootCmd.AddCommand(scheduleCmd)

	// validate command
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config and input tables without scheduling",
		RunE:  runValidate,
	}
	addInputFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)

	// report command
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Schedule and print a per-pad summary",
		RunE:  runReport,
	}
	addInputFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)

	// watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Reschedule whenever inputs change or the replan cron fires",
		RunE:  runWatch,
	}
	addInputFlags(watchCmd)
	addOutputFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputDir, "inputs", "", "directory holding the input tables")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file used instead of the tables")
	cmd.Flags().StringVar(&startProgram, "start-program", "", "program start date (YYYY-MM-DD)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&outFormat, "format", "", "output format: csv, json or table")
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithLocalFallback(configPath)
	if err != nil {
		return nil, err
	}

	if inputDir != "" {
		cfg.Inputs.Dir = config.ExpandPath(inputDir)
	}
	if scenarioPath != "" {
		cfg.Inputs.Scenario = config.ExpandPath(scenarioPath)
	}
	if startProgram != "" {
		cfg.Program.StartProgram = startProgram
	}
	if outPath != "" {
		cfg.Output.Path = config.ExpandPath(outPath)
	}
	if outFormat != "" {
		cfg.Output.Format = outFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func settings(cfg *config.Config) (pipeline.Settings, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return pipeline.Settings{}, err
	}
	return pipeline.Settings{
		StartProgram: start,
		TieBreak:     domain.TieBreak(cfg.Program.TieBreak),
	}, nil
}

func plan(ctx context.Context, cfg *config.Config) (*pipeline.Result, error) {
	in, err := parser.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := settings(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, in, s)
}

func writeResult(cfg *config.Config, res *pipeline.Result) error {
	var w io.Writer = os.Stdout
	if cfg.Output.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Output.Path), 0755); err != nil {
			return err
		}
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	var err error
	if report.Format(cfg.Output.Format) == report.FormatTable {
		err = report.Render(w, res)
	} else {
		err = report.Write(w, report.Format(cfg.Output.Format), res.Rows)
	}
	if err != nil {
		return err
	}

	if cfg.Output.Path != "" {
		log.Printf("wrote %s rows to %s", humanize.Comma(int64(len(res.Rows))), cfg.Output.Path)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := plan(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return writeResult(cfg, res)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := parser.Load(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	idx, err := lookup.Build(in)
	if err != nil {
		return err
	}
	adj, err := precedence.CollectStatus(idx, precedence.AllDescendants(idx.Tasks))
	if err != nil {
		return err
	}

	fmt.Printf("OK: %d tasks, %d machines, %d wells on %d pads",
		len(idx.Tasks), len(idx.Machines), len(idx.Wells), len(idx.Pads))
	if n := len(adj.InstantFPDWells); n > 0 {
		fmt.Printf(", %d instant FPD", n)
	}
	fmt.Println()
	fmt.Printf("task order: %s\n", strings.Join(idx.TopoOrder, " -> "))
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := plan(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, res)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}
	triggers, err := replan.FromConfig(cfg.Replan)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observer.New(time.Minute)
	notifier := notify.NewMultiNotifier(
		notify.LogNotifier{},
		notify.NewDesktopNotifier(cfg.Notifications.Desktop),
	)
	send := func(n notify.Notification) {
		if err := notifier.Send(n); err != nil {
			log.Printf("notification: %v", err)
		}
	}

	var mu sync.Mutex
	replanOnce := func(ctx context.Context, reason string) error {
		mu.Lock()
		defer mu.Unlock()

		// reload so config edits apply on the next run
		current, err := loadConfig()
		if err != nil {
			log.Printf("%s: %v", reason, err)
			return err
		}

		began := time.Now()
		res, err := plan(ctx, current)
		elapsed := time.Since(began)
		if err != nil {
			obs.RecordFailure(elapsed)
			log.Printf("%s: planning failed: %v", reason, err)
			send(notify.ForRun("", 0, nil, err))
			return err
		}
		obs.RecordRun(res.RunID, elapsed, len(res.Rows), len(res.Underresourced.Wells))
		if obs.IsSlow(elapsed) {
			log.Printf("%s: run %s took %s", reason, res.RunID, elapsed)
		}
		if err := writeResult(current, res); err != nil {
			log.Printf("%s: writing schedule: %v", reason, err)
			send(notify.ForRun(res.RunID, 0, nil, err))
			return err
		}
		send(notify.ForRun(res.RunID, len(res.Rows), res.Underresourced.Wells, nil))

		m := obs.GetMetrics()
		log.Printf("%s: run %d done (%d failed, %d in the last hour, avg %s)", reason,
			m.TotalRuns, m.TotalFailed, len(obs.GetRecentRuns(time.Hour)), m.AvgDuration.Round(time.Millisecond))
		return nil
	}

	// an initial failure is logged, the watch keeps going
	_ = replanOnce(ctx, "startup")

	iw, err := observer.NewInputWatcher(func(files []string) {
		_ = replanOnce(ctx, fmt.Sprintf("%d input files changed", len(files)))
	})
	if err != nil {
		return err
	}
	iw.SetDebounce(debounce)
	if cfg.Output.Path != "" {
		if err := iw.Ignore(cfg.Output.Path); err != nil {
			iw.Stop()
			return err
		}
	}

	dirs := []string{cfg.Inputs.Dir}
	if cfg.Inputs.Scenario != "" {
		dirs = []string{filepath.Dir(cfg.InputPath(cfg.Inputs.Scenario))}
	}
	for _, dir := range dirs {
		if err := iw.AddDir(dir); err != nil {
			iw.Stop()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	iw.Start(ctx)
	defer iw.Stop()

	if len(triggers) > 0 {
		sched, err := replan.NewScheduler(triggers)
		if err != nil {
			return err
		}
		for _, name := range sched.List() {
			log.Printf("replan %s next at %s", name, sched.NextRun(name).Format(time.RFC3339))
		}
		go sched.Start(ctx, time.Minute, func(ctx context.Context, c replan.Config) error {
			return replanOnce(ctx, "cron "+c.Name)
		})
	}

	log.Printf("watching %v for changes", dirs)
	<-ctx.Done()
	return nil
}
