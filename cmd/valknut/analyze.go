package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/pipeline"
	"github.com/sibyllinesoft/valknut/internal/results"
)

// analyzeCommand runs the pipeline once, or continuously under --watch, and
// writes the scored hierarchy in the requested format. It exits the process
// directly rather than returning an error for every outcome but a genuine
// configuration/discovery failure, so that quality-gate and cancellation
// exit codes (§7) aren't flattened into urfave/cli's generic error path.
func analyzeCommand(c *cli.Context) error {
	root := c.String("root")

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	opts := buildOptions(c, root, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var interrupted atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			interrupted.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()

	if c.Bool("watch") {
		watchErr := pipeline.Watch(ctx, pipeline.WatchOptions{Options: opts}, func(run *pipeline.Run, runErr error) {
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "valknut: run failed: %v\n", runErr)
				return
			}
			if writeErr := emitRun(c, run); writeErr != nil {
				fmt.Fprintf(os.Stderr, "valknut: %v\n", writeErr)
			}
		})
		if interrupted.Load() {
			os.Exit(results.ExitCancelled)
		}
		if watchErr != nil {
			return watchErr
		}
		os.Exit(results.ExitSuccess)
	}

	run, err := pipeline.Execute(ctx, opts)
	if err != nil {
		if interrupted.Load() {
			os.Exit(results.ExitCancelled)
		}
		return err
	}

	if invErr := results.ValidateInvariants(run.Index, run.Hierarchy); invErr != nil {
		fmt.Fprintf(os.Stderr, "valknut: warning: %v\n", invErr)
	}
	for _, w := range run.Warnings {
		fmt.Fprintf(os.Stderr, "valknut: warning: %v\n", w)
	}

	if err := emitRun(c, run); err != nil {
		return err
	}

	if c.Bool("no-gates") {
		os.Exit(results.ExitSuccess)
	}

	summary := results.BuildCISummary(run.Hierarchy, run.Scores, run.Accumulator, cfg.Gates)
	os.Exit(summary.ExitCode())
	return nil
}

// loadConfig reads the project's KDL config and layers CLI overrides on
// top, the way the teacher's loadConfigWithOverrides does for its own
// flags.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	cfg, err := config.LoadKDL(root)
	if err != nil {
		return nil, err
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Analysis.IncludePatterns = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Analysis.ExcludePatterns = append(cfg.Analysis.ExcludePatterns, excludes...)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildOptions(c *cli.Context, root string, cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Root:        root,
		Config:      cfg,
		Concurrency: c.Int("concurrency"),
		HardBudget:  c.Duration("timeout"),
	}
}

// emitRun renders one Run in the requested --format and writes it to
// --output, or stdout when unset.
func emitRun(c *cli.Context, run *pipeline.Run) error {
	var data []byte
	var err error

	switch format := c.String("format"); format {
	case "json":
		data, err = results.MarshalHierarchy(run.Hierarchy)
	case "csv":
		data, err = results.ExportCSV(run.Hierarchy)
	case "jsonl":
		data, err = results.ExportJSONL(run.Hierarchy)
	case "sonarqube":
		data, err = results.ExportSonarQube(run.Hierarchy)
	default:
		return fmt.Errorf("unknown --format %q (want json | csv | jsonl | sonarqube)", format)
	}
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}
