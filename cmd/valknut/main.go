package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sibyllinesoft/valknut/internal/debug"
	"github.com/sibyllinesoft/valknut/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "valknut",
		Usage:                  "Multi-language static code analysis: complexity, structure, clones, and priority scoring",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root to analyze",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (overrides config, e.g. --include '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (appended to config excludes)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Max files parsed concurrently (0 = GOMAXPROCS)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Hard budget for the whole run, e.g. 5m (0 = unbounded)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: json | csv | jsonl | sonarqube",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-run the pipeline on every filesystem change under root",
			},
			&cli.BoolFlag{
				Name:  "no-gates",
				Usage: "Always exit 0 regardless of quality gate results",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Run the analysis pipeline once (or continuously with --watch) and emit results",
				Action: analyzeCommand,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema for the unified hierarchy document",
				Action: schemaCommand,
			},
		},
		Action: analyzeCommand,
	}

	if os.Getenv("DEBUG") != "" {
		if path, err := debug.InitDebugLogFile(); err == nil {
			defer debug.CloseDebugLog()
			fmt.Fprintf(os.Stderr, "debug log: %s\n", path)
		}
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "valknut: %v\n", err)
		os.Exit(exitCodeForError(err))
	}
}
