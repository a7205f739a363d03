package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	erde "github.com/jamesainslie/go-erde"
	"github.com/jamesainslie/go-erde/internal/bench"
	"github.com/jamesainslie/go-erde/internal/config"
	"github.com/jamesainslie/go-erde/internal/logging"
	"github.com/jamesainslie/go-erde/internal/report"
)

const (
	flagConfig     = "config"
	flagGolden     = "golden"
	flagResults    = "results"
	flagGoldenSep  = "golden-sep"
	flagResultsSep = "results-sep"
	flagFormat     = "format"
	flagWorkers    = "workers"
	flagLogLevel   = "log-level"
	flagDebug      = "debug"
)

// globalFlags are inherited by every subcommand. Flags hold parse state, so
// each app gets fresh ones.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			Sources: cli.EnvVars("ERDE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    flagGolden,
			Aliases: []string{"g"},
			Usage:   "Ground truth table: subject_id true_risk",
			Sources: cli.EnvVars("ERDE_GOLDEN"),
		},
		&cli.StringFlag{
			Name:    flagResults,
			Aliases: []string{"r"},
			Usage:   "Predictions table: subject_id risk_decision delay",
			Sources: cli.EnvVars("ERDE_RESULTS"),
		},
		&cli.StringFlag{
			Name:  flagGoldenSep,
			Usage: `Ground truth field separator (single character, "tab", "comma" or "space")`,
		},
		&cli.StringFlag{
			Name:  flagResultsSep,
			Usage: `Predictions field separator (single character, "tab", "comma" or "space")`,
		},
		&cli.StringFlag{
			Name:    flagFormat,
			Aliases: []string{"f"},
			Usage:   "Output format [text, json, yaml, protojson]",
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Usage: "Goroutines used to score subjects (0: one per CPU)",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "Log level [debug, info, warn, error]",
		},
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "Shorthand for --log-level debug",
		},
	}
}

// app carries what the command actions share.
type app struct {
	out    io.Writer
	logger *slog.Logger
}

func newApp(out io.Writer) *cli.Command {
	a := &app{out: out, logger: slog.Default()}

	return &cli.Command{
		Name:    "erde",
		Usage:   "Score early risk detection systems with ERDE, F1, Precision and Recall",
		Version: fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			a.evalCmd(),
			a.sweepCmd(),
			a.metricsCmd(),
		},
	}
}

// setup loads the configuration file, applies flags over it and configures
// logging.
func (a *app) setup(cmd *cli.Command, apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cmd.String(flagConfig))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet(flagGolden) {
		cfg.Golden = cmd.String(flagGolden)
	}
	if cmd.IsSet(flagResults) {
		cfg.Results = cmd.String(flagResults)
	}
	if cmd.IsSet(flagGoldenSep) {
		cfg.GoldenSep = config.Separator(cmd.String(flagGoldenSep))
	}
	if cmd.IsSet(flagResultsSep) {
		cfg.ResultsSep = config.Separator(cmd.String(flagResultsSep))
	}
	if cmd.IsSet(flagFormat) {
		cfg.Format = cmd.String(flagFormat)
	}
	if cmd.IsSet(flagWorkers) {
		cfg.Workers = int(cmd.Int(flagWorkers))
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.Bool(flagDebug) {
		cfg.LogLevel = "debug"
	}
	if apply != nil {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.logger = logging.SetDefaultCLILogger(cfg.LogLevel)
	return cfg, nil
}

// load reads and joins the two tables named by cfg.
func (a *app) load(cfg *config.Config) ([]erde.Record, error) {
	records, stats, err := bench.Load(bench.Tables{
		GoldenPath:  cfg.Golden,
		GoldenSep:   cfg.GoldenSep,
		ResultsPath: cfg.Results,
		ResultsSep:  cfg.ResultsSep,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("tables joined",
		"subjects", len(records), "matched", stats.Matched,
		"defaulted", len(stats.Defaulted), "dropped", len(stats.Dropped))
	if len(stats.Defaulted) > 0 {
		a.logger.Warn("subjects without a prediction scored as negative decisions",
			"count", len(stats.Defaulted), "first", stats.Defaulted[0])
	}
	if len(stats.Dropped) > 0 {
		a.logger.Debug("predictions for unknown subjects ignored",
			"count", len(stats.Dropped), "first", stats.Dropped[0])
	}
	return records, nil
}

func (a *app) options(cfg *config.Config) []erde.Option {
	return []erde.Option{
		erde.WithWorkers(cfg.Workers),
		erde.WithLogger(a.logger),
	}
}

// write renders doc and turns a degenerate metric into the command error once
// the report, per-subject losses included, has been written.
func (a *app) write(cfg *config.Config, doc report.Document, metricErr error) error {
	if err := report.Write(a.out, cfg.Format, doc); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return metricErr
}

func isDegenerate(err error) bool {
	return errors.Is(err, erde.ErrDegenerateMetric)
}

func (a *app) evaluate(ctx context.Context, cfg *config.Config, records []erde.Record, o float64) (*erde.Result, error) {
	scorer, err := erde.New(o, a.options(cfg)...)
	if err != nil {
		return nil, err
	}
	return scorer.Evaluate(ctx, records)
}
