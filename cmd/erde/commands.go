package main

import (
	"context"

	"github.com/urfave/cli/v3"

	erde "github.com/jamesainslie/go-erde"
	"github.com/jamesainslie/go-erde/internal/bench"
	"github.com/jamesainslie/go-erde/internal/config"
	"github.com/jamesainslie/go-erde/internal/report"
)

const (
	flagOffset     = "offset"
	flagNoSubjects = "no-subjects"
	flagMin        = "min"
	flagMax        = "max"
	flagStep       = "step"
)

func (a *app) evalCmd() *cli.Command {
	return &cli.Command{
		Name:    "eval",
		Aliases: []string{"e"},
		Usage:   "Per-subject ERDE plus global ERDE, F1, Precision and Recall",
		Flags: []cli.Flag{
			&cli.FloatSliceFlag{
				Name:    flagOffset,
				Aliases: []string{"o"},
				Usage:   "ERDE latency offset o, repeatable (default: 50)",
				Sources: cli.EnvVars("ERDE_OFFSET"),
			},
			&cli.BoolFlag{
				Name:  flagNoSubjects,
				Usage: "Omit the per-subject loss table",
			},
		},
		Action: a.runEval,
	}
}

func (a *app) runEval(ctx context.Context, cmd *cli.Command) error {
	cfg, err := a.setup(cmd, func(c *config.Config) {
		if cmd.IsSet(flagOffset) {
			c.Offsets = cmd.FloatSlice(flagOffset)
		}
		if cmd.Bool(flagNoSubjects) {
			c.Subjects = false
		}
	})
	if err != nil {
		return err
	}

	records, err := a.load(cfg)
	if err != nil {
		return err
	}

	doc := report.Document{Kind: report.KindEval, Golden: cfg.Golden, Results: cfg.Results}
	var metricErr error
	for _, o := range cfg.Offsets {
		res, err := a.evaluate(ctx, cfg, records, o)
		if err != nil && !isDegenerate(err) {
			return err
		}
		metricErr = err
		doc.Evaluations = append(doc.Evaluations, report.FromResult(res, err, cfg.Subjects))
	}

	return a.write(cfg, doc, metricErr)
}

func (a *app) sweepCmd() *cli.Command {
	return &cli.Command{
		Name:    "sweep",
		Aliases: []string{"s"},
		Usage:   "Global ERDE over a range of offsets",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  flagMin,
				Usage: "Smallest offset of the sweep (default: 1)",
			},
			&cli.FloatFlag{
				Name:  flagMax,
				Usage: "Largest offset of the sweep, inclusive (default: 100)",
			},
			&cli.FloatFlag{
				Name:  flagStep,
				Usage: "Offset increment of the sweep (default: 1)",
			},
		},
		Action: a.runSweep,
	}
}

func (a *app) runSweep(ctx context.Context, cmd *cli.Command) error {
	cfg, err := a.setup(cmd, func(c *config.Config) {
		if cmd.IsSet(flagMin) {
			c.Sweep.Min = cmd.Float(flagMin)
		}
		if cmd.IsSet(flagMax) {
			c.Sweep.Max = cmd.Float(flagMax)
		}
		if cmd.IsSet(flagStep) {
			c.Sweep.Step = cmd.Float(flagStep)
		}
	})
	if err != nil {
		return err
	}

	records, err := a.load(cfg)
	if err != nil {
		return err
	}

	offsets, err := bench.Offsets(cfg.Sweep.Min, cfg.Sweep.Max, cfg.Sweep.Step)
	if err != nil {
		return err
	}
	a.logger.Debug("sweeping offsets", "count", len(offsets), "min", cfg.Sweep.Min, "max", cfg.Sweep.Max)

	results, err := bench.Sweep(ctx, records, offsets, a.options(cfg)...)
	if err != nil {
		return err
	}

	doc := report.Document{Kind: report.KindSweep, Golden: cfg.Golden, Results: cfg.Results}
	for _, r := range results {
		doc.Evaluations = append(doc.Evaluations, report.FromResult(r.Result, r.MetricErr, false))
	}
	var metricErr error
	if best, ok := bench.Best(results); ok {
		doc.BestOffset = &best.Offset
		metricErr = best.MetricErr
	}

	return a.write(cfg, doc, metricErr)
}

func (a *app) metricsCmd() *cli.Command {
	return &cli.Command{
		Name:    "metrics",
		Aliases: []string{"m"},
		Usage:   "F1, Precision and Recall without latency penalty",
		Action:  a.runMetrics,
	}
}

func (a *app) runMetrics(_ context.Context, cmd *cli.Command) error {
	cfg, err := a.setup(cmd, nil)
	if err != nil {
		return err
	}

	records, err := a.load(cfg)
	if err != nil {
		return err
	}

	counts := erde.CountRecords(records)
	p, r, f1, metricErr := erde.ComputeMetrics(counts)

	doc := report.Document{
		Kind:        report.KindMetrics,
		Golden:      cfg.Golden,
		Results:     cfg.Results,
		Evaluations: []report.Evaluation{report.Metrics(counts, p, r, f1, metricErr)},
	}
	return a.write(cfg, doc, metricErr)
}
