package erde

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Record is one evaluated subject after ground truth and predictions have
// been aligned.
type Record struct {
	SubjectID string
	Truth     bool // true label: the subject is at risk
	Decision  bool // predicted decision: the system flagged the subject
	Delay     int  // observations consumed before deciding; read only for true positives

	// Matched is false when the subject had no prediction row and was
	// defaulted to a negative decision.
	Matched bool
}

// Scored is a Record with its ERDE loss.
type Scored struct {
	Record
	Loss float64
}

// Result holds the outcome of one evaluation at a fixed offset.
type Result struct {
	Offset    float64
	Subjects  []Scored
	Counts    Counts
	ERDE      float64 // mean loss, as a percentage
	Precision float64
	Recall    float64
	F1        float64
}

// Loss returns the ERDE loss of a single subject. positives is the number of
// subjects whose true label is positive and total the number of subjects in
// the evaluation; they scale the false positive penalty. delay is ignored
// unless the subject is a true positive.
func Loss(decision, truth bool, delay int, o float64, positives, total int) float64 {
	switch {
	case !decision && !truth:
		return 0
	case decision && !truth:
		if total <= 0 {
			return 0
		}
		return float64(positives) / float64(total)
	case !decision && truth:
		return 1
	default:
		return latencyCost(float64(delay) - o)
	}
}

// latencyCost computes 1 - 1/(1+exp(x)) without overflowing exp for large |x|.
func latencyCost(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Scorer computes ERDE for a fixed latency offset o.
// It is safe for concurrent use.
type Scorer struct {
	offset  float64
	workers int
	logger  *slog.Logger
}

// New creates a Scorer for offset o.
func New(o float64, opts ...Option) (*Scorer, error) {
	if math.IsNaN(o) || math.IsInf(o, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffset, o)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Scorer{
		offset:  o,
		workers: cfg.workers,
		logger:  cfg.logger,
	}, nil
}

// Offset returns the latency offset o.
func (s *Scorer) Offset() float64 {
	return s.offset
}

// Score computes the loss of every record. The output keeps the input order.
func (s *Scorer) Score(ctx context.Context, records []Record) ([]Scored, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return s.score(ctx, records, CountRecords(records))
}

func (s *Scorer) score(ctx context.Context, records []Record, counts Counts) ([]Scored, error) {
	scored := make([]Scored, len(records))

	workers := min(s.workers, len(records))
	chunk := (len(records) + workers - 1) / workers
	s.logger.Debug("scoring subjects",
		"subjects", len(records), "workers", workers, "offset", s.offset)

	// Each goroutine owns a disjoint slice of the output.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				r := records[i]
				scored[i] = Scored{
					Record: r,
					Loss:   Loss(r.Decision, r.Truth, r.Delay, s.offset, counts.TruePositives, counts.Total),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scored, nil
}

// Evaluate scores records and aggregates Precision, Recall, F1 and mean ERDE.
//
// If a metric has a zero denominator the returned error wraps
// ErrDegenerateMetric and the Result is still returned with Subjects, Counts
// and ERDE filled in.
func (s *Scorer) Evaluate(ctx context.Context, records []Record) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	counts := CountRecords(records)
	scored, err := s.score(ctx, records, counts)
	if err != nil {
		return nil, err
	}

	// Summed in input order so repeated runs give identical floats.
	total := lo.SumBy(scored, func(sc Scored) float64 { return sc.Loss })

	res := &Result{
		Offset:   s.offset,
		Subjects: scored,
		Counts:   counts,
		ERDE:     total / float64(counts.Total) * 100,
	}

	s.logger.Debug("evaluation complete",
		"offset", s.offset,
		"subjects", counts.Total,
		"positives", counts.TruePositives,
		"decisions", counts.PositiveDecisions,
		"hits", counts.Hits,
		"erde", res.ERDE)

	res.Precision, res.Recall, res.F1, err = ComputeMetrics(counts)
	return res, err
}
