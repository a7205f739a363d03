package bench

import (
	"context"
	"errors"
	"fmt"
	"math"

	erde "github.com/jamesainslie/go-erde"
)

// SweepResult holds the evaluation at one offset.
type SweepResult struct {
	Offset float64
	Result *erde.Result
	// MetricErr is set when Precision, Recall or F1 is degenerate. It does
	// not depend on the offset, so it is the same for every result.
	MetricErr error
}

// MaxOffsets bounds the number of offsets a single sweep evaluates.
const MaxOffsets = 100_000

// Offsets generates offsets from min to max inclusive with the given step.
func Offsets(min, max, step float64) ([]float64, error) {
	for _, v := range []float64{min, max, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sweep bounds must be finite, got min=%v max=%v step=%v", erde.ErrInvalidOffset, min, max, step)
		}
	}
	if step <= 0 || max < min {
		return nil, fmt.Errorf("%w: empty sweep range min=%v max=%v step=%v", erde.ErrInvalidOffset, min, max, step)
	}

	span := math.Floor((max-min)/step + 1e-9)
	if span >= MaxOffsets {
		return nil, fmt.Errorf("%w: sweep of %v offsets exceeds %d", erde.ErrInvalidOffset, span+1, MaxOffsets)
	}

	n := int(span)
	offsets := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		offsets = append(offsets, min+float64(i)*step)
	}
	return offsets, nil
}

// Sweep evaluates records at each offset. Results keep the order of offsets.
// Degenerate metrics are recorded on each result rather than aborting.
func Sweep(ctx context.Context, records []erde.Record, offsets []float64, opts ...erde.Option) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(offsets))

	for _, o := range offsets {
		scorer, err := erde.New(o, opts...)
		if err != nil {
			return nil, err
		}

		res, err := scorer.Evaluate(ctx, records)
		if err != nil && !errors.Is(err, erde.ErrDegenerateMetric) {
			return nil, err
		}

		results = append(results, SweepResult{
			Offset:    scorer.Offset(),
			Result:    res,
			MetricErr: err,
		})
	}

	return results, nil
}

// Best returns the result with the lowest ERDE. The first offset wins ties.
func Best(results []SweepResult) (SweepResult, bool) {
	if len(results) == 0 {
		return SweepResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Result.ERDE < best.Result.ERDE {
			best = r
		}
	}
	return best, true
}
