package erde

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrInputFormat indicates a malformed or missing table row.
	ErrInputFormat = errors.New("erde: invalid input format")

	// ErrEmptyInput indicates there are no subjects to evaluate.
	ErrEmptyInput = errors.New("erde: no subjects to evaluate")

	// ErrInvalidOffset indicates the latency offset o is not a finite number.
	ErrInvalidOffset = errors.New("erde: invalid offset")

	// ErrDegenerateMetric indicates a metric has a zero denominator.
	ErrDegenerateMetric = errors.New("erde: degenerate metric")
)

// MetricError reports a metric that could not be computed.
type MetricError struct {
	Metric string // "precision", "recall" or "f1"
	Reason string
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("erde: cannot compute %s: %s", e.Metric, e.Reason)
}

// Unwrap lets errors.Is match ErrDegenerateMetric.
func (e *MetricError) Unwrap() error {
	return ErrDegenerateMetric
}
