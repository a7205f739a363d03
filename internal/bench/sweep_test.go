package bench

import (
	"context"
	"errors"
	"math"
	"testing"

	erde "github.com/jamesainslie/go-erde"
)

func TestOffsets(t *testing.T) {
	offsets, err := Offsets(5, 50, 15)
	if err != nil {
		t.Fatalf("Offsets() error = %v", err)
	}

	want := []float64{5, 20, 35, 50}
	if len(offsets) != len(want) {
		t.Errorf("got %d offsets, want %d", len(offsets), len(want))
		t.Logf("got: %v", offsets)
		return
	}

	for i := range want {
		diff := offsets[i] - want[i]
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("offset[%d] = %v, want %v", i, offsets[i], want[i])
		}
	}
}

func TestOffsets_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
	}{
		{name: "zero step", min: 1, max: 10, step: 0},
		{name: "inverted range", min: 10, max: 1, step: 1},
		{name: "infinite max", min: 1, max: math.Inf(1), step: 1},
		{name: "infinite min", min: math.Inf(-1), max: 1, step: 1},
		{name: "NaN step", min: 1, max: 10, step: math.NaN()},
		{name: "tiny step", min: 1, max: 100, step: 1e-15},
		{name: "too many offsets", min: 0, max: MaxOffsets, step: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Offsets(tt.min, tt.max, tt.step)
			if !errors.Is(err, erde.ErrInvalidOffset) {
				t.Errorf("Offsets() error = %v, want ErrInvalidOffset", err)
			}
			if got != nil {
				t.Errorf("Offsets() = %d offsets, want nil", len(got))
			}
		})
	}
}

func TestOffsets_AtCap(t *testing.T) {
	offsets, err := Offsets(1, MaxOffsets, 1)
	if err != nil {
		t.Fatalf("Offsets() error = %v", err)
	}
	if len(offsets) != MaxOffsets {
		t.Errorf("got %d offsets, want %d", len(offsets), MaxOffsets)
	}
}

func TestSweep(t *testing.T) {
	records := []erde.Record{
		{SubjectID: "A", Truth: true, Decision: true, Delay: 10},
		{SubjectID: "B"},
	}

	results, err := Sweep(context.Background(), records, []float64{5, 50, 10})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, o := range []float64{5, 50, 10} {
		if results[i].Offset != o {
			t.Errorf("result[%d].Offset = %v, want %v", i, results[i].Offset, o)
		}
	}

	best, ok := Best(results)
	if !ok {
		t.Fatal("Best() found nothing")
	}
	// A late offset forgives the delay of 10 the most.
	if best.Offset != 50 {
		t.Errorf("best offset = %v, want 50", best.Offset)
	}
}

func TestSweep_DegenerateMetricsDoNotAbort(t *testing.T) {
	records := []erde.Record{{SubjectID: "A", Truth: true}, {SubjectID: "B"}}

	results, err := Sweep(context.Background(), records, []float64{5, 50})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	for _, r := range results {
		if !errors.Is(r.MetricErr, erde.ErrDegenerateMetric) {
			t.Errorf("offset %v: MetricErr = %v, want ErrDegenerateMetric", r.Offset, r.MetricErr)
		}
		if r.Result == nil || r.Result.ERDE != 50 {
			t.Errorf("offset %v: want ERDE 50, got %+v", r.Offset, r.Result)
		}
	}
}

func TestBest_Empty(t *testing.T) {
	if _, ok := Best(nil); ok {
		t.Error("Best(nil) reported a result")
	}
}
