// Package erde scores early risk detection systems with Precision, Recall,
// F1 and ERDE (Early Risk Detection Error).
//
// # Quick Start
//
//	scorer, err := erde.New(5)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	records := []erde.Record{
//	    {SubjectID: "A", Truth: true, Decision: true, Delay: 5},
//	    {SubjectID: "B"},
//	}
//	res, err := scorer.Evaluate(ctx, records)
//	if err != nil && !errors.Is(err, erde.ErrDegenerateMetric) {
//	    log.Fatal(err)
//	}
//	fmt.Printf("ERDE(5): %.2f%%\n", res.ERDE)
//
// # Loss
//
// Each subject is scored independently:
//   - correct negative: 0
//   - false positive: positives / total, the base rate of true positives
//   - missed detection: 1
//   - true positive: 1 - 1/(1+exp(k-o)), where k is the delay of the decision
//
// The offset o is the delay at which a correct positive costs exactly 0.5.
//
// # Degenerate Metrics
//
// Precision needs at least one positive decision, Recall at least one
// positive subject, and F1 a non-zero Precision+Recall. When a denominator is
// zero, Evaluate returns an error wrapping ErrDegenerateMetric together with a
// Result that still holds the per-subject losses and the mean ERDE.
//
// # Thread Safety
//
// Scorer is immutable after New and safe for concurrent use. Per-subject
// losses are computed on up to WithWorkers goroutines.
package erde
