package erde

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// Counts holds the confusion counts an evaluation depends on.
type Counts struct {
	Total             int `json:"total" yaml:"total"`                           // subjects evaluated
	TruePositives     int `json:"true_positives" yaml:"true_positives"`         // subjects whose true label is positive
	PositiveDecisions int `json:"positive_decisions" yaml:"positive_decisions"` // subjects the system flagged
	Hits              int `json:"hits" yaml:"hits"`                             // flagged subjects that are truly positive
}

// CountRecords tallies records.
func CountRecords(records []Record) Counts {
	return Counts{
		Total:             len(records),
		TruePositives:     lo.CountBy(records, func(r Record) bool { return r.Truth }),
		PositiveDecisions: lo.CountBy(records, func(r Record) bool { return r.Decision }),
		Hits:              lo.CountBy(records, func(r Record) bool { return r.Decision && r.Truth }),
	}
}

// ComputeMetrics derives Precision, Recall and F1 from counts. It returns a
// *MetricError naming the first metric whose denominator is zero; values
// computed before that point are still returned.
func ComputeMetrics(c Counts) (precision, recall, f1 float64, err error) {
	if c.PositiveDecisions == 0 {
		return 0, 0, 0, &MetricError{Metric: "precision", Reason: "zero positive decisions"}
	}
	precision = float64(c.Hits) / float64(c.PositiveDecisions)

	if c.TruePositives == 0 {
		return precision, 0, 0, &MetricError{Metric: "recall", Reason: "zero true positives in ground truth"}
	}
	recall = float64(c.Hits) / float64(c.TruePositives)

	if precision+recall == 0 {
		return precision, recall, 0, &MetricError{Metric: "f1", Reason: "precision and recall are both zero"}
	}
	f1 = 2 * precision * recall / (precision + recall)

	return precision, recall, f1, nil
}

// Classify computes Precision, Recall and F1 for parallel decision and label
// sequences, without any latency penalty.
func Classify(decisions, labels []bool) (Counts, float64, float64, float64, error) {
	records, err := FromSequences(decisions, labels, nil)
	if err != nil {
		return Counts{}, 0, 0, 0, err
	}
	c := CountRecords(records)
	p, r, f1, err := ComputeMetrics(c)
	return c, p, r, f1, err
}

// FromSequences builds records from parallel sequences. Subject ids are the
// zero-based positions. delays may be nil when no delays are known, in which
// case every delay is zero.
func FromSequences(decisions, labels []bool, delays []int) ([]Record, error) {
	if len(decisions) != len(labels) {
		return nil, fmt.Errorf("%w: %d decisions for %d labels", ErrInputFormat, len(decisions), len(labels))
	}
	if delays != nil && len(delays) != len(decisions) {
		return nil, fmt.Errorf("%w: %d delays for %d decisions", ErrInputFormat, len(delays), len(decisions))
	}

	records := make([]Record, len(decisions))
	for i := range decisions {
		var delay int
		if delays != nil {
			delay = delays[i]
			if delay < 0 {
				return nil, fmt.Errorf("%w: negative delay %d at position %d", ErrInputFormat, delay, i)
			}
		}
		records[i] = Record{
			SubjectID: strconv.Itoa(i),
			Truth:     labels[i],
			Decision:  decisions[i],
			Delay:     delay,
			Matched:   true,
		}
	}
	return records, nil
}
