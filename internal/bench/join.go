package bench

import (
	"fmt"

	erde "github.com/jamesainslie/go-erde"
)

// JoinStats describes how ground truth and predictions lined up.
type JoinStats struct {
	Matched   int
	Defaulted []string // ground truth subjects with no prediction
	Dropped   []string // predictions with no ground truth subject
}

// Join aligns predictions to ground truth by subject id. Every ground truth
// subject appears once in the output, in ground truth order. A subject with
// no prediction is scored as a negative decision; predictions for unknown
// subjects are dropped.
func Join(truth []Truth, preds []Prediction) ([]erde.Record, JoinStats) {
	byID := make(map[string]Prediction, len(preds))
	for _, p := range preds {
		byID[p.SubjectID] = p
	}

	var stats JoinStats
	known := make(map[string]struct{}, len(truth))
	records := make([]erde.Record, len(truth))
	for i, t := range truth {
		known[t.SubjectID] = struct{}{}
		rec := erde.Record{SubjectID: t.SubjectID, Truth: t.Risk}
		if p, ok := byID[t.SubjectID]; ok {
			rec.Decision = p.Decision
			rec.Delay = p.Delay
			rec.Matched = true
			stats.Matched++
		} else {
			stats.Defaulted = append(stats.Defaulted, t.SubjectID)
		}
		records[i] = rec
	}

	for _, p := range preds {
		if _, ok := known[p.SubjectID]; !ok {
			stats.Dropped = append(stats.Dropped, p.SubjectID)
		}
	}

	return records, stats
}

// Tables names the two input files of an evaluation and their separators.
type Tables struct {
	GoldenPath  string
	GoldenSep   string
	ResultsPath string
	ResultsSep  string
}

// Load reads both tables and joins them.
func Load(t Tables) ([]erde.Record, JoinStats, error) {
	truth, err := LoadGroundTruth(t.GoldenPath, t.GoldenSep)
	if err != nil {
		return nil, JoinStats{}, fmt.Errorf("loading ground truth: %w", err)
	}
	preds, err := LoadPredictions(t.ResultsPath, t.ResultsSep)
	if err != nil {
		return nil, JoinStats{}, fmt.Errorf("loading predictions: %w", err)
	}

	records, stats := Join(truth, preds)
	return records, stats, nil
}
