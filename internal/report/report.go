// Package report renders evaluation results for the erde command.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	erde "github.com/jamesainslie/go-erde"
	"github.com/jamesainslie/go-erde/internal/config"
)

// Kind selects the text layout of a Document.
type Kind string

const (
	KindEval    Kind = "eval"
	KindSweep   Kind = "sweep"
	KindMetrics Kind = "metrics"
)

// Document is everything one command run reports.
type Document struct {
	Kind        Kind         `json:"kind" yaml:"kind"`
	Golden      string       `json:"golden,omitempty" yaml:"golden,omitempty"`
	Results     string       `json:"results,omitempty" yaml:"results,omitempty"`
	Evaluations []Evaluation `json:"evaluations" yaml:"evaluations"`
	BestOffset  *float64     `json:"best_offset,omitempty" yaml:"best_offset,omitempty"`
}

// Evaluation is the serializable view of one erde.Result. Metrics that could
// not be computed are nil and Error explains why.
type Evaluation struct {
	Offset    *float64      `json:"offset,omitempty" yaml:"offset,omitempty"`
	ERDE      *float64      `json:"erde,omitempty" yaml:"erde,omitempty"`
	Precision *float64      `json:"precision,omitempty" yaml:"precision,omitempty"`
	Recall    *float64      `json:"recall,omitempty" yaml:"recall,omitempty"`
	F1        *float64      `json:"f1,omitempty" yaml:"f1,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Counts    erde.Counts   `json:"counts" yaml:"counts"`
	Subjects  []SubjectLoss `json:"subjects,omitempty" yaml:"subjects,omitempty"`
}

// SubjectLoss is one row of the per-subject table.
type SubjectLoss struct {
	SubjectID string  `json:"subject_id" yaml:"subject_id"`
	Loss      float64 `json:"erde" yaml:"erde"`
	Matched   bool    `json:"matched" yaml:"matched"`
}

// FromResult converts res. metricErr is the error Evaluate returned alongside
// res, if any; withSubjects includes the per-subject table.
func FromResult(res *erde.Result, metricErr error, withSubjects bool) Evaluation {
	ev := Metrics(res.Counts, res.Precision, res.Recall, res.F1, metricErr)
	ev.Offset = lo.ToPtr(res.Offset)
	ev.ERDE = lo.ToPtr(res.ERDE)

	if withSubjects {
		ev.Subjects = lo.Map(res.Subjects, func(s erde.Scored, _ int) SubjectLoss {
			return SubjectLoss{SubjectID: s.SubjectID, Loss: s.Loss, Matched: s.Matched}
		})
	}
	return ev
}

// Metrics builds an Evaluation holding only classification metrics. Values
// computed before a degenerate metric are kept.
func Metrics(c erde.Counts, precision, recall, f1 float64, metricErr error) Evaluation {
	ev := Evaluation{Counts: c}

	failed := ""
	var me *erde.MetricError
	if errors.As(metricErr, &me) {
		failed = me.Metric
		ev.Error = me.Reason
	} else if metricErr != nil {
		failed = "precision"
		ev.Error = metricErr.Error()
	}

	switch failed {
	case "":
		ev.Precision, ev.Recall, ev.F1 = lo.ToPtr(precision), lo.ToPtr(recall), lo.ToPtr(f1)
	case "f1":
		ev.Precision, ev.Recall = lo.ToPtr(precision), lo.ToPtr(recall)
	case "recall":
		ev.Precision = lo.ToPtr(precision)
	}
	return ev
}

// Write renders doc to w in the given format.
func Write(w io.Writer, format string, doc Document) error {
	switch format {
	case config.FormatText, "":
		return writeText(w, doc)
	case config.FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(doc)
	case config.FormatYAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(doc); err != nil {
			return err
		}
		return e.Close()
	case config.FormatProtoJSON:
		return writeProtoJSON(w, doc)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// writeProtoJSON emits doc as a google.protobuf.Struct in canonical protobuf
// JSON.
func writeProtoJSON(w io.Writer, doc Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("unmarshal report: %w", err)
	}

	s, err := structpb.NewStruct(m)
	if err != nil {
		return fmt.Errorf("build struct: %w", err)
	}
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal protojson: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writeText(w io.Writer, doc Document) error {
	var b strings.Builder

	switch doc.Kind {
	case KindSweep:
		writeSweep(&b, doc)
	default:
		for i, ev := range doc.Evaluations {
			if i > 0 {
				b.WriteString("\n")
			}
			writeEvaluation(&b, ev)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeEvaluation(b *strings.Builder, ev Evaluation) {
	if len(ev.Subjects) > 0 {
		width := len("subject_id")
		for _, s := range ev.Subjects {
			width = max(width, len(s.SubjectID))
		}
		fmt.Fprintf(b, "%-*s  %s\n", width, "subject_id", "erde")
		for _, s := range ev.Subjects {
			fmt.Fprintf(b, "%-*s  %.6f\n", width, s.SubjectID, s.Loss)
		}
	}

	if ev.ERDE != nil && ev.Offset != nil {
		fmt.Fprintf(b, "Global ERDE (with o = %s): %.2f %%\n", FormatOffset(*ev.Offset), *ev.ERDE)
	}
	writeMetric(b, "F1", ev.F1, ev.Error)
	writeMetric(b, "Precision", ev.Precision, ev.Error)
	writeMetric(b, "Recall", ev.Recall, ev.Error)
}

func writeMetric(b *strings.Builder, name string, v *float64, reason string) {
	if v == nil {
		fmt.Fprintf(b, "%s: n/a (%s)\n", name, reason)
		return
	}
	fmt.Fprintf(b, "%s: %.2f\n", name, *v)
}

func writeSweep(b *strings.Builder, doc Document) {
	fmt.Fprintf(b, "%-10s %-10s\n", "Offset", "ERDE (%)")
	b.WriteString(strings.Repeat("-", 21) + "\n")
	for _, ev := range doc.Evaluations {
		if ev.Offset == nil || ev.ERDE == nil {
			continue
		}
		fmt.Fprintf(b, "%-10s %-10.2f\n", FormatOffset(*ev.Offset), *ev.ERDE)
	}
	b.WriteString(strings.Repeat("-", 21) + "\n")

	if doc.BestOffset != nil {
		for _, ev := range doc.Evaluations {
			if ev.Offset != nil && *ev.Offset == *doc.BestOffset {
				fmt.Fprintf(b, "Optimal: o = %s (ERDE: %.2f %%)\n", FormatOffset(*doc.BestOffset), *ev.ERDE)
				break
			}
		}
	}

	// Precision, Recall and F1 do not depend on the offset.
	if len(doc.Evaluations) > 0 {
		ev := doc.Evaluations[0]
		writeMetric(b, "F1", ev.F1, ev.Error)
		writeMetric(b, "Precision", ev.Precision, ev.Error)
		writeMetric(b, "Recall", ev.Recall, ev.Error)
	}
}

// FormatOffset prints integral offsets without a fractional part.
func FormatOffset(o float64) string {
	return strconv.FormatFloat(o, 'f', -1, 64)
}
