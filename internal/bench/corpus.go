// Package bench loads evaluation tables and aligns them into ERDE records.
package bench

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	erde "github.com/jamesainslie/go-erde"
)

// Truth is one ground truth row.
type Truth struct {
	SubjectID string
	Risk      bool
}

// Prediction is one row produced by the evaluated system.
type Prediction struct {
	SubjectID string
	Decision  bool
	Delay     int
}

// row is a non-empty input line split into fields.
type row struct {
	line   int
	fields []string
}

// LoadGroundTruth reads a ground truth file of "subject_id true_risk" rows.
// sep is a single-character field separator; empty or " " splits on runs of
// whitespace.
func LoadGroundTruth(path, sep string) ([]Truth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer func() { _ = f.Close() }()

	truth, err := ParseGroundTruth(f, path, sep)
	if err != nil {
		return nil, err
	}
	if len(truth) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", erde.ErrEmptyInput, path)
	}
	return truth, nil
}

// LoadPredictions reads a predictions file of "subject_id decision delay" rows.
func LoadPredictions(path, sep string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParsePredictions(f, path, sep)
}

// ParseGroundTruth parses ground truth rows from r. name identifies the
// source in error messages.
func ParseGroundTruth(r io.Reader, name, sep string) ([]Truth, error) {
	rows, err := readRows(r, name, sep)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(rows))
	truth := make([]Truth, 0, len(rows))
	for _, rw := range rows {
		if len(rw.fields) != 2 {
			return nil, formatErr(name, rw.line, "expected 2 fields (subject_id true_risk), got %d", len(rw.fields))
		}
		id, err := subjectID(rw, name, seen)
		if err != nil {
			return nil, err
		}
		risk, err := parseFlag(rw.fields[1])
		if err != nil {
			return nil, formatErr(name, rw.line, "true_risk: %v", err)
		}
		truth = append(truth, Truth{SubjectID: id, Risk: risk})
	}
	return truth, nil
}

// ParsePredictions parses prediction rows from r. The delay column may be
// omitted on rows whose decision is 0.
func ParsePredictions(r io.Reader, name, sep string) ([]Prediction, error) {
	rows, err := readRows(r, name, sep)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(rows))
	preds := make([]Prediction, 0, len(rows))
	for _, rw := range rows {
		if len(rw.fields) < 2 || len(rw.fields) > 3 {
			return nil, formatErr(name, rw.line, "expected 3 fields (subject_id risk_decision delay), got %d", len(rw.fields))
		}
		id, err := subjectID(rw, name, seen)
		if err != nil {
			return nil, err
		}
		decision, err := parseFlag(rw.fields[1])
		if err != nil {
			return nil, formatErr(name, rw.line, "risk_decision: %v", err)
		}

		var delay int
		switch {
		case len(rw.fields) == 3:
			delay, err = strconv.Atoi(rw.fields[2])
			if err != nil || delay < 0 {
				return nil, formatErr(name, rw.line, "delay: want non-negative integer, got %q", rw.fields[2])
			}
		case decision:
			return nil, formatErr(name, rw.line, "delay is required for a positive decision")
		}

		preds = append(preds, Prediction{SubjectID: id, Decision: decision, Delay: delay})
	}
	return preds, nil
}

func subjectID(rw row, name string, seen map[string]int) (string, error) {
	id := rw.fields[0]
	if id == "" {
		return "", formatErr(name, rw.line, "empty subject_id")
	}
	if prev, ok := seen[id]; ok {
		return "", formatErr(name, rw.line, "duplicate subject_id %q (first seen on line %d)", id, prev)
	}
	seen[id] = rw.line
	return id, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("want 0 or 1, got %q", s)
	}
}

func formatErr(name string, line int, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", erde.ErrInputFormat, name, line, fmt.Sprintf(format, args...))
}

// readRows splits r into rows, skipping blank lines and '#' comments.
func readRows(r io.Reader, name, sep string) ([]row, error) {
	if sep == "" || sep == " " {
		return readFields(r, name)
	}

	comma, size := utf8.DecodeRuneInString(sep)
	if size != len(sep) || comma == utf8.RuneError {
		return nil, fmt.Errorf("%w: separator must be a single character, got %q", erde.ErrInputFormat, sep)
	}

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", erde.ErrInputFormat, name, err)
		}
		line, _ := cr.FieldPos(0)
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			blank = blank && rec[i] == ""
		}
		if blank {
			continue
		}
		rows = append(rows, row{line: line, fields: rec})
	}
	return rows, nil
}

func readFields(r io.Reader, name string) ([]row, error) {
	var rows []row
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rows = append(rows, row{line: line, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	return rows, nil
}
