package bench

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	erde "github.com/jamesainslie/go-erde"
)

func TestJoin(t *testing.T) {
	truth := []Truth{
		{SubjectID: "A", Risk: true},
		{SubjectID: "B"},
		{SubjectID: "C", Risk: true},
	}
	preds := []Prediction{
		{SubjectID: "Z", Decision: true, Delay: 1},
		{SubjectID: "A", Decision: true, Delay: 5},
		{SubjectID: "B"},
	}

	records, stats := Join(truth, preds)

	want := []erde.Record{
		{SubjectID: "A", Truth: true, Decision: true, Delay: 5, Matched: true},
		{SubjectID: "B", Matched: true},
		{SubjectID: "C", Truth: true},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}

	if stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", stats.Matched)
	}
	if len(stats.Defaulted) != 1 || stats.Defaulted[0] != "C" {
		t.Errorf("Defaulted = %v, want [C]", stats.Defaulted)
	}
	if len(stats.Dropped) != 1 || stats.Dropped[0] != "Z" {
		t.Errorf("Dropped = %v, want [Z]", stats.Dropped)
	}
}

func writeTables(t *testing.T, golden, results string) Tables {
	t.Helper()
	dir := t.TempDir()
	tables := Tables{
		GoldenPath:  filepath.Join(dir, "golden.txt"),
		GoldenSep:   "\t",
		ResultsPath: filepath.Join(dir, "results.txt"),
		ResultsSep:  " ",
	}
	if err := os.WriteFile(tables.GoldenPath, []byte(golden), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tables.ResultsPath, []byte(results), 0644); err != nil {
		t.Fatal(err)
	}
	return tables
}

func TestLoad_EndToEnd(t *testing.T) {
	tables := writeTables(t, "A\t1\nB\t0\nC\t1\n", "A 1 5\nB 0 0\nC 0 0\n")

	records, stats, err := Load(tables)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if stats.Matched != 3 {
		t.Errorf("Matched = %d, want 3", stats.Matched)
	}

	scorer, err := erde.New(5)
	if err != nil {
		t.Fatal(err)
	}
	res, err := scorer.Evaluate(context.Background(), records)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(res.ERDE-50) > 1e-9 {
		t.Errorf("ERDE = %v, want 50", res.ERDE)
	}
	if math.Abs(res.F1-2.0/3.0) > 1e-9 {
		t.Errorf("F1 = %v, want 0.667", res.F1)
	}
}

func TestLoad_MissingPredictionDefaultsNegative(t *testing.T) {
	// B has no prediction row and a negative label: correct negative, zero loss.
	tables := writeTables(t, "A\t1\nB\t0\n", "A 1 5\n")

	records, stats, err := Load(tables)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(stats.Defaulted) != 1 {
		t.Fatalf("Defaulted = %v, want one subject", stats.Defaulted)
	}

	scorer, _ := erde.New(5)
	res, err := scorer.Evaluate(context.Background(), records)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.Subjects[1].Loss != 0 {
		t.Errorf("loss(B) = %v, want 0", res.Subjects[1].Loss)
	}
}
