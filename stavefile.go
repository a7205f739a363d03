//go:build stave

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the erde binary with version information.
func Build() error {
	st.Deps(Init)

	// Check if rebuild is needed
	rebuild, err := target.Glob("bin/erde", "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("erde is up to date")
		}
		return nil
	}

	ldflags := buildLdflags()
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/erde", "./cmd/erde")
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.date=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	artifacts := []string{
		"bin/",
		"erde",
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Eval namespace for running the scorer against local tables.
type Eval st.Namespace

// evalTables returns the ground truth and predictions paths, overridable via
// ERDE_GOLDEN and ERDE_RESULTS.
func evalTables() (golden, results string) {
	golden = os.Getenv("ERDE_GOLDEN")
	if golden == "" {
		golden = "testdata/golden.txt"
	}
	results = os.Getenv("ERDE_RESULTS")
	if results == "" {
		results = "testdata/results.txt"
	}
	return golden, results
}

// Run reports ERDE5 and ERDE50, the offsets used by the eRisk shared task.
func (Eval) Run() error {
	st.Deps(Build)

	golden, results := evalTables()
	if _, err := os.Stat(golden); os.IsNotExist(err) {
		return fmt.Errorf("ground truth not found: %s", golden)
	}

	return sh.RunV("./bin/erde", "eval",
		"--golden", golden,
		"--results", results,
		"-o", "5",
		"-o", "50",
	)
}

// Sweep reports ERDE over offsets 1 to 100.
func (Eval) Sweep() error {
	st.Deps(Build)

	golden, results := evalTables()
	return sh.RunV("./bin/erde", "sweep",
		"--golden", golden,
		"--results", results,
		"--min", "1",
		"--max", "100",
	)
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}
