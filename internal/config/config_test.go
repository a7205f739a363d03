package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Golden = "golden.txt"
	cfg.Results = "results.txt"
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "erde.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []float64{50}, cfg.Offsets)
	assert.Equal(t, FormatText, cfg.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
golden: data/golden.tsv
results: data/results.txt
golden_sep: tab
results_sep: comma
offsets: [5, 50]
format: yaml
workers: 4
sweep:
  min: 5
  max: 50
  step: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/golden.tsv", cfg.Golden)
	assert.Equal(t, "data/results.txt", cfg.Results)
	assert.Equal(t, "\t", cfg.GoldenSep)
	assert.Equal(t, ",", cfg.ResultsSep)
	assert.Equal(t, []float64{5, 50}, cfg.Offsets)
	assert.Equal(t, FormatYAML, cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, Sweep{Min: 5, Max: 50, Step: 5}, cfg.Sweep)
	// Untouched keys keep their defaults.
	assert.True(t, cfg.Subjects)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "golden: a\norder: 50\n"))
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing golden", mutate: func(c *Config) { c.Golden = "" }, wantErr: true},
		{name: "missing results", mutate: func(c *Config) { c.Results = "" }, wantErr: true},
		{name: "no offsets", mutate: func(c *Config) { c.Offsets = nil }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "protojson format", mutate: func(c *Config) { c.Format = FormatProtoJSON }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: true},
		{name: "long separator", mutate: func(c *Config) { c.GoldenSep = "::" }, wantErr: true},
		{name: "whitespace separator", mutate: func(c *Config) { c.ResultsSep = "" }},
		{name: "zero sweep step", mutate: func(c *Config) { c.Sweep.Step = 0 }, wantErr: true},
		{name: "inverted sweep", mutate: func(c *Config) { c.Sweep.Min, c.Sweep.Max = 10, 5 }, wantErr: true},
		{name: "infinite sweep max", mutate: func(c *Config) { c.Sweep.Max = math.Inf(1) }, wantErr: true},
		{name: "infinite sweep min", mutate: func(c *Config) { c.Sweep.Min = math.Inf(-1) }, wantErr: true},
		{name: "NaN sweep step", mutate: func(c *Config) { c.Sweep.Step = math.NaN() }, wantErr: true},
		{name: "infinite offset", mutate: func(c *Config) { c.Offsets = []float64{5, math.Inf(1)} }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSeparator(t *testing.T) {
	tests := map[string]string{
		`\t`:    "\t",
		"tab":   "\t",
		"csv":   ",",
		"space": " ",
		"|":     "|",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Separator(in), "Separator(%q)", in)
	}
}
