// Package config holds the run configuration of the erde command.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	FormatText      = "text"
	FormatJSON      = "json"
	FormatYAML      = "yaml"
	FormatProtoJSON = "protojson"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Inf and NaN slip through numeric comparisons like gtefield.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Config is the run configuration. Zero values in a YAML file keep the
// defaults from Default.
type Config struct {
	// Golden is the ground truth table: subject_id true_risk.
	Golden string `yaml:"golden" validate:"required"`
	// Results is the predictions table: subject_id risk_decision delay.
	Results string `yaml:"results" validate:"required"`

	// GoldenSep and ResultsSep are single-character field separators.
	// Empty splits on whitespace. See Separator for accepted names.
	GoldenSep  string `yaml:"golden_sep" validate:"max=1"`
	ResultsSep string `yaml:"results_sep" validate:"max=1"`

	// Offsets are the ERDE latency offsets o evaluated by the eval command.
	Offsets []float64 `yaml:"offsets" validate:"required,min=1,dive,finite"`

	Sweep Sweep `yaml:"sweep"`

	Format   string `yaml:"format" validate:"oneof=text json yaml protojson"`
	Subjects bool   `yaml:"subjects"`
	Workers  int    `yaml:"workers" validate:"gte=0"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
}

// Sweep is the offset range of the sweep command, bounds inclusive.
type Sweep struct {
	Min  float64 `yaml:"min" validate:"finite"`
	Max  float64 `yaml:"max" validate:"finite,gtefield=Min"`
	Step float64 `yaml:"step" validate:"finite,gt=0"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		GoldenSep:  "\t",
		ResultsSep: " ",
		Offsets:    []float64{50},
		Sweep: Sweep{
			Min:  1,
			Max:  100,
			Step: 1,
		},
		Format:   FormatText,
		Subjects: true,
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.GoldenSep = Separator(cfg.GoldenSep)
	cfg.ResultsSep = Separator(cfg.ResultsSep)
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Separator maps separator names and escapes to the character they stand for.
func Separator(s string) string {
	switch s {
	case `\t`, "tab", "tsv":
		return "\t"
	case "space", "whitespace":
		return " "
	case "comma", "csv":
		return ","
	case "semicolon":
		return ";"
	default:
		return s
	}
}
