// Package config loads and validates run configuration. Configuration is
// layered: built-in defaults, then an optional YAML file, then environment
// variables with the UIEVOLVE_ prefix.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/uievolve/uievolve/pkg/engine"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/fitness"
	"github.com/uievolve/uievolve/pkg/runner"
)

// EnvPrefix namespaces the environment variables the loader reads.
const EnvPrefix = "UIEVOLVE_"

// LoggingConfig controls log output for a run.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error fatal"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	ReplayProgram bool   `yaml:"replay_program"`
	Archive       bool   `yaml:"archive"`
}

// Config is the complete configuration for one evolution run.
type Config struct {
	TargetURL string        `yaml:"target_url" validate:"required,url"`
	Engine    engine.Config `yaml:"engine"`
	Fitness   FitnessConfig `yaml:"fitness"`
	Browser   runner.Config `yaml:"browser"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// FitnessConfig groups the scoring weights with the crash floor.
type FitnessConfig struct {
	Weights fitness.Weights `yaml:"weights"`
	Floor   float64         `yaml:"floor"`
}

// Default returns the configuration a run starts from before any file or
// environment overrides. TargetURL has no default; it must be provided.
func Default() *Config {
	return &Config{
		Engine: *engine.DefaultConfig(),
		Fitness: FitnessConfig{
			Weights: fitness.DefaultWeights(),
			Floor:   0,
		},
		Browser: *runner.DefaultConfig(""),
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Dir: "uievolve-out", ReplayProgram: true, Archive: true},
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// YAML file at path (if path is non-empty), overlaid with environment
// variables. Load does not validate the result; callers apply their own
// overrides (command-line flags) first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.InvalidConfig, "reading config file"),
				errors.Fields{"path": path})
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.InvalidConfig, "parsing config file"),
				errors.Fields{"path": path})
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	// The browser always starts at the evolution target.
	cfg.Browser.StartURL = cfg.TargetURL

	return cfg, nil
}

// Validate checks struct tags plus the engine's cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.InvalidConfig, "invalid configuration")
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Fitness.Weights.URL < 0 || c.Fitness.Weights.State < 0 || c.Fitness.Weights.Error < 0 {
		return errors.New(errors.InvalidConfig, "reward weights must be non-negative")
	}
	if c.Fitness.Weights.Length < 0 {
		return errors.New(errors.InvalidConfig, "length penalty must be non-negative")
	}
	return nil
}

// applyEnvironment overlays UIEVOLVE_* variables onto cfg. Only the knobs
// that make sense to flip per invocation are exposed this way.
func applyEnvironment(cfg *Config) error {
	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, EnvPrefix) {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(entry, EnvPrefix), "=")
		if !ok {
			continue
		}
		if err := setEnvValue(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

func setEnvValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "TARGET_URL":
		cfg.TargetURL = value
	case "POPULATION_SIZE":
		cfg.Engine.PopulationSize, err = strconv.Atoi(value)
	case "GENERATIONS":
		cfg.Engine.Generations, err = strconv.Atoi(value)
	case "SEED":
		cfg.Engine.Seed, err = strconv.ParseInt(value, 10, 64)
	case "CONCURRENCY":
		cfg.Engine.Concurrency, err = strconv.Atoi(value)
	case "EXECUTION_TIMEOUT":
		cfg.Engine.ExecutionTimeout, err = time.ParseDuration(value)
	case "HEADLESS":
		cfg.Browser.Headless, err = strconv.ParseBool(value)
	case "CHROME_PATH":
		cfg.Browser.ChromePath = value
	case "NO_SANDBOX":
		cfg.Browser.NoSandbox, err = strconv.ParseBool(value)
	case "LOG_LEVEL":
		cfg.Logging.Level = value
	case "OUTPUT_DIR":
		cfg.Output.Dir = value
	default:
		// Unknown keys are ignored so unrelated UIEVOLVE_ variables do
		// not break a run.
		return nil
	}
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.InvalidConfig, "invalid environment override"),
			errors.Fields{"key": EnvPrefix + key, "value": value})
	}
	return nil
}
