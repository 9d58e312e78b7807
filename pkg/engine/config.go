package engine

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uievolve/uievolve/pkg/errors"
)

// MutationWeights are the relative weights of the three mutation
// operators. They need not sum to anything in particular; only the
// ratios matter.
type MutationWeights struct {
	// Insert adds a random catalog action at a random position.
	Insert int `yaml:"insert" validate:"min=0"`
	// Delete removes the action at a random position. Rejected and
	// redrawn when it would empty the chromosome.
	Delete int `yaml:"delete" validate:"min=0"`
	// Replace swaps the target or value of an action for another valid
	// one from the catalog.
	Replace int `yaml:"replace" validate:"min=0"`
}

// Config contains the tunable parameters of the evolutionary search.
type Config struct {
	// Evolutionary parameters
	PopulationSize int     `yaml:"population_size" validate:"min=2"`
	Generations    int     `yaml:"generations" validate:"min=1"`
	CrossoverRate  float64 `yaml:"crossover_rate" validate:"min=0,max=1"`
	MutationRate   float64 `yaml:"mutation_rate" validate:"min=0,max=1"`
	ElitismCount   int     `yaml:"elitism_count" validate:"min=0"`
	TournamentSize int     `yaml:"tournament_size" validate:"min=1"`

	// Structural bounds
	MaxChromosomeLength int `yaml:"max_chromosome_length" validate:"min=1"`
	MaxInitialLength    int `yaml:"max_initial_length" validate:"min=1"`

	// Early stop: generations without best-ever improvement before the
	// run terminates. Zero disables the patience window.
	Patience int `yaml:"patience" validate:"min=0"`

	// Evaluation dispatch
	Concurrency      int           `yaml:"concurrency" validate:"min=1"`
	ExecutionTimeout time.Duration `yaml:"execution_timeout" validate:"min=1ms"`

	// LaunchRate throttles browser session starts per second across the
	// worker pool. Zero disables throttling.
	LaunchRate float64 `yaml:"launch_rate" validate:"min=0"`

	MutationWeights MutationWeights `yaml:"mutation_weights"`

	// Seed fixes the random source for reproducible runs. Zero seeds
	// from the clock.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		PopulationSize:      20,
		Generations:         10,
		CrossoverRate:       0.7,
		MutationRate:        0.3,
		ElitismCount:        1,
		TournamentSize:      3,
		MaxChromosomeLength: 30,
		MaxInitialLength:    5,
		Patience:            0,
		Concurrency:         3,
		ExecutionTimeout:    60 * time.Second,
		LaunchRate:          0,
		MutationWeights:     MutationWeights{Insert: 1, Delete: 1, Replace: 1},
	}
}

// Validate checks the configuration before a run starts. Violations are
// configuration errors; nothing is executed when any check fails.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, errors.InvalidConfig, "invalid engine configuration")
	}
	if c.ElitismCount >= c.PopulationSize {
		return errors.WithFields(
			errors.New(errors.InvalidConfig, "elitism count must be smaller than the population"),
			errors.Fields{"elitism_count": c.ElitismCount, "population_size": c.PopulationSize})
	}
	if c.TournamentSize > c.PopulationSize {
		return errors.WithFields(
			errors.New(errors.InvalidConfig, "tournament size cannot exceed the population"),
			errors.Fields{"tournament_size": c.TournamentSize, "population_size": c.PopulationSize})
	}
	if c.MaxInitialLength > c.MaxChromosomeLength {
		return errors.WithFields(
			errors.New(errors.InvalidConfig, "initial length bound exceeds the chromosome length bound"),
			errors.Fields{"max_initial_length": c.MaxInitialLength, "max_chromosome_length": c.MaxChromosomeLength})
	}
	w := c.MutationWeights
	if w.Insert+w.Delete+w.Replace == 0 {
		return errors.New(errors.InvalidConfig, "all mutation weights are zero")
	}
	return nil
}
