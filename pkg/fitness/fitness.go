// Package fitness scores execution traces. The evaluator is a pure
// function: the same trace and chromosome length always produce the same
// score, with no dependence on engine state or evaluation order.
package fitness

import (
	"github.com/uievolve/uievolve/pkg/trace"
)

// Weights control how much each trace property contributes to the score.
type Weights struct {
	// URL rewards each distinct URL the execution visited.
	URL float64 `yaml:"url" validate:"min=0"`
	// State rewards each distinct page-state signature observed.
	State float64 `yaml:"state" validate:"min=0"`
	// Error rewards each distinct error signature triggered. Sequences
	// that surface application errors are the most valuable tests.
	Error float64 `yaml:"error" validate:"min=0"`
	// Length penalizes each action in the chromosome, pressuring the
	// search toward short sequences.
	Length float64 `yaml:"length" validate:"min=0"`
}

// DefaultWeights mirror the exploration/bug-bounty balance the search was
// tuned with: errors dominate, state novelty beats URL novelty, and
// length drag is mild.
func DefaultWeights() Weights {
	return Weights{
		URL:    1.0,
		State:  1.5,
		Error:  5.0,
		Length: 0.2,
	}
}

// Evaluator maps an execution trace to a scalar score.
type Evaluator struct {
	weights Weights
	floor   float64
}

// NewEvaluator builds an evaluator with the given weights and the floor
// score assigned to empty or immediately-failed executions.
func NewEvaluator(weights Weights, floor float64) *Evaluator {
	return &Evaluator{weights: weights, floor: floor}
}

// Floor returns the configured crash floor.
func (e *Evaluator) Floor() float64 {
	return e.floor
}

// Score computes the fitness of a chromosome of the given length from its
// execution trace:
//
//	score = wURL·|distinct URLs| + wState·|distinct signatures|
//	      + wError·|distinct errors| − wLength·length
//
// Consecutive repeats of a URL or state count once. The floor applies
// only to an empty trace or one that crashed or timed out before any
// action took effect; every other trace scores on its merits, even below
// the floor, so poor-but-distinct partial traces stay ordered and a
// least-bad individual always exists.
func (e *Evaluator) Score(t *trace.Trace, chromosomeLength int) float64 {
	if t == nil || t.Empty() {
		return e.floor
	}
	if t.Steps() == 0 && t.Status != trace.StatusCompleted {
		return e.floor
	}

	return e.weights.URL*float64(t.DistinctURLs()) +
		e.weights.State*float64(t.DistinctSignatures()) +
		e.weights.Error*float64(t.DistinctErrors()) -
		e.weights.Length*float64(chromosomeLength)
}
