// Package genome implements the variable-length chromosome representation
// and the structural operators the engine evolves it with: cut, splice,
// clone and the point mutations. Chromosomes are "messy": their length is
// not fixed and changes under crossover and mutation, but never drops
// below one action.
package genome

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/trace"
)

// Chromosome is an ordered, variable-length sequence of UI actions
// representing one candidate test. It carries a unique identity, the IDs
// of the parents it was bred from, a cached fitness that is valid only
// until the action sequence changes, and the trace from its most recent
// execution. The retained trace is what makes context-aware crossover
// possible: cut points are drawn from its page-state boundaries.
type Chromosome struct {
	id      string
	actions []catalog.Action
	parents []string

	fitness    float64
	hasFitness bool
	lastTrace  *trace.Trace
}

// New creates a chromosome from the given actions. At least one action is
// required.
func New(actions ...catalog.Action) (*Chromosome, error) {
	if len(actions) == 0 {
		return nil, errors.New(errors.InvalidInput, "chromosome requires at least one action")
	}
	owned := make([]catalog.Action, len(actions))
	copy(owned, actions)
	return &Chromosome{id: uuid.NewString(), actions: owned}, nil
}

// Random samples a chromosome of random length in [1, maxLength] from the
// catalog.
func Random(cat *catalog.Catalog, rng *rand.Rand, maxLength int) *Chromosome {
	if maxLength < 1 {
		maxLength = 1
	}
	length := rng.Intn(maxLength) + 1
	actions := make([]catalog.Action, length)
	for i := range actions {
		actions[i] = cat.Sample(rng)
	}
	c, _ := New(actions...)
	return c
}

// ID returns the chromosome's unique identity.
func (c *Chromosome) ID() string {
	return c.id
}

// Len returns the number of actions.
func (c *Chromosome) Len() int {
	return len(c.actions)
}

// Actions returns a copy of the action sequence.
func (c *Chromosome) Actions() []catalog.Action {
	out := make([]catalog.Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Action returns the action at index i.
func (c *Chromosome) Action(i int) catalog.Action {
	return c.actions[i]
}

// ParentIDs returns the lineage of the chromosome, empty for sampled
// individuals.
func (c *Chromosome) ParentIDs() []string {
	out := make([]string, len(c.parents))
	copy(out, c.parents)
	return out
}

// Append adds an action at the end of the sequence.
func (c *Chromosome) Append(a catalog.Action) {
	c.actions = append(c.actions, a)
	c.invalidate()
}

// Insert places an action at index i, valid in [0, Len].
func (c *Chromosome) Insert(i int, a catalog.Action) error {
	if i < 0 || i > len(c.actions) {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "insert index out of range"),
			errors.Fields{"index": i, "length": len(c.actions)})
	}
	c.actions = append(c.actions, catalog.Action{})
	copy(c.actions[i+1:], c.actions[i:])
	c.actions[i] = a
	c.invalidate()
	return nil
}

// Delete removes the action at index i. Deleting the last remaining
// action is rejected: a chromosome's length never drops below one.
func (c *Chromosome) Delete(i int) error {
	if i < 0 || i >= len(c.actions) {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "delete index out of range"),
			errors.Fields{"index": i, "length": len(c.actions)})
	}
	if len(c.actions) == 1 {
		return errors.New(errors.InvalidInput, "cannot delete the only action of a chromosome")
	}
	c.actions = append(c.actions[:i], c.actions[i+1:]...)
	c.invalidate()
	return nil
}

// Replace swaps the action at index i for another.
func (c *Chromosome) Replace(i int, a catalog.Action) error {
	if i < 0 || i >= len(c.actions) {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "replace index out of range"),
			errors.Fields{"index": i, "length": len(c.actions)})
	}
	c.actions[i] = a
	c.invalidate()
	return nil
}

// invalidate drops the cached fitness and the retained trace. Any
// structural change makes both stale.
func (c *Chromosome) invalidate() {
	c.hasFitness = false
	c.fitness = 0
	c.lastTrace = nil
}

// SetResult stores a fresh execution trace and the fitness derived from
// it.
func (c *Chromosome) SetResult(tr *trace.Trace, fitness float64) {
	c.lastTrace = tr
	c.fitness = fitness
	c.hasFitness = true
}

// Fitness returns the cached fitness and whether it is valid for the
// current action sequence.
func (c *Chromosome) Fitness() (float64, bool) {
	return c.fitness, c.hasFitness
}

// Trace returns the trace from the chromosome's most recent execution, or
// nil when the sequence changed since it last ran.
func (c *Chromosome) Trace() *trace.Trace {
	return c.lastTrace
}

// Clone produces a structurally identical chromosome with a new identity
// and this chromosome as its parent. The cached fitness and trace carry
// over: the content is unchanged, so they are still fresh.
func (c *Chromosome) Clone() *Chromosome {
	actions := make([]catalog.Action, len(c.actions))
	copy(actions, c.actions)
	return &Chromosome{
		id:         uuid.NewString(),
		actions:    actions,
		parents:    []string{c.id},
		fitness:    c.fitness,
		hasFitness: c.hasFitness,
		lastTrace:  c.lastTrace,
	}
}

// Fingerprint digests the action sequence for structural deduplication.
// Two chromosomes with identical actions share a fingerprint regardless
// of identity or lineage.
func (c *Chromosome) Fingerprint() string {
	var b strings.Builder
	for _, a := range c.actions {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Equal reports structural equality of two chromosomes.
func (c *Chromosome) Equal(other *Chromosome) bool {
	if other == nil || len(c.actions) != len(other.actions) {
		return false
	}
	for i := range c.actions {
		if !c.actions[i].Equal(other.actions[i]) {
			return false
		}
	}
	return true
}

// String renders the chromosome for logs and run summaries.
func (c *Chromosome) String() string {
	var b strings.Builder
	b.WriteString("Chromosome(")
	if c.hasFitness {
		fmt.Fprintf(&b, "fitness=%.3f", c.fitness)
	} else {
		b.WriteString("fitness=?")
	}
	fmt.Fprintf(&b, ", length=%d, actions=[", len(c.actions))
	for i, a := range c.actions {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(a.String())
	}
	b.WriteString("])")
	return b.String()
}
