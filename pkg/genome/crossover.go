package genome

import (
	"math/rand"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
)

// CutPoint picks a crossover cut index in [0, Len]. Cut points are not
// uniform: when the chromosome retains a trace from its last execution,
// indices where the page state changed are preferred, so crossover tends
// to keep action subsequences that belong to one page state together.
// Without a trace (or when all its boundaries fall outside the current
// length) the cut falls back to uniform.
func (c *Chromosome) CutPoint(rng *rand.Rand) int {
	if c.lastTrace != nil {
		boundaries := c.lastTrace.Boundaries()
		valid := boundaries[:0:0]
		for _, b := range boundaries {
			if b <= len(c.actions) {
				valid = append(valid, b)
			}
		}
		if len(valid) > 0 {
			return valid[rng.Intn(len(valid))]
		}
	}
	return rng.Intn(len(c.actions) + 1)
}

// Splice forms a child from the prefix of a up to cutA and the suffix of
// b from cutB, truncated to maxLength. A child with no actions is
// rejected; callers resample the cuts or fall back to cloning a parent.
func Splice(a, b *Chromosome, cutA, cutB, maxLength int) (*Chromosome, error) {
	if cutA < 0 || cutA > a.Len() {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "cut point out of range for first parent"),
			errors.Fields{"cut": cutA, "length": a.Len()})
	}
	if cutB < 0 || cutB > b.Len() {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "cut point out of range for second parent"),
			errors.Fields{"cut": cutB, "length": b.Len()})
	}

	actions := make([]catalog.Action, 0, cutA+b.Len()-cutB)
	actions = append(actions, a.actions[:cutA]...)
	actions = append(actions, b.actions[cutB:]...)
	if maxLength > 0 && len(actions) > maxLength {
		actions = actions[:maxLength]
	}
	if len(actions) == 0 {
		return nil, errors.New(errors.InvalidInput, "splice produced an empty child")
	}

	child, err := New(actions...)
	if err != nil {
		return nil, err
	}
	child.parents = []string{a.id, b.id}
	return child, nil
}
