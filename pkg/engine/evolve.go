package engine

import (
	"context"
	"fmt"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/logging"
)

// spliceAttempts bounds how often a crossover resamples its cuts after
// producing an empty child before falling back to cloning a parent.
const spliceAttempts = 3

// pairingRedraws bounds how often breeding redraws the second parent in
// search of a distinct individual before accepting self-pairing.
const pairingRedraws = 3

// nextGeneration assembles elite carry-overs and bred offspring into the
// population for generation N+1.
func (e *Engine) nextGeneration(ctx context.Context, current *genome.Population) *genome.Population {
	logger := logging.GetLogger()

	elite := e.selectElite(current, e.config.ElitismCount)
	parents := e.selectParents(current, e.config.PopulationSize-len(elite))

	members := make([]*genome.Chromosome, 0, e.config.PopulationSize)
	members = append(members, elite...)

	for len(members) < e.config.PopulationSize {
		parent1 := parents[e.rng.Intn(len(parents))]
		parent2 := parents[e.rng.Intn(len(parents))]
		// A dominant individual can win every parent slot, so distinct
		// pairing gets a bounded number of redraws before self-pairing
		// is accepted.
		for attempt := 0; attempt < pairingRedraws && parent2.ID() == parent1.ID(); attempt++ {
			parent2 = parents[e.rng.Intn(len(parents))]
		}

		var child *genome.Chromosome
		if e.rng.Float64() < e.config.CrossoverRate {
			child = e.crossover(parent1, parent2)
		} else {
			child = parent1.Clone()
		}

		if e.rng.Float64() < e.config.MutationRate {
			e.mutate(child)
		}

		members = append(members, child)
	}

	logger.Debug(ctx, "Population evolved: elite=%d, offspring=%d",
		len(elite), len(members)-len(elite))

	return genome.NewPopulation(members, current.Generation+1)
}

// selectElite copies the top-count chromosomes by fitness unconditionally
// into the next generation. Elites keep their cached fitness, so they are
// not re-executed.
func (e *Engine) selectElite(population *genome.Population, count int) []*genome.Chromosome {
	if count <= 0 {
		return nil
	}
	population.SortByFitness()
	if count > population.Size() {
		count = population.Size()
	}
	elite := make([]*genome.Chromosome, 0, count)
	for _, member := range population.Members[:count] {
		elite = append(elite, member.Clone())
	}
	return elite
}

// selectParents fills count parent slots by tournament selection:
// repeatedly sample TournamentSize members uniformly without replacement
// and take the fittest.
func (e *Engine) selectParents(population *genome.Population, count int) []*genome.Chromosome {
	if count < 1 {
		count = 1
	}
	parents := make([]*genome.Chromosome, 0, count)
	for i := 0; i < count; i++ {
		parents = append(parents, e.tournament(population))
	}
	return parents
}

// tournament samples TournamentSize members without replacement and
// returns the arg-max-fitness individual of the sample.
func (e *Engine) tournament(population *genome.Population) *genome.Chromosome {
	size := e.config.TournamentSize
	if size > population.Size() {
		size = population.Size()
	}

	var best *genome.Chromosome
	var bestFitness float64
	for _, idx := range e.rng.Perm(population.Size())[:size] {
		candidate := population.Members[idx]
		f, ok := candidate.Fitness()
		if !ok {
			// Selection runs after evaluation; an unscored member here
			// ranks below every scored one.
			f = e.evaluator.Floor() - 1
		}
		if best == nil || f > bestFitness {
			best, bestFitness = candidate, f
		}
	}
	return best
}

// crossover splices a prefix of parent1 with a suffix of parent2, cutting
// preferentially at each parent's observed page-state boundaries. Empty
// children are resampled with fresh cuts; if the cuts keep producing
// nothing the child falls back to a clone of the first parent.
func (e *Engine) crossover(parent1, parent2 *genome.Chromosome) *genome.Chromosome {
	for attempt := 0; attempt < spliceAttempts; attempt++ {
		cut1 := parent1.CutPoint(e.rng)
		cut2 := parent2.CutPoint(e.rng)
		child, err := genome.Splice(parent1, parent2, cut1, cut2, e.config.MaxChromosomeLength)
		if err == nil {
			return child
		}
	}
	return parent1.Clone()
}

// mutate applies one mutation operator drawn by the configured relative
// weights. A delete drawn against a single-action chromosome is rejected
// and redrawn among the remaining operators.
func (e *Engine) mutate(c *genome.Chromosome) {
	w := e.config.MutationWeights
	insert, del, replace := w.Insert, w.Delete, w.Replace
	if c.Len() <= 1 {
		del = 0
	}
	if c.Len() >= e.config.MaxChromosomeLength {
		insert = 0
	}
	total := insert + del + replace
	if total == 0 {
		return
	}

	draw := e.rng.Intn(total)
	switch {
	case draw < insert:
		c.Insert(e.rng.Intn(c.Len()+1), e.catalog.Sample(e.rng)) //nolint:errcheck // index is in range by construction
	case draw < insert+del:
		c.Delete(e.rng.Intn(c.Len())) //nolint:errcheck // length > 1 checked above
	default:
		e.mutateReplace(c)
	}
}

// mutateReplace swaps one action for another valid one from the catalog.
// When the replacement shares the original's kind and takes a value, the
// value is perturbed as well so fill inputs drift over time.
func (e *Engine) mutateReplace(c *genome.Chromosome) {
	idx := e.rng.Intn(c.Len())
	original := c.Action(idx)

	replacement, ok := e.catalog.SampleKind(e.rng, original.Kind)
	if !ok {
		replacement = e.catalog.Sample(e.rng)
	}
	if replacement.Kind == catalog.Fill {
		replacement.Value = fmt.Sprintf("input_%d", e.rng.Intn(1000))
	}
	c.Replace(idx, replacement) //nolint:errcheck // index is in range by construction
}
