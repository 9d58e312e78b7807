package genome

import (
	"sort"
)

// Population is the set of chromosomes alive in one generation.
type Population struct {
	Members    []*Chromosome
	Generation int
}

// Stats are the aggregate fitness statistics of a population. Members
// without a valid cached fitness are ignored.
type Stats struct {
	Best      float64
	Mean      float64
	Worst     float64
	Evaluated int
}

// NewPopulation wraps the given members as generation gen.
func NewPopulation(members []*Chromosome, gen int) *Population {
	return &Population{Members: members, Generation: gen}
}

// Size returns the number of members.
func (p *Population) Size() int {
	return len(p.Members)
}

// Stats computes best, mean and worst fitness over evaluated members.
func (p *Population) Stats() Stats {
	var s Stats
	for _, m := range p.Members {
		f, ok := m.Fitness()
		if !ok {
			continue
		}
		if s.Evaluated == 0 {
			s.Best, s.Worst = f, f
		} else {
			if f > s.Best {
				s.Best = f
			}
			if f < s.Worst {
				s.Worst = f
			}
		}
		s.Mean += f
		s.Evaluated++
	}
	if s.Evaluated > 0 {
		s.Mean /= float64(s.Evaluated)
	}
	return s
}

// SortByFitness orders members by fitness, highest first. Members without
// a valid cached fitness sort last.
func (p *Population) SortByFitness() {
	sort.SliceStable(p.Members, func(i, j int) bool {
		fi, oki := p.Members[i].Fitness()
		fj, okj := p.Members[j].Fitness()
		if oki != okj {
			return oki
		}
		return fi > fj
	})
}

// Best returns the highest-fitness evaluated member, or nil when nothing
// has been evaluated yet.
func (p *Population) Best() *Chromosome {
	var best *Chromosome
	var bestFitness float64
	for _, m := range p.Members {
		f, ok := m.Fitness()
		if !ok {
			continue
		}
		if best == nil || f > bestFitness {
			best, bestFitness = m, f
		}
	}
	return best
}
