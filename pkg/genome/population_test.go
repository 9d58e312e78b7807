package genome_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uievolve/uievolve/internal/testutil"
	"github.com/uievolve/uievolve/pkg/genome"
)

func scored(t *testing.T, fitness float64, ids ...string) *genome.Chromosome {
	t.Helper()
	c, err := genome.New(clickAction(ids[0]))
	require.NoError(t, err)
	for _, id := range ids[1:] {
		c.Append(clickAction(id))
	}
	c.SetResult(testutil.CompletedTrace(1), fitness)
	return c
}

func TestPopulationStats(t *testing.T) {
	unscored, err := genome.New(clickAction("u"))
	require.NoError(t, err)

	p := genome.NewPopulation([]*genome.Chromosome{
		scored(t, 4.0, "a"),
		scored(t, 1.0, "b"),
		scored(t, 7.0, "c"),
		unscored,
	}, 0)

	stats := p.Stats()
	assert.Equal(t, 7.0, stats.Best)
	assert.Equal(t, 1.0, stats.Worst)
	assert.Equal(t, 4.0, stats.Mean)
	assert.Equal(t, 3, stats.Evaluated)
}

func TestSortByFitnessUnscoredLast(t *testing.T) {
	unscored, err := genome.New(clickAction("u"))
	require.NoError(t, err)

	p := genome.NewPopulation([]*genome.Chromosome{
		unscored,
		scored(t, 1.0, "low"),
		scored(t, 9.0, "high"),
	}, 0)
	p.SortByFitness()

	first, ok := p.Members[0].Fitness()
	require.True(t, ok)
	assert.Equal(t, 9.0, first)
	_, ok = p.Members[2].Fitness()
	assert.False(t, ok)
}

func TestBest(t *testing.T) {
	unscored, err := genome.New(clickAction("u"))
	require.NoError(t, err)

	empty := genome.NewPopulation([]*genome.Chromosome{unscored}, 0)
	assert.Nil(t, empty.Best())

	best := scored(t, 5.0, "winner")
	p := genome.NewPopulation([]*genome.Chromosome{scored(t, 2.0, "x"), best, unscored}, 1)
	assert.Same(t, best, p.Best())
}
