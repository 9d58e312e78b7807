package genome_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/trace"
)

func TestSpliceLengthBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		a, err := genome.New(
			clickAction("a1"), clickAction("a2"), clickAction("a3"))
		require.NoError(t, err)
		b, err := genome.New(
			clickAction("b1"), clickAction("b2"), clickAction("b3"), clickAction("b4"))
		require.NoError(t, err)

		cutA := a.CutPoint(rng)
		cutB := b.CutPoint(rng)
		child, err := genome.Splice(a, b, cutA, cutB, 0)
		if err != nil {
			// The only failure without a max length is the empty child.
			assert.Equal(t, 0, cutA)
			assert.Equal(t, b.Len(), cutB)
			continue
		}
		assert.GreaterOrEqual(t, child.Len(), 1)
		assert.LessOrEqual(t, child.Len(), a.Len()+b.Len())
	}
}

func TestSpliceComposesPrefixAndSuffix(t *testing.T) {
	a, err := genome.New(clickAction("a1"), clickAction("a2"), clickAction("a3"))
	require.NoError(t, err)
	b, err := genome.New(clickAction("b1"), clickAction("b2"))
	require.NoError(t, err)

	child, err := genome.Splice(a, b, 2, 1, 0)
	require.NoError(t, err)

	ids := make([]string, 0, child.Len())
	for _, action := range child.Actions() {
		ids = append(ids, action.Target.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "b2"}, ids)
	assert.Equal(t, []string{a.ID(), b.ID()}, child.ParentIDs())

	_, ok := child.Fitness()
	assert.False(t, ok)
}

func TestSpliceTruncatesToMaxLength(t *testing.T) {
	a, err := genome.New(clickAction("a1"), clickAction("a2"), clickAction("a3"))
	require.NoError(t, err)
	b, err := genome.New(clickAction("b1"), clickAction("b2"), clickAction("b3"))
	require.NoError(t, err)

	child, err := genome.Splice(a, b, 3, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, child.Len())
}

func TestSpliceRejectsOutOfRangeCut(t *testing.T) {
	a, err := genome.New(clickAction("a1"))
	require.NoError(t, err)
	b, err := genome.New(clickAction("b1"))
	require.NoError(t, err)

	_, err = genome.Splice(a, b, 2, 0, 0)
	assert.Error(t, err)
	_, err = genome.Splice(a, b, 0, -1, 0)
	assert.Error(t, err)
}

func TestCutPointPrefersTraceBoundaries(t *testing.T) {
	c, err := genome.New(
		clickAction("a"), clickAction("b"), clickAction("c"), clickAction("d"))
	require.NoError(t, err)

	// Five visits, with the only state changes after actions 1 and 2.
	tr := trace.New()
	tr.RecordVisit("u", "s1")
	tr.RecordVisit("u", "s1")
	tr.RecordVisit("u", "s2")
	tr.RecordVisit("u", "s3")
	tr.RecordVisit("u", "s3")
	c.SetResult(tr, 1.0)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		cut := c.CutPoint(rng)
		assert.Contains(t, []int{2, 3}, cut)
	}
}

func TestCutPointUniformWithoutTrace(t *testing.T) {
	c, err := genome.New(clickAction("a"), clickAction("b"))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		cut := c.CutPoint(rng)
		require.GreaterOrEqual(t, cut, 0)
		require.LessOrEqual(t, cut, c.Len())
		seen[cut] = true
	}
	assert.Len(t, seen, 3)
}

func TestCutPointIgnoresBoundariesBeyondLength(t *testing.T) {
	// Trace from a longer ancestor: its only boundary sits past the
	// current length, so the cut must fall back to uniform range.
	c, err := genome.New(clickAction("a"))
	require.NoError(t, err)

	tr := trace.New()
	tr.RecordVisit("u", "s1")
	tr.RecordVisit("u", "s1")
	tr.RecordVisit("u", "s1")
	tr.RecordVisit("u", "s2")
	c.SetResult(tr, 1.0)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		cut := c.CutPoint(rng)
		assert.LessOrEqual(t, cut, 1)
	}
}
