package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCutGraph_TextbookNetwork(t *testing.T) {
	t.Parallel()

	// v1..v4 -> 0..3
	g := newCutGraph(4, 32)
	g.addTermWeights(0, 16, 0)
	g.addTermWeights(1, 13, 0)
	g.addTermWeights(2, 0, 20)
	g.addTermWeights(3, 0, 4)
	g.addEdges(0, 2, 12, 0)
	g.addEdges(1, 0, 4, 0)
	g.addEdges(1, 3, 14, 0)
	g.addEdges(2, 1, 9, 0)
	g.addEdges(3, 2, 7, 0)

	assert.InDelta(t, 23.0, g.maxFlow(), 1e-9)
	assert.True(t, g.inSourceSegment(0))
	assert.True(t, g.inSourceSegment(1))
	assert.False(t, g.inSourceSegment(2))
	assert.True(t, g.inSourceSegment(3))
}

func TestCutGraph_TerminalCancellation(t *testing.T) {
	t.Parallel()

	g := newCutGraph(2, 16)
	g.addTermWeights(0, 5, 1)
	g.addTermWeights(1, 1, 5)
	g.addEdges(0, 1, 2, 2)

	assert.InDelta(t, 4.0, g.maxFlow(), 1e-9)
	assert.True(t, g.inSourceSegment(0))
	assert.False(t, g.inSourceSegment(1))
}

func TestCutGraph_NegativeTerminalWeights(t *testing.T) {
	t.Parallel()

	g := newCutGraph(2, 16)
	g.addTermWeights(0, -6.9, -6.5)
	g.addTermWeights(1, -1, -8)
	g.addEdges(0, 1, 0.1, 0.1)
	g.maxFlow()

	assert.False(t, g.inSourceSegment(0))
	assert.True(t, g.inSourceSegment(1))
}
