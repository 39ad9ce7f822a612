package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngosdi/types"
)

func TestNodesExternalAndInternal(t *testing.T) {
	g := NewNodes()
	a, err := g.External("a")
	require.NoError(t, err)
	b, _ := g.External("b")
	again, _ := g.External("a")
	assert.Equal(t, types.NodeID(1), a)
	assert.Equal(t, types.NodeID(2), b)
	assert.Equal(t, a, again)
	gnd, _ := g.External("gnd")
	assert.Equal(t, types.Gnd, gnd)

	g.MarkExternal()
	assert.Equal(t, types.NodeID(2), g.LastExternal())

	v, err := g.MakeVoltage("d1", "ai")
	require.NoError(t, err)
	f, err := g.MakeFlow("l1", "br")
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(3), v)
	assert.Equal(t, types.NodeID(4), f)
	n, ok := g.Node(f)
	require.True(t, ok)
	assert.Equal(t, NodeCurrent, n.Type)
	assert.Equal(t, "d1#ai", g.Name(v))
}

func TestNodesDelete(t *testing.T) {
	g := NewNodes()
	_, _ = g.External("a")
	g.MarkExternal()
	v, _ := g.MakeVoltage("d1", "ai")
	w, _ := g.MakeVoltage("d2", "ai")

	assert.ErrorIs(t, g.Delete(1), ErrExternalNode)
	assert.ErrorIs(t, g.Delete(types.Gnd), ErrExternalNode)

	require.NoError(t, g.Delete(v))
	require.NoError(t, g.Delete(v))
	assert.Equal(t, 4, g.Len())
	_, ok := g.Node(v)
	assert.False(t, ok)

	require.NoError(t, g.Delete(w))
	// 尾部全部删除后编号回收
	assert.Equal(t, 2, g.Len())
	require.NoError(t, g.Delete(w))
	again, _ := g.MakeVoltage("d1", "ai")
	assert.Equal(t, v, again)
}
