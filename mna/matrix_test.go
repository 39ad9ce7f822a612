package mna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngosdi/mna/csc"
	"ngosdi/types"
)

func TestMakeElement(t *testing.T) {
	m := New(2)
	a, err := m.MakeElement(1, 2)
	require.NoError(t, err)
	b, err := m.MakeElement(1, 2)
	require.NoError(t, err)
	assert.Same(t, a, b, "同一位置应返回同一元素")

	g, err := m.MakeElement(types.Gnd, 1)
	require.NoError(t, err)
	assert.Same(t, m.Trash(), g)
	assert.Equal(t, 1, m.NonZeroCount())

	// 超出阶数时自动扩展
	_, err = m.MakeElement(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Size())

	_, err = m.MakeElement(-1, 1)
	assert.ErrorIs(t, err, ErrBadIndex)
}

func TestColumnOrder(t *testing.T) {
	m := New(3)
	for _, r := range []types.NodeID{3, 1, 2} {
		_, err := m.MakeElement(r, 1)
		require.NoError(t, err)
	}
	rows := []int{}
	for _, e := range m.Column(1) {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{1, 2, 3}, rows)
	assert.Equal(t, 3, m.Elements()[0].Row, "创建顺序保持不变")
}

func TestMaxElements(t *testing.T) {
	m := New(2)
	m.MaxElements = 1
	_, err := m.MakeElement(1, 1)
	require.NoError(t, err)
	_, err = m.MakeElement(2, 2)
	assert.ErrorIs(t, err, ErrNoMem)
	// 已存在的元素不受限制
	_, err = m.MakeElement(1, 1)
	assert.NoError(t, err)
}

func TestConstMult(t *testing.T) {
	m := New(2)
	e, _ := m.MakeElement(1, 1)
	f, _ := m.MakeElement(2, 1)
	e.Real, e.Imag = 2, 3
	f.Real = -1
	m.ConstMult(0.5)
	assert.Equal(t, 1.0, e.Real)
	assert.Equal(t, 1.5, e.Imag)
	assert.Equal(t, -0.5, m.Get(2, 1))
}

func TestFinalize(t *testing.T) {
	m := New(2)
	e11, _ := m.MakeElement(1, 1)
	e21, _ := m.MakeElement(2, 1)
	e22, _ := m.MakeElement(2, 2)
	c, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3, c.NonZeroCount())

	for _, e := range []*Element{e11, e21, e22} {
		be, ok := c.Bind().Lookup(csc.KeyOf(&e.Real))
		require.True(t, ok)
		*be.CSC = float64(e.Row*10 + e.Col)
	}
	assert.Equal(t, 21.0, c.Get(2, 1))
	assert.Equal(t, 0.0, c.Get(1, 2))
}
