// Package mna 原生稀疏矩阵: 按行列双向链接的元素表.
//
// 元素一旦分配地址不变, 器件在装配时保存其实部地址,
// 虚部紧随其后用于交流分析.
package mna

import (
	"errors"
	"fmt"
	"strings"

	"ngosdi/mna/csc"
	"ngosdi/types"
)

var (
	ErrNoMem    = errors.New("matrix element allocation failed")
	ErrBadIndex = errors.New("negative matrix index")
)

// Element 矩阵元素, 虚部紧跟实部
type Element struct {
	Real      float64
	Imag      float64
	Row, Col  int
	NextInRow *Element
	NextInCol *Element
}

// Matrix 原生链表矩阵, 行列从1开始, 0为接地
type Matrix struct {
	MaxElements int // 元素上限, 0不限

	size       int
	firstInRow []*Element
	firstInCol []*Element
	elements   []*Element // 按创建顺序
	trash      Element    // 接地行列的写入位置
	complex    bool
}

// New 创建矩阵
func New(size int) *Matrix {
	m := &Matrix{}
	m.grow(size)
	return m
}

func (m *Matrix) grow(size int) {
	if size <= m.size {
		return
	}
	row := make([]*Element, size+1)
	col := make([]*Element, size+1)
	copy(row, m.firstInRow)
	copy(col, m.firstInCol)
	m.firstInRow, m.firstInCol, m.size = row, col, size
}

// Size 阶数
func (m *Matrix) Size() int { return m.size }

// NonZeroCount 已分配元素数
func (m *Matrix) NonZeroCount() int { return len(m.elements) }

// Elements 按创建顺序列出元素
func (m *Matrix) Elements() []*Element { return m.elements }

// Trash 接地行列共享的元素
func (m *Matrix) Trash() *Element { return &m.trash }

// SetComplex 切换复数模式
func (m *Matrix) SetComplex(c bool) { m.complex = c }

// IsComplex 是否复数模式
func (m *Matrix) IsComplex() bool { return m.complex }

// Find 查找已存在的元素
func (m *Matrix) Find(row, col types.NodeID) *Element {
	r, c := int(row), int(col)
	if r < 1 || c < 1 || r > m.size || c > m.size {
		return nil
	}
	for e := m.firstInCol[c]; e != nil && e.Row <= r; e = e.NextInCol {
		if e.Row == r {
			return e
		}
	}
	return nil
}

// MakeElement 查找或创建(row,col)元素, 接地行列返回垃圾元素
func (m *Matrix) MakeElement(row, col types.NodeID) (*Element, error) {
	if row < 0 || col < 0 {
		return nil, fmt.Errorf("(%d,%d): %w", row, col, ErrBadIndex)
	}
	if row == types.Gnd || col == types.Gnd {
		return &m.trash, nil
	}
	if e := m.Find(row, col); e != nil {
		return e, nil
	}
	if m.MaxElements > 0 && len(m.elements) >= m.MaxElements {
		return nil, ErrNoMem
	}
	r, c := int(row), int(col)
	m.grow(max(r, c))
	e := &Element{Row: r, Col: c}

	// 列链表按行有序
	pc := &m.firstInCol[c]
	for *pc != nil && (*pc).Row < r {
		pc = &(*pc).NextInCol
	}
	e.NextInCol, *pc = *pc, e

	// 行链表按列有序
	pr := &m.firstInRow[r]
	for *pr != nil && (*pr).Col < c {
		pr = &(*pr).NextInRow
	}
	e.NextInRow, *pr = *pr, e

	m.elements = append(m.elements, e)
	return e, nil
}

// Clear 清零全部元素
func (m *Matrix) Clear() {
	for _, e := range m.elements {
		e.Real, e.Imag = 0, 0
	}
	m.trash = Element{}
}

// ConstMult 全部元素乘以常数
func (m *Matrix) ConstMult(c float64) {
	for col := 1; col <= m.size; col++ {
		for e := m.firstInCol[col]; e != nil; e = e.NextInCol {
			e.Real *= c
			e.Imag *= c
		}
	}
}

// Get 实数值
func (m *Matrix) Get(row, col types.NodeID) float64 {
	if e := m.Find(row, col); e != nil {
		return e.Real
	}
	return 0
}

// Column 某列的元素
func (m *Matrix) Column(col int) []*Element {
	if col < 1 || col > m.size {
		return nil
	}
	var out []*Element
	for e := m.firstInCol[col]; e != nil; e = e.NextInCol {
		out = append(out, e)
	}
	return out
}

// Finalize 结构定型后构建压缩列表示
func (m *Matrix) Finalize() (*csc.Matrix, error) {
	entries := make([]csc.Entry, len(m.elements))
	for i, e := range m.elements {
		entries[i] = csc.Entry{Row: e.Row, Col: e.Col, Ptr: &e.Real}
	}
	return csc.Build(m.size, entries)
}

// String 字符串表示
func (m *Matrix) String() string {
	var b strings.Builder
	for i := 1; i <= m.size; i++ {
		for j := 1; j <= m.size; j++ {
			fmt.Fprintf(&b, "%8.4f ", m.Get(types.NodeID(i), types.NodeID(j)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
