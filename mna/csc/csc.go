// Package csc 压缩列格式的矩阵表示及其与原生链表矩阵的绑定表.
//
// 表示在原生矩阵结构定型后一次性构建, 不负责分解.
package csc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicate = errors.New("duplicate matrix entry")
	ErrRange     = errors.New("matrix entry out of range")
)

// Entry 原生矩阵中的一个元素, 行列从1开始
type Entry struct {
	Row, Col int
	Ptr      *float64
}

// Matrix 压缩列矩阵
type Matrix struct {
	n       int
	colPtr  []int     // 列指针数组
	rowIdx  []int     // 行索引数组(从0开始)
	values  []float64 // 实数值
	complex []float64 // 复数值, 实部虚部交错
	bind    *BindTable
}

// Build 由原生元素构建压缩列矩阵和绑定表
func Build(n int, entries []Entry) (*Matrix, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	for _, e := range sorted {
		if e.Row < 1 || e.Row > n || e.Col < 1 || e.Col > n {
			return nil, fmt.Errorf("(%d,%d) in %dx%d: %w", e.Row, e.Col, n, n, ErrRange)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Col != sorted[j].Col {
			return sorted[i].Col < sorted[j].Col
		}
		return sorted[i].Row < sorted[j].Row
	})
	m := &Matrix{
		n:       n,
		colPtr:  make([]int, n+1),
		rowIdx:  make([]int, len(sorted)),
		values:  make([]float64, len(sorted)),
		complex: make([]float64, 2*len(sorted)),
	}
	binds := make([]BindElement, len(sorted))
	for k, e := range sorted {
		if k > 0 && sorted[k-1].Row == e.Row && sorted[k-1].Col == e.Col {
			return nil, fmt.Errorf("(%d,%d): %w", e.Row, e.Col, ErrDuplicate)
		}
		m.rowIdx[k] = e.Row - 1
		m.colPtr[e.Col]++
		binds[k] = BindElement{
			Key:        KeyOf(e.Ptr),
			COO:        e.Ptr,
			CSC:        &m.values[k],
			CSCComplex: &m.complex[2*k],
		}
	}
	for j := 1; j <= n; j++ {
		m.colPtr[j] += m.colPtr[j-1]
	}
	m.bind = NewBindTable(binds)
	return m, nil
}

// Size 阶数
func (m *Matrix) Size() int { return m.n }

// NonZeroCount 存储的元素数量
func (m *Matrix) NonZeroCount() int { return len(m.values) }

// Bind 绑定表
func (m *Matrix) Bind() *BindTable { return m.bind }

// ColPtr 列指针
func (m *Matrix) ColPtr() []int { return m.colPtr }

// RowIdx 行索引
func (m *Matrix) RowIdx() []int { return m.rowIdx }

// find 查找(row,col)的存储下标, 行列从1开始
func (m *Matrix) find(row, col int) int {
	if row < 1 || row > m.n || col < 1 || col > m.n {
		return -1
	}
	start, end := m.colPtr[col-1], m.colPtr[col]
	pos := sort.Search(end-start, func(i int) bool {
		return m.rowIdx[start+i] >= row-1
	}) + start
	if pos < end && m.rowIdx[pos] == row-1 {
		return pos
	}
	return -1
}

// Get 实数值
func (m *Matrix) Get(row, col int) float64 {
	if k := m.find(row, col); k >= 0 {
		return m.values[k]
	}
	return 0
}

// GetComplex 复数值
func (m *Matrix) GetComplex(row, col int) complex128 {
	if k := m.find(row, col); k >= 0 {
		return complex(m.complex[2*k], m.complex[2*k+1])
	}
	return 0
}

// Clear 清零全部值
func (m *Matrix) Clear() {
	clear(m.values)
	clear(m.complex)
}

// String 字符串表示
func (m *Matrix) String() string {
	var b strings.Builder
	for i := 1; i <= m.n; i++ {
		for j := 1; j <= m.n; j++ {
			fmt.Fprintf(&b, "%8.4f ", m.Get(i, j))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
