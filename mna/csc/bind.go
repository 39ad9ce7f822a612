package csc

import (
	"sort"
	"unsafe"
)

// BindKey 原生矩阵元素的身份键
type BindKey uintptr

// KeyOf 由元素实部地址生成键
func KeyOf(p *float64) BindKey {
	return BindKey(uintptr(unsafe.Pointer(p)))
}

// BindElement 原生元素到压缩列存储位置的绑定
type BindElement struct {
	Key        BindKey  // 原生元素键
	COO        *float64 // 原生元素实部
	CSC        *float64 // 实数存储位置
	CSCComplex *float64 // 复数存储位置(实部, 虚部紧随其后)
}

// BindTable 按键排序的绑定表
type BindTable struct {
	elems []BindElement
}

// NewBindTable 复制并排序绑定项
func NewBindTable(elems []BindElement) *BindTable {
	t := &BindTable{elems: make([]BindElement, len(elems))}
	copy(t.elems, elems)
	sort.Slice(t.elems, func(i, j int) bool { return t.elems[i].Key < t.elems[j].Key })
	return t
}

// Len 绑定项数量
func (t *BindTable) Len() int { return len(t.elems) }

// Lookup 二分查找完全匹配的绑定项
func (t *BindTable) Lookup(key BindKey) (*BindElement, bool) {
	i := sort.Search(len(t.elems), func(i int) bool { return t.elems[i].Key >= key })
	if i < len(t.elems) && t.elems[i].Key == key {
		return &t.elems[i], true
	}
	return nil, false
}

// Elements 有序绑定项
func (t *BindTable) Elements() []BindElement { return t.elems }

// RemoveAt 删除第i项
func (t *BindTable) RemoveAt(i int) BindElement {
	e := t.elems[i]
	t.elems = append(t.elems[:i], t.elems[i+1:]...)
	return e
}

// Imag 复数槽位的虚部, 紧跟在实部之后
func Imag(p *float64) *float64 {
	return (*float64)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p)))
}
