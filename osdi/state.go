package osdi

import "ngosdi/blob"

// StateAllocator 状态槽计数器, 在一次 setup 中按模型、实例顺序推进
type StateAllocator struct {
	Next int
}

// Allocate 为实例写入连续的状态槽编号, 返回起始编号
func (a *StateAllocator) Allocate(d *Descriptor, inst *blob.Blob) int {
	v := d.view(inst)
	start := a.Next
	n := d.NumStateSlots()
	for i := uint32(0); i < n; i++ {
		v.setStateIdx(i, uint32(start)+i)
	}
	a.Next += int(n)
	return start
}
