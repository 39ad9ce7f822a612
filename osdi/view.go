package osdi

import (
	"strconv"

	"ngosdi/blob"
)

// instanceView 按描述符访问实例内存
type instanceView struct {
	d *Descriptor
	b *blob.Blob
}

func (d *Descriptor) view(b *blob.Blob) instanceView {
	return instanceView{d: d, b: b}
}

func (v instanceView) mapping(i uint32) uint32        { return v.d.nodeMapping.Get(v.b, i) }
func (v instanceView) setMapping(i, n uint32)         { v.d.nodeMapping.Set(v.b, i, n) }
func (v instanceView) collapsed(i uint32) bool        { return v.d.collapsed.Get(v.b, i) }
func (v instanceView) clearCollapsed()                { v.d.collapsed.Clear(v.b) }
func (v instanceView) resist(i uint32) *float64       { return v.d.jacobian.Get(v.b, i) }
func (v instanceView) setResist(i uint32, p *float64) { v.d.jacobian.Set(v.b, i, p) }
func (v instanceView) setStateIdx(i, s uint32)        { v.d.stateIdx.Set(v.b, i, s) }

func (v instanceView) setReact(off uint32, p *float64) {
	blob.PtrField(off).Set(v.b, 0, p)
}

// NodeMapping 当前节点映射
func (d *Descriptor) NodeMapping(inst *blob.Blob) []uint32 {
	return d.nodeMapping.Slice(inst)
}

// StateIndex 当前状态槽编号
func (d *Descriptor) StateIndex(inst *blob.Blob) []uint32 {
	return d.stateIdx.Slice(inst)
}

// JacobianPtr 第i个雅可比项当前绑定的存储位置
func (d *Descriptor) JacobianPtr(inst *blob.Blob, i int) *float64 {
	return d.jacobian.Get(inst, uint32(i))
}

// ReactPtr 第i个雅可比项的复数存储位置
func (d *Descriptor) ReactPtr(inst *blob.Blob, i int) *float64 {
	e := d.JacobianEntries[i]
	if !e.HasReact() {
		return nil
	}
	return blob.PtrField(e.ReactPtrOff).Get(inst, 0)
}

func itoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
