package osdi

import (
	"errors"

	"ngosdi/blob"
	"ngosdi/mna"
	"ngosdi/types"
)

// ElementMatrix 原生矩阵的元素服务
type ElementMatrix interface {
	MakeElement(row, col types.NodeID) (*mna.Element, error)
}

// BindNative 为每个雅可比项取得原生矩阵元素.
// 实部地址写入电阻指针数组, 有电抗部分时虚部地址写入对应字段.
func BindNative(m ElementMatrix, d *Descriptor, inst *blob.Blob) error {
	v := d.view(inst)
	for i, entry := range d.JacobianEntries {
		row := types.NodeID(v.mapping(entry.Equation))
		col := types.NodeID(v.mapping(entry.Unknown))
		e, err := m.MakeElement(row, col)
		switch {
		case errors.Is(err, mna.ErrNoMem) || (err == nil && e == nil):
			return NewError(PhaseBind, KindNoMem).Detail("element (%d,%d)", row, col).Cause(err).Build()
		case err != nil:
			return NewError(PhaseBind, KindInternal).Detail("element (%d,%d)", row, col).Cause(err).Build()
		}
		v.setResist(uint32(i), &e.Real)
		if entry.HasReact() {
			v.setReact(entry.ReactPtrOff, &e.Imag)
		}
	}
	return nil
}

// unbind 清空雅可比指针, 未绑定的实例不参与压缩列绑定
func unbind(d *Descriptor, inst *blob.Blob) {
	v := d.view(inst)
	for i, entry := range d.JacobianEntries {
		v.setResist(uint32(i), nil)
		if entry.HasReact() {
			v.setReact(entry.ReactPtrOff, nil)
		}
	}
}
