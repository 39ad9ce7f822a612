package osdi

import (
	"fmt"

	"go.uber.org/zap"

	"ngosdi/blob"
	"ngosdi/mna/csc"
	"ngosdi/types"
)

// BindCSC 将已绑定的原生元素指针换成压缩列存储位置.
// 两端均非地的项在绑定表中必须有完全匹配, 否则为内部错误.
// 未绑定原生矩阵的项(指针为空)跳过.
// cache 每项两个槽位: 实数位置和复数位置.
func BindCSC(t *csc.BindTable, d *Descriptor, inst *blob.Blob, cache []*float64) error {
	if len(cache) < 2*len(d.JacobianEntries) {
		return NewError(PhaseBind, KindInternal).
			Detail("matrix pointer cache holds %d slots, need %d", len(cache), 2*len(d.JacobianEntries)).Build()
	}
	v := d.view(inst)
	for i, entry := range d.JacobianEntries {
		if v.mapping(entry.Equation) == uint32(types.Gnd) || v.mapping(entry.Unknown) == uint32(types.Gnd) {
			continue
		}
		ptr := v.resist(uint32(i))
		if ptr == nil {
			continue
		}
		matched, ok := t.Lookup(csc.KeyOf(ptr))
		if !ok {
			Logger().Error("pointer not found in bind table",
				zap.String("device", d.Name), zap.String("ptr", fmt.Sprintf("%p", ptr)), zap.Int("entry", i))
			return NewError(PhaseBind, KindInternal).Detail("ptr %p not found in bind table", ptr).Build()
		}
		if entry.HasReact() {
			v.setReact(entry.ReactPtrOff, csc.Imag(matched.CSCComplex))
		}
		v.setResist(uint32(i), matched.CSC)
		cache[2*i] = matched.CSC
		cache[2*i+1] = matched.CSCComplex
	}
	return nil
}

// UpdateCSC 在实数与复数存储之间切换, 不再查表
func UpdateCSC(d *Descriptor, inst *blob.Blob, cache []*float64, complex bool) {
	v := d.view(inst)
	k := 0
	if complex {
		k = 1
	}
	for i, entry := range d.JacobianEntries {
		if v.mapping(entry.Equation) == uint32(types.Gnd) || v.mapping(entry.Unknown) == uint32(types.Gnd) {
			continue
		}
		v.setResist(uint32(i), cache[2*i+k])
	}
}
