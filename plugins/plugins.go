// Package plugins 进程内实现的参考器件, 按 osdi 描述符约定布局内存.
//
// 这些器件只在初始化时计算与工作点无关的数据并决定节点合并,
// 不包含求值.
package plugins

import (
	"ngosdi/blob"
	"ngosdi/osdi"
	"ngosdi/types"
)

const (
	kBoltzmann = 1.380649e-23
	qElectron  = 1.602176634e-19
)

// Register 注册全部内置器件
func Register(r *osdi.Registry) error {
	for _, d := range []*osdi.Descriptor{Resistor(), Diode(), Inductor()} {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// frame 每个器件共有的实例字段
type frame struct {
	mapping   blob.U32Array
	collapsed blob.BoolArray
	jacobian  blob.PtrArray
	state     blob.U32Array
}

func newFrame(l *blob.Layout, nodes, pairs, entries, states uint32) frame {
	return frame{
		mapping:   l.U32(nodes),
		jacobian:  l.Ptrs(entries),
		state:     l.U32(states),
		collapsed: l.Bools(pairs),
	}
}

func (f frame) apply(d *osdi.Descriptor) {
	d.NodeMappingOffset = f.mapping.Off
	d.CollapsedOffset = f.collapsed.Off
	d.JacobianPtrResistOffset = f.jacobian.Off
	d.StateIdxOffset = f.state.Off
}

func node(name string) osdi.Node {
	return osdi.Node{Name: name, ReactResidualOff: types.NoOffset}
}

func entry(eq, unk uint32) osdi.JacobianEntry {
	return osdi.JacobianEntry{Equation: eq, Unknown: unk, ReactPtrOff: types.NoOffset}
}

// reactEntry 带复数指针的雅可比项
func reactEntry(l *blob.Layout, eq, unk uint32) osdi.JacobianEntry {
	return osdi.JacobianEntry{Equation: eq, Unknown: unk, ReactPtrOff: l.Ptrs(1).Off}
}

// param 在布局中分配参数字段
func param(l *blob.Layout, flags osdi.ParamFlag, def float64, names ...string) osdi.Param {
	return osdi.Param{Names: names, Flags: flags, Offset: l.F64().Off, Default: def}
}

// check 参数越界时记录错误
func check(info *osdi.InitInfo, id int, ok bool) {
	if !ok {
		info.OutOfBounds(id)
	}
}

func field(p osdi.Param) blob.F64 { return blob.F64{Off: p.Offset} }
