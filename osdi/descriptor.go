// Package osdi 将按描述符约定编写的器件插件接入仿真器的方程组.
//
// 描述符给出实例内存的布局和插件入口. 一次 setup 依次调用插件的
// 模型/实例初始化, 然后合并节点, 写入全局节点编号, 分配状态槽并
// 绑定雅可比矩阵元素. 所有流程在单个 goroutine 内顺序执行.
package osdi

import (
	"strings"

	"ngosdi/blob"
	"ngosdi/types"
)

// Node 插件声明的节点
type Node struct {
	Name              string
	IsFlow            bool   // 电流未知量
	ResistResidualOff uint32 // 电阻性残差偏移
	ReactResidualOff  uint32 // 电抗性残差偏移, 无则为 types.NoOffset
}

// HasReactResidual 是否需要电抗残差状态
func (n Node) HasReactResidual() bool { return n.ReactResidualOff != types.NoOffset }

// NodePair 可合并节点对, Node2 为 types.GroundSentinel 时合并到地
type NodePair struct {
	Node1, Node2 uint32
}

// JacobianEntry 雅可比矩阵项
type JacobianEntry struct {
	Equation    uint32 // 方程节点
	Unknown     uint32 // 未知量节点
	ReactPtrOff uint32 // 复数指针字段偏移, 无则为 types.NoOffset
}

// HasReact 是否有电抗部分
func (e JacobianEntry) HasReact() bool { return e.ReactPtrOff != types.NoOffset }

// ParamFlag 参数归属
type ParamFlag uint32

const (
	ParamInstance ParamFlag = 1 << iota // 实例参数
	ParamModel                          // 模型参数
)

// Param 插件参数, Names[0] 为报告使用的名称
type Param struct {
	Names   []string
	Flags   ParamFlag
	Offset  uint32 // f64 字段偏移
	Default float64
}

// Name 主名称
func (p Param) Name() string {
	if len(p.Names) == 0 {
		return ""
	}
	return p.Names[0]
}

func (p Param) field() blob.F64 { return blob.F64{Off: p.Offset} }

// ModelSetupFunc 模型初始化入口
type ModelSetupFunc func(h Handle, model *blob.Blob, sim *types.SimParams, info *InitInfo)

// InstanceSetupFunc 实例初始化入口
type InstanceSetupFunc func(h Handle, inst, model *blob.Blob, temp float64, connected uint32, sim *types.SimParams, info *InitInfo)

// Descriptor 器件类型的不可变元数据, 注册后只读
type Descriptor struct {
	Name            string
	NumTerminals    uint32
	Nodes           []Node
	Collapsible     []NodePair
	JacobianEntries []JacobianEntry
	NumStates       uint32
	Params          []Param

	InstanceSize            uint32
	ModelSize               uint32
	NodeMappingOffset       uint32
	CollapsedOffset         uint32
	JacobianPtrResistOffset uint32
	StateIdxOffset          uint32

	SetupModel    ModelSetupFunc
	SetupInstance InstanceSetupFunc

	// 校验后解析出的字段
	valid       bool
	nodeMapping blob.U32Array
	collapsed   blob.BoolArray
	jacobian    blob.PtrArray
	stateIdx    blob.U32Array
}

// NumNodes 节点总数
func (d *Descriptor) NumNodes() uint32 { return uint32(len(d.Nodes)) }

// NumStateSlots 每个实例需要的状态槽数
func (d *Descriptor) NumStateSlots() uint32 {
	n := d.NumStates
	for _, node := range d.Nodes {
		if node.HasReactResidual() {
			n += 2
		}
	}
	return n
}

// Validate 校验布局并解析字段访问器, 重复调用无副作用
func (d *Descriptor) Validate() error {
	if d.valid {
		return nil
	}
	fail := func(msg string, args ...any) error {
		return NewError(PhaseRegister, KindLayout).Entity(d.Name).Detail(msg, args...).Build()
	}
	wrap := func(field string, err error) error {
		return NewError(PhaseRegister, KindLayout).Entity(d.Name).Detail(field).Cause(err).Build()
	}
	if d.Name == "" {
		return fail("empty device name")
	}
	if d.SetupModel == nil || d.SetupInstance == nil {
		return fail("missing setup entry point")
	}
	n := d.NumNodes()
	if d.NumTerminals > n {
		return fail("%d terminals exceed %d nodes", d.NumTerminals, n)
	}

	nodeMapping := blob.U32Array{Off: d.NodeMappingOffset, Len: n}
	collapsed := blob.BoolArray{Off: d.CollapsedOffset, Len: uint32(len(d.Collapsible))}
	jacobian := blob.PtrArray{Off: d.JacobianPtrResistOffset, Len: uint32(len(d.JacobianEntries))}
	stateIdx := blob.U32Array{Off: d.StateIdxOffset, Len: d.NumStateSlots()}
	if err := nodeMapping.Check(d.InstanceSize); err != nil {
		return wrap("node mapping", err)
	}
	if err := collapsed.Check(d.InstanceSize); err != nil {
		return wrap("collapsed flags", err)
	}
	if err := jacobian.Check(d.InstanceSize); err != nil {
		return wrap("jacobian pointers", err)
	}
	if err := stateIdx.Check(d.InstanceSize); err != nil {
		return wrap("state index", err)
	}

	for i, p := range d.Collapsible {
		if p.Node1 >= n || (p.Node2 >= n && p.Node2 != types.GroundSentinel) {
			return fail("collapsible pair %d (%d,%d) out of range", i, p.Node1, p.Node2)
		}
		if p.Node1 == p.Node2 {
			return fail("collapsible pair %d collapses node %d into itself", i, p.Node1)
		}
	}
	for i, e := range d.JacobianEntries {
		if e.Equation >= n || e.Unknown >= n {
			return fail("jacobian entry %d (%d,%d) out of range", i, e.Equation, e.Unknown)
		}
		if e.HasReact() {
			if err := blob.PtrField(e.ReactPtrOff).Check(d.InstanceSize); err != nil {
				return wrap("jacobian entry react pointer", err)
			}
		}
	}
	for _, p := range d.Params {
		if len(p.Names) == 0 {
			return fail("unnamed parameter at offset %d", p.Offset)
		}
		size := d.InstanceSize
		if p.Flags&ParamModel != 0 {
			size = d.ModelSize
		}
		if err := p.field().Check(size); err != nil {
			return wrap("parameter "+p.Name(), err)
		}
	}

	d.nodeMapping, d.collapsed, d.jacobian, d.stateIdx = nodeMapping, collapsed, jacobian, stateIdx
	d.valid = true
	return nil
}

// ready 流程入口检查
func (d *Descriptor) ready() error {
	if d == nil || !d.valid {
		name := ""
		if d != nil {
			name = d.Name
		}
		return NewError(PhaseSetup, KindLayout).Entity(name).Detail("descriptor not registered").Build()
	}
	return nil
}

// NewModelData 分配模型内存并写入模型参数默认值
func (d *Descriptor) NewModelData() *blob.Blob {
	b := blob.New(d.ModelSize)
	for _, p := range d.Params {
		if p.Flags&ParamModel != 0 {
			p.field().Set(b, p.Default)
		}
	}
	return b
}

// NewInstanceData 分配实例内存并写入实例参数默认值
func (d *Descriptor) NewInstanceData() *blob.Blob {
	b := blob.New(d.InstanceSize)
	for _, p := range d.Params {
		if p.Flags&ParamModel == 0 {
			p.field().Set(b, p.Default)
		}
	}
	return b
}

// Param 按任一别名查找参数, 不区分大小写
func (d *Descriptor) Param(name string) (Param, int, bool) {
	for i, p := range d.Params {
		for _, n := range p.Names {
			if strings.EqualFold(n, name) {
				return p, i, true
			}
		}
	}
	return Param{}, -1, false
}

// paramName 错误报告用的参数名
func (d *Descriptor) paramName(id uint32) string {
	if int(id) < len(d.Params) {
		return d.Params[id].Name()
	}
	return "#" + itoa(id)
}

// SetParam 写参数, 模型参数写入 model, 实例参数写入 inst
func (d *Descriptor) SetParam(model, inst *blob.Blob, name string, v float64) error {
	p, _, ok := d.Param(name)
	if !ok {
		return NewError(PhaseSetup, KindNotFound).Entity(d.Name).Detail("unknown parameter %q", name).Build()
	}
	target := inst
	if p.Flags&ParamModel != 0 {
		target = model
	}
	if target == nil {
		return NewError(PhaseSetup, KindNotFound).Entity(d.Name).Detail("parameter %q has no target", name).Build()
	}
	p.field().Set(target, v)
	return nil
}

// GetParam 读参数
func (d *Descriptor) GetParam(model, inst *blob.Blob, name string) (float64, bool) {
	p, _, ok := d.Param(name)
	if !ok {
		return 0, false
	}
	target := inst
	if p.Flags&ParamModel != 0 {
		target = model
	}
	if target == nil {
		return 0, false
	}
	return p.field().Get(target), true
}
