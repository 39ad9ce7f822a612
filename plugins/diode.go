package plugins

import (
	"math"

	"ngosdi/blob"
	"ngosdi/osdi"
	"ngosdi/types"
)

const (
	dioIS = iota
	dioN
	dioRS
	dioCJ0
	dioArea
)

// 节点
const (
	dioA uint32 = iota
	dioC
	dioAi
)

// Diode 带串联电阻的结型二极管.
// 内部节点 ai 在 rs 为 0 时与阳极合并, 结电容为 ai 节点提供电抗残差.
func Diode() *osdi.Descriptor {
	var inst, model blob.Layout
	f := newFrame(&inst, 3, 1, 7, 2)
	vt := inst.F64()
	gmin := inst.F64()
	isat := inst.F64()

	entries := []osdi.JacobianEntry{
		entry(dioA, dioA),
		entry(dioA, dioAi),
		entry(dioAi, dioA),
		reactEntry(&inst, dioAi, dioAi),
		reactEntry(&inst, dioAi, dioC),
		reactEntry(&inst, dioC, dioAi),
		reactEntry(&inst, dioC, dioC),
	}
	params := []osdi.Param{
		dioIS:   param(&model, osdi.ParamModel, 1e-14, "is"),
		dioN:    param(&model, osdi.ParamModel, 1, "n"),
		dioRS:   param(&model, osdi.ParamModel, 0, "rs"),
		dioCJ0:  param(&model, osdi.ParamModel, 0, "cjo", "cj0"),
		dioArea: param(&inst, osdi.ParamInstance, 1, "area"),
	}
	ai := node("ai")
	ai.ReactResidualOff = inst.F64().Off

	d := &osdi.Descriptor{
		Name:            "diode",
		NumTerminals:    2,
		Nodes:           []osdi.Node{node("a"), node("c"), ai},
		Collapsible:     []osdi.NodePair{{Node1: dioAi, Node2: dioA}},
		JacobianEntries: entries,
		Params:          params,
		ModelSize:       model.Size(),
		InstanceSize:    inst.Size(),
	}
	f.apply(d)

	d.SetupModel = func(_ osdi.Handle, m *blob.Blob, _ *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
		check(info, dioIS, field(params[dioIS]).Get(m) > 0)
		check(info, dioN, field(params[dioN]).Get(m) > 0)
		check(info, dioRS, field(params[dioRS]).Get(m) >= 0)
		check(info, dioCJ0, field(params[dioCJ0]).Get(m) >= 0)
	}
	d.SetupInstance = func(_ osdi.Handle, b, m *blob.Blob, temp float64, _ uint32, sim *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
		area := field(params[dioArea]).Get(b)
		check(info, dioArea, area > 0)
		if temp <= 0 {
			info.Flags |= osdi.EvalRetFlagFatal
		}
		if info.Flags != 0 || len(info.Errors) > 0 {
			return
		}
		n := field(params[dioN]).Get(m)
		vt.Set(b, n*kBoltzmann*temp/qElectron)
		tnom, _ := sim.Get("tnom")
		// 饱和电流按三次方温度关系缩放
		isat.Set(b, area*field(params[dioIS]).Get(m)*math.Pow(temp/tnom, 3/n))
		g, _ := sim.Get("gmin")
		gmin.Set(b, g)
		f.collapsed.Set(b, 0, field(params[dioRS]).Get(m) == 0)
	}
	return d
}
