package plugins

import (
	"ngosdi/blob"
	"ngosdi/osdi"
	"ngosdi/types"
)

// 参数序号
const (
	resR = iota
	resTC1
	resM
)

// Resistor 两端电阻, r 为 0 时请求合并两端
func Resistor() *osdi.Descriptor {
	var inst, model blob.Layout
	f := newFrame(&inst, 2, 1, 4, 0)
	g := inst.F64()
	params := []osdi.Param{
		resR:   param(&inst, osdi.ParamInstance, 1e3, "r", "resistance"),
		resTC1: param(&model, osdi.ParamModel, 0, "tc1"),
		resM:   param(&inst, osdi.ParamInstance, 1, "m"),
	}

	d := &osdi.Descriptor{
		Name:            "resistor",
		NumTerminals:    2,
		Nodes:           []osdi.Node{node("p"), node("n")},
		Collapsible:     []osdi.NodePair{{Node1: 0, Node2: 1}},
		JacobianEntries: []osdi.JacobianEntry{entry(0, 0), entry(0, 1), entry(1, 0), entry(1, 1)},
		Params:          params,
		ModelSize:       model.Size(),
		InstanceSize:    inst.Size(),
	}
	f.apply(d)

	d.SetupModel = func(_ osdi.Handle, m *blob.Blob, _ *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
	}
	d.SetupInstance = func(_ osdi.Handle, b, m *blob.Blob, temp float64, _ uint32, sim *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
		r := field(params[resR]).Get(b)
		mult := field(params[resM]).Get(b)
		check(info, resR, r >= 0)
		check(info, resM, mult > 0)
		if len(info.Errors) > 0 {
			return
		}
		tnom, _ := sim.Get("tnom")
		r *= 1 + field(params[resTC1]).Get(m)*(temp-tnom)
		if r == 0 {
			f.collapsed.Set(b, 0, true)
			g.Set(b, 0)
			return
		}
		f.collapsed.Set(b, 0, false)
		g.Set(b, mult/r)
	}
	return d
}
