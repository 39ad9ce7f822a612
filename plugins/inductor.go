package plugins

import (
	"ngosdi/blob"
	"ngosdi/osdi"
	"ngosdi/types"
)

const (
	indL = iota
	indIC
)

// Inductor 以支路电流为未知量的电感, 磁链占两个状态槽
func Inductor() *osdi.Descriptor {
	var inst, model blob.Layout
	f := newFrame(&inst, 3, 0, 5, 2)
	br := osdi.Node{Name: "br", IsFlow: true, ReactResidualOff: inst.F64().Off}
	entries := []osdi.JacobianEntry{
		entry(0, 2),
		entry(1, 2),
		entry(2, 0),
		entry(2, 1),
		reactEntry(&inst, 2, 2),
	}
	params := []osdi.Param{
		indL:  param(&inst, osdi.ParamInstance, 1e-6, "l", "inductance"),
		indIC: param(&inst, osdi.ParamInstance, 0, "ic"),
	}

	d := &osdi.Descriptor{
		Name:            "inductor",
		NumTerminals:    2,
		Nodes:           []osdi.Node{node("p"), node("n"), br},
		JacobianEntries: entries,
		Params:          params,
		ModelSize:       model.Size(),
		InstanceSize:    inst.Size(),
	}
	f.apply(d)

	d.SetupModel = func(_ osdi.Handle, _ *blob.Blob, _ *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
	}
	d.SetupInstance = func(_ osdi.Handle, b, _ *blob.Blob, _ float64, _ uint32, _ *types.SimParams, info *osdi.InitInfo) {
		*info = osdi.InitInfo{}
		check(info, indL, field(params[indL]).Get(b) > 0)
	}
	return d
}
