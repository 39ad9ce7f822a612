package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile is the top-level structure of a deck written in HCL.
//
//	sim { temp = 27 }
//	model "dmod" {
//	  device = "diode"
//	  params = { rs = 10 }
//	  instance "d1" { terminals = ["a", "0"] }
//	}
type hclFile struct {
	Sim    *hclSim     `hcl:"sim,block"`
	Models []*hclModel `hcl:"model,block"`
}

type hclSim struct {
	Temp        *float64 `hcl:"temp,optional"`
	Tnom        *float64 `hcl:"tnom,optional"`
	Gmin        *float64 `hcl:"gmin,optional"`
	Abstol      *float64 `hcl:"abstol,optional"`
	Reltol      *float64 `hcl:"reltol,optional"`
	Vntol       *float64 `hcl:"vntol,optional"`
	Scale       *float64 `hcl:"scale,optional"`
	MaxElements *int     `hcl:"max_elements,optional"`
	CSC         *bool    `hcl:"csc,optional"`
}

type hclModel struct {
	Name      string             `hcl:"name,label"`
	Device    string             `hcl:"device"`
	Params    map[string]float64 `hcl:"params,optional"`
	Instances []*hclInstance     `hcl:"instance,block"`
}

type hclInstance struct {
	Name      string             `hcl:"name,label"`
	Terminals []string           `hcl:"terminals"`
	Temp      *float64           `hcl:"temp,optional"`
	DTemp     *float64           `hcl:"dtemp,optional"`
	Params    map[string]float64 `hcl:"params,optional"`
}

func decodeHCL(path string, src []byte) (Config, error) {
	var cfg Config
	file, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return cfg, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if s := parsed.Sim; s != nil {
		cfg.Sim.Temp, cfg.Sim.Tnom = s.Temp, s.Tnom
		set(&cfg.Sim.Gmin, s.Gmin)
		set(&cfg.Sim.Abstol, s.Abstol)
		set(&cfg.Sim.Reltol, s.Reltol)
		set(&cfg.Sim.Vntol, s.Vntol)
		set(&cfg.Sim.Scale, s.Scale)
		set(&cfg.Sim.MaxElements, s.MaxElements)
		set(&cfg.Sim.CSC, s.CSC)
	}
	for _, m := range parsed.Models {
		model := Model{Name: m.Name, Device: m.Device, Params: m.Params}
		for _, inst := range m.Instances {
			model.Instances = append(model.Instances, Instance{
				Name:      inst.Name,
				Terminals: inst.Terminals,
				Temp:      inst.Temp,
				DTemp:     inst.DTemp,
				Params:    inst.Params,
			})
		}
		cfg.Models = append(cfg.Models, model)
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
