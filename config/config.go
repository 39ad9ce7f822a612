// Package config loads simulator settings and the device deck.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ngosdi/types"
)

var ErrInvalid = errors.New("invalid config")

// Sim holds circuit-level settings. Temperatures are in Celsius.
// Zero tolerances mean "unspecified" and are replaced by Defaults.
type Sim struct {
	Temp        *float64 `json:"temp,omitempty" yaml:"temp,omitempty" toml:"temp,omitempty"`
	Tnom        *float64 `json:"tnom,omitempty" yaml:"tnom,omitempty" toml:"tnom,omitempty"`
	Gmin        float64  `json:"gmin" yaml:"gmin" toml:"gmin"`
	Abstol      float64  `json:"abstol" yaml:"abstol" toml:"abstol"`
	Reltol      float64  `json:"reltol" yaml:"reltol" toml:"reltol"`
	Vntol       float64  `json:"vntol" yaml:"vntol" toml:"vntol"`
	Scale       float64  `json:"scale" yaml:"scale" toml:"scale"`
	MaxElements int      `json:"max_elements" yaml:"max_elements" toml:"max_elements"`
	CSC         bool     `json:"csc" yaml:"csc" toml:"csc"`
}

// Instance is one device instance. An empty terminal is unconnected.
type Instance struct {
	Name      string             `json:"name" yaml:"name" toml:"name"`
	Terminals []string           `json:"terminals" yaml:"terminals" toml:"terminals"`
	Temp      *float64           `json:"temp,omitempty" yaml:"temp,omitempty" toml:"temp,omitempty"`
	DTemp     *float64           `json:"dtemp,omitempty" yaml:"dtemp,omitempty" toml:"dtemp,omitempty"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Model groups instances sharing one model parameter set.
type Model struct {
	Name      string             `json:"name" yaml:"name" toml:"name"`
	Device    string             `json:"device" yaml:"device" toml:"device"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Instances []Instance         `json:"instances" yaml:"instances" toml:"instances"`
}

// Config is the whole deck.
type Config struct {
	Sim    Sim     `json:"sim" yaml:"sim" toml:"sim"`
	Models []Model `json:"models" yaml:"models" toml:"models"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml, .hcl, .cir/.net
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".hcl":
		if cfg, err = decodeHCL(path, b); err != nil {
			return cfg, err
		}
	case ".cir", ".net":
		if cfg, err = decodeNetlist(b); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	cfg.Defaults()
	return cfg, cfg.Validate()
}

// Defaults fills unspecified simulator settings.
func (c *Config) Defaults() {
	s := &c.Sim
	if s.Temp == nil {
		t := types.DefaultTemp - types.CToK
		s.Temp = &t
	}
	if s.Tnom == nil {
		t := types.DefaultTnom - types.CToK
		s.Tnom = &t
	}
	if s.Gmin == 0 {
		s.Gmin = types.DefaultGmin
	}
	if s.Abstol == 0 {
		s.Abstol = types.DefaultAbstol
	}
	if s.Reltol == 0 {
		s.Reltol = types.DefaultReltol
	}
	if s.Vntol == 0 {
		s.Vntol = types.DefaultVntol
	}
	if s.Scale == 0 {
		s.Scale = types.DefaultScale
	}
}

// Validate checks names and tolerances.
func (c *Config) Validate() error {
	s := c.Sim
	if s.Gmin < 0 || s.Abstol <= 0 || s.Reltol <= 0 || s.Vntol <= 0 {
		return fmt.Errorf("sim tolerances must be positive: %w", ErrInvalid)
	}
	if s.MaxElements < 0 {
		return fmt.Errorf("sim max_elements %d: %w", s.MaxElements, ErrInvalid)
	}
	if s.Temp != nil && *s.Temp+types.CToK <= 0 {
		return fmt.Errorf("sim temp %g below absolute zero: %w", *s.Temp, ErrInvalid)
	}
	models := map[string]bool{}
	for _, m := range c.Models {
		if m.Name == "" || m.Device == "" {
			return fmt.Errorf("model %q needs a name and a device: %w", m.Name, ErrInvalid)
		}
		if models[m.Name] {
			return fmt.Errorf("duplicate model %q: %w", m.Name, ErrInvalid)
		}
		models[m.Name] = true
		insts := map[string]bool{}
		for _, inst := range m.Instances {
			if inst.Name == "" {
				return fmt.Errorf("unnamed instance in model %q: %w", m.Name, ErrInvalid)
			}
			if insts[inst.Name] {
				return fmt.Errorf("duplicate instance %q in model %q: %w", inst.Name, m.Name, ErrInvalid)
			}
			insts[inst.Name] = true
			if len(inst.Terminals) == 0 {
				return fmt.Errorf("instance %q has no terminals: %w", inst.Name, ErrInvalid)
			}
		}
	}
	return nil
}

// Types converts to simulator units (Kelvin).
func (s Sim) Types() types.Sim {
	out := types.DefaultSim()
	if s.Temp != nil {
		out.Temp = *s.Temp + types.CToK
	}
	if s.Tnom != nil {
		out.Tnom = *s.Tnom + types.CToK
	}
	out.Gmin, out.Abstol, out.Reltol, out.Vntol, out.Scale = s.Gmin, s.Abstol, s.Reltol, s.Vntol, s.Scale
	return out
}
