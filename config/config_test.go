package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngosdi/types"
)

const yamlDeck = `
sim:
  temp: 50
  gmin: 1e-9
  csc: true
models:
  - name: dmod
    device: diode
    params: {rs: 10}
    instances:
      - name: d1
        terminals: [a, "0"]
        dtemp: 5
      - name: d2
        terminals: [b, ""]
        params: {area: 2}
`

const jsonDeck = `{
  "sim": {"temp": 50, "gmin": 1e-9, "csc": true},
  "models": [{
    "name": "dmod", "device": "diode", "params": {"rs": 10},
    "instances": [
      {"name": "d1", "terminals": ["a", "0"], "dtemp": 5},
      {"name": "d2", "terminals": ["b", ""], "params": {"area": 2}}
    ]
  }]
}`

const tomlDeck = `
[sim]
temp = 50.0
gmin = 1e-9
csc = true

[[models]]
name = "dmod"
device = "diode"
params = { rs = 10.0 }

[[models.instances]]
name = "d1"
terminals = ["a", "0"]
dtemp = 5.0

[[models.instances]]
name = "d2"
terminals = ["b", ""]
params = { area = 2.0 }
`

const hclDeck = `
sim {
  temp = 50
  gmin = 1e-9
  csc  = true
}

model "dmod" {
  device = "diode"
  params = { rs = 10 }

  instance "d1" {
    terminals = ["a", "0"]
    dtemp     = 5
  }

  instance "d2" {
    terminals = ["b", ""]
    params    = { area = 2 }
  }
}
`

const netDeck = `
# 二极管网表
.value rser 10
.sim temp=50 gmin=1n csc=1
.model dmod diode rs=rser
d1 a 0 dmod dtemp=5 // 阴极接地
/* 第二个实例
   阴极悬空 */
d2 b - dmod
+ area=2
`

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFormats(t *testing.T) {
	for name, body := range map[string]string{
		"deck.yaml": yamlDeck,
		"deck.json": jsonDeck,
		"deck.toml": tomlDeck,
		"deck.hcl":  hclDeck,
		"deck.cir":  netDeck,
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(write(t, name, body))
			require.NoError(t, err)

			require.NotNil(t, cfg.Sim.Temp)
			assert.Equal(t, 50.0, *cfg.Sim.Temp)
			assert.Equal(t, 1e-9, cfg.Sim.Gmin)
			assert.True(t, cfg.Sim.CSC)
			assert.Equal(t, types.DefaultReltol, cfg.Sim.Reltol, "未指定时取默认值")

			require.Len(t, cfg.Models, 1)
			m := cfg.Models[0]
			assert.Equal(t, "diode", m.Device)
			assert.Equal(t, 10.0, m.Params["rs"])
			require.Len(t, m.Instances, 2)
			assert.Equal(t, []string{"a", "0"}, m.Instances[0].Terminals)
			require.NotNil(t, m.Instances[0].DTemp)
			assert.Equal(t, 5.0, *m.Instances[0].DTemp)
			assert.Nil(t, m.Instances[0].Temp)
			assert.Equal(t, []string{"b", ""}, m.Instances[1].Terminals)
			assert.Equal(t, 2.0, m.Instances[1].Params["area"])
		})
	}
}

func TestSimTypes(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	s := cfg.Sim.Types()
	assert.InDelta(t, types.DefaultTemp, s.Temp, 1e-9)
	assert.InDelta(t, types.DefaultTnom, s.Tnom, 1e-9)
	assert.Equal(t, types.DefaultGmin, s.Gmin)

	temp := 100.0
	cfg.Sim.Temp = &temp
	assert.InDelta(t, 373.15, cfg.Sim.Types().Temp, 1e-9)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{Models: []Model{{Name: "m", Device: "diode", Instances: []Instance{{Name: "d1", Terminals: []string{"a"}}}}}}
		c.Defaults()
		return c
	}
	c := base()
	require.NoError(t, c.Validate())

	cases := map[string]func(c *Config){
		"重复模型":   func(c *Config) { c.Models = append(c.Models, c.Models[0]) },
		"缺少器件":   func(c *Config) { c.Models[0].Device = "" },
		"重复实例":   func(c *Config) { c.Models[0].Instances = append(c.Models[0].Instances, c.Models[0].Instances[0]) },
		"无引脚":    func(c *Config) { c.Models[0].Instances[0].Terminals = nil },
		"负容差":    func(c *Config) { c.Sim.Reltol = -1 },
		"低于绝对零度": func(c *Config) { v := -300.0; c.Sim.Temp = &v },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
	_, err = Load(write(t, "deck.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config extension")
	_, err = Load(write(t, "deck.hcl", "model {"))
	assert.ErrorContains(t, err, "failed to parse HCL file")
	_, err = Load(write(t, "deck.yaml", "models:\n  - name: m\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}
