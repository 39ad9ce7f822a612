// Package ngosdi 把器件插件接入电路: 加载网表, 初始化, 温度更新, 卸载和矩阵绑定.
package ngosdi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"ngosdi/config"
	"ngosdi/element"
	"ngosdi/graph"
	"ngosdi/metrics"
	"ngosdi/mna"
	"ngosdi/mna/csc"
	"ngosdi/osdi"
	"ngosdi/types"
)

var ErrUnknownModel = errors.New("unknown model")

// Circuit 电路
type Circuit struct {
	Registry *osdi.Registry
	Nodes    *graph.Nodes
	Matrix   *mna.Matrix
	Manager  *osdi.Manager
	States   osdi.StateAllocator
	Sim      types.Sim

	models  map[string][]*element.Model // 器件 → 模型
	byName  map[string]*element.Model
	devices map[string]string // 模型 → 器件
	csc     *csc.Matrix
}

// NewCircuit 初始化
func NewCircuit(reg *osdi.Registry, m *metrics.Collector) *Circuit {
	c := &Circuit{
		Registry: reg,
		Nodes:    graph.NewNodes(),
		Matrix:   mna.New(0),
		Sim:      types.DefaultSim(),
		models:   map[string][]*element.Model{},
		byName:   map[string]*element.Model{},
		devices:  map[string]string{},
	}
	c.Manager = osdi.NewManager(c.Nodes, c.Matrix, m)
	return c
}

// Load 加载网表, 创建外部节点、模型和实例
func (c *Circuit) Load(cfg config.Config) error {
	c.Sim = cfg.Sim.Types()
	c.Matrix.MaxElements = cfg.Sim.MaxElements
	for _, mc := range cfg.Models {
		d, ok := c.Registry.Lookup(mc.Device)
		if !ok {
			return fmt.Errorf("model %s: unknown device %q", mc.Name, mc.Device)
		}
		if _, ok := c.byName[mc.Name]; ok {
			return fmt.Errorf("model %s: %w", mc.Name, element.ErrDuplicate)
		}
		model := element.NewModel(mc.Name, d.Name, d.NewModelData())
		for _, k := range sortedKeys(mc.Params) {
			if err := d.SetParam(model.Data, nil, k, mc.Params[k]); err != nil {
				return fmt.Errorf("model %s: %w", mc.Name, err)
			}
		}
		for _, ic := range mc.Instances {
			inst, err := c.instance(d, ic)
			if err != nil {
				return fmt.Errorf("model %s: %w", mc.Name, err)
			}
			if err := model.AddInstance(inst); err != nil {
				return fmt.Errorf("model %s: %w", mc.Name, err)
			}
		}
		c.models[d.Name] = append(c.models[d.Name], model)
		c.byName[model.Name] = model
		c.devices[model.Name] = d.Name
	}
	c.Nodes.MarkExternal()
	osdi.Logger().Info("deck loaded",
		zap.Int("models", len(c.byName)), zap.Int("nodes", c.Nodes.Len()-1))
	return nil
}

func (c *Circuit) instance(d *osdi.Descriptor, ic config.Instance) (*element.Instance, error) {
	terminals := make([]types.NodeID, len(ic.Terminals))
	for i, name := range ic.Terminals {
		if name == "" {
			terminals[i] = types.Unconnected
			continue
		}
		id, err := c.Nodes.External(name)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", ic.Name, err)
		}
		terminals[i] = id
	}
	inst := element.NewInstance(ic.Name, terminals, d.NewInstanceData())
	if ic.Temp != nil {
		inst.SetTemp(*ic.Temp + types.CToK)
	}
	if ic.DTemp != nil {
		inst.SetDTemp(*ic.DTemp)
	}
	for _, k := range sortedKeys(ic.Params) {
		if err := d.SetParam(nil, inst.Data, k, ic.Params[k]); err != nil {
			return nil, fmt.Errorf("instance %s: %w", ic.Name, err)
		}
	}
	return inst, nil
}

// Devices 有模型的器件, 按名称排序
func (c *Circuit) Devices() []string {
	out := make([]string, 0, len(c.models))
	for name := range c.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Models 器件的模型列表
func (c *Circuit) Models(device string) []*element.Model {
	d, ok := c.Registry.Lookup(device)
	if !ok {
		return nil
	}
	return c.models[d.Name]
}

// Model 按名称查找模型
func (c *Circuit) Model(name string) *element.Model { return c.byName[name] }

// Descriptor 模型所属器件
func (c *Circuit) Descriptor(model string) (*osdi.Descriptor, bool) {
	dev, ok := c.devices[model]
	if !ok {
		return nil, false
	}
	return c.Registry.Lookup(dev)
}

// pass 对每个器件依次执行, 致命错误立即返回, 可恢复错误汇总
func (c *Circuit) pass(fn func(d *osdi.Descriptor, models []*element.Model) (*osdi.Report, error)) ([]*osdi.Report, error) {
	var (
		reports []*osdi.Report
		errs    []error
	)
	for _, dev := range c.Devices() {
		d, _ := c.Registry.Lookup(dev)
		rep, err := fn(d, c.models[dev])
		if rep != nil {
			reports = append(reports, rep)
		}
		if err == nil {
			continue
		}
		if osdi.StatusOf(err) == osdi.StatusFatal {
			return reports, err
		}
		errs = append(errs, err)
	}
	return reports, errors.Join(errs...)
}

// Setup 初始化全部器件.
// 先卸载上一次的内部节点和绑定, 状态编号从0重新分配.
func (c *Circuit) Setup(ctx context.Context) ([]*osdi.Report, error) {
	if err := c.Unsetup(); err != nil {
		return nil, err
	}
	c.States = osdi.StateAllocator{}
	return c.pass(func(d *osdi.Descriptor, models []*element.Model) (*osdi.Report, error) {
		return c.Manager.Setup(ctx, models, d, &c.States, c.Sim)
	})
}

// Temperature 按当前仿真设置更新温度
func (c *Circuit) Temperature(ctx context.Context) ([]*osdi.Report, error) {
	return c.pass(func(d *osdi.Descriptor, models []*element.Model) (*osdi.Report, error) {
		return c.Manager.Temperature(ctx, models, d, c.Sim)
	})
}

// SetTemp 设置电路温度(K)
func (c *Circuit) SetTemp(t float64) { c.Sim.Temp = t }

// Unsetup 卸载全部器件, 压缩列绑定一并失效
func (c *Circuit) Unsetup() error {
	c.csc = nil
	for _, dev := range c.Devices() {
		d, _ := c.Registry.Lookup(dev)
		if err := c.Manager.Unsetup(c.models[dev], d); err != nil {
			return err
		}
	}
	return nil
}

// BindCSC 固化原生矩阵并把全部实例改绑到压缩列存储.
// 可重复调用, 每次生成新的压缩列矩阵并沿用当前的实数/复数模式.
func (c *Circuit) BindCSC() (*csc.Matrix, error) {
	m, err := c.Matrix.Finalize()
	if err != nil {
		return nil, err
	}
	for _, dev := range c.Devices() {
		d, _ := c.Registry.Lookup(dev)
		if err := c.Manager.BindCSC(c.models[dev], d, m.Bind()); err != nil {
			return nil, err
		}
	}
	c.csc = m
	if c.Matrix.IsComplex() {
		if err := c.SetComplex(true); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CSC 当前压缩列矩阵, 未绑定时为 nil
func (c *Circuit) CSC() *csc.Matrix { return c.csc }

// SetComplex 切换实数/复数存储
func (c *Circuit) SetComplex(complex bool) error {
	c.Matrix.SetComplex(complex)
	for _, dev := range c.Devices() {
		d, _ := c.Registry.Lookup(dev)
		if err := c.Manager.UpdateCSC(c.models[dev], d, complex); err != nil {
			return err
		}
	}
	return nil
}

// DeleteInstance 删除实例并释放内部节点
func (c *Circuit) DeleteInstance(model, name string) error {
	m, ok := c.byName[model]
	if !ok {
		return fmt.Errorf("%s: %w", model, ErrUnknownModel)
	}
	d, _ := c.Descriptor(model)
	return c.Manager.DeleteInstance(m, name, d)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
