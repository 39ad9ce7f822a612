package osdi

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"ngosdi/element"
	"ngosdi/metrics"
	"ngosdi/mna/csc"
	"ngosdi/types"
)

// Manager 按模型、实例顺序执行 setup / 温度更新 / 卸载
type Manager struct {
	Nodes   NodeAllocator
	Matrix  ElementMatrix
	Metrics *metrics.Collector
}

// NewManager 创建管理器
func NewManager(nodes NodeAllocator, matrix ElementMatrix, m *metrics.Collector) *Manager {
	return &Manager{Nodes: nodes, Matrix: matrix, Metrics: m}
}

func canceled(ctx context.Context, p Phase) error {
	if err := ctx.Err(); err != nil {
		return NewError(p, KindCanceled).Cause(err).Build()
	}
	return nil
}

// record 写入实体结果并记录失败
func (m *Manager) record(res *Result, status Status, err error) {
	res.Status, res.Err = status, err
	if status == StatusOK {
		return
	}
	phase := PhaseSetup
	if e, ok := err.(*Error); ok {
		phase = e.Phase
	}
	m.Metrics.IncFailure(string(phase), status.String())
	Logger().Warn("entity setup failed",
		zap.String("kind", string(res.Kind)), zap.String("name", res.Name),
		zap.Stringer("status", status), zap.Error(err))
}

// Setup 首次初始化.
// 模型或实例的可恢复失败只标记该实体, 致命错误立即返回已完成的部分报告.
func (m *Manager) Setup(ctx context.Context, models []*element.Model, d *Descriptor, states *StateAllocator, sim types.Sim) (*Report, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	rep := newReport(PassSetup, d.Name)
	start := time.Now()
	defer func() {
		rep.Duration = time.Since(start)
		m.Metrics.ObservePass(string(PassSetup), d.Name, rep.Duration)
	}()

	params := sim.Params()
	// 节点缓冲只在本次调用内使用
	nodes := make([]types.NodeID, d.NumNodes())
	first := states.Next

	for _, model := range models {
		if err := canceled(ctx, PhaseSetup); err != nil {
			return rep, err
		}
		res := rep.add(EntityModel, model.Name, "")
		h := Handle{Kind: HandleModel, Name: model.Name}
		var info InitInfo
		d.SetupModel(h, model.Data, params, &info)
		status, err := HandleInitInfo(h, &info, d)
		m.record(res, status, err)
		if status == StatusFatal {
			return rep, err
		}
		if status != StatusOK {
			continue
		}

		for _, inst := range model.Instances() {
			if err := canceled(ctx, PhaseSetup); err != nil {
				return rep, err
			}
			res := rep.add(EntityInstance, inst.Name, model.Name)
			status, err := m.setupInstance(res, model, inst, d, nodes, states, sim.Temp, params)
			m.record(res, status, err)
			if status == StatusFatal {
				return rep, err
			}
		}
	}
	m.Metrics.SetStates(d.Name, states.Next-first)
	return rep, rep.Err()
}

func (m *Manager) setupInstance(res *Result, model *element.Model, inst *element.Instance, d *Descriptor,
	nodes []types.NodeID, states *StateAllocator, temp float64, params *types.SimParams) (Status, error) {
	// 旧的绑定和压缩列缓存全部作废
	unbind(d, inst.Data)
	inst.MatrixPtrs = nil
	connected := inst.Connected(int(d.NumTerminals))
	h := Handle{Kind: HandleInstance, Name: inst.Name}
	var info InitInfo
	d.SetupInstance(h, inst.Data, model.Data, inst.Temperature(temp), connected, params, &info)
	if status, err := HandleInitInfo(h, &info, d); status != StatusOK {
		return status, err
	}

	count := CollapseNodes(d, inst.Data, connected)
	if err := allocNodes(m.Nodes, d, inst.Name, inst.Terminals, nodes, connected, count); err != nil {
		return StatusFatal, err
	}
	WriteNodeMapping(d, inst.Data, nodes)

	if err := BindNative(m.Matrix, d, inst.Data); err != nil {
		return StatusFatal, withEntity(err, inst.Name)
	}

	inst.State = states.Allocate(d, inst.Data)
	res.Nodes = int(count)
	res.Collapsed = int(d.NumNodes() - count)
	res.Internal = int(count - connected)
	res.StateStart = inst.State
	res.States = int(d.NumStateSlots())
	m.Metrics.AddNodes(d.Name, res.Collapsed, res.Internal)
	m.Metrics.AddBound(d.Name, "native", len(d.JacobianEntries))

	Logger().Debug("instance setup",
		zap.String("device", d.Name), zap.String("instance", inst.Name),
		zap.Uint32("connected", connected), zap.Uint32("nodes", count),
		zap.Int("state", inst.State))
	return StatusOK, nil
}

// Temperature 温度更新, 只重新调用插件初始化.
// 合并结果和矩阵绑定保持不变.
func (m *Manager) Temperature(ctx context.Context, models []*element.Model, d *Descriptor, sim types.Sim) (*Report, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	rep := newReport(PassTemperature, d.Name)
	start := time.Now()
	defer func() {
		rep.Duration = time.Since(start)
		m.Metrics.ObservePass(string(PassTemperature), d.Name, rep.Duration)
	}()

	params := sim.Params()
	for _, model := range models {
		if err := canceled(ctx, PhaseTemperature); err != nil {
			return rep, err
		}
		res := rep.add(EntityModel, model.Name, "")
		h := Handle{Kind: HandleModelTemp, Name: model.Name}
		var info InitInfo
		d.SetupModel(h, model.Data, params, &info)
		status, err := HandleInitInfo(h, &info, d)
		m.record(res, status, err)
		if status == StatusFatal {
			return rep, err
		}
		if status != StatusOK {
			continue
		}

		for _, inst := range model.Instances() {
			if err := canceled(ctx, PhaseTemperature); err != nil {
				return rep, err
			}
			res := rep.add(EntityInstance, inst.Name, model.Name)
			h := Handle{Kind: HandleInstance, Name: inst.Name}
			var info InitInfo
			connected := inst.Connected(int(d.NumTerminals))
			d.SetupInstance(h, inst.Data, model.Data, inst.Temperature(sim.Temp), connected, params, &info)
			status, err := HandleInitInfo(h, &info, d)
			m.record(res, status, err)
			if status == StatusFatal {
				return rep, err
			}
		}
	}
	return rep, rep.Err()
}

// Unsetup 清除合并标志并删除内部节点, 可重复调用
func (m *Manager) Unsetup(models []*element.Model, d *Descriptor) error {
	if err := d.ready(); err != nil {
		return err
	}
	start := time.Now()
	defer func() { m.Metrics.ObservePass(string(PassUnsetup), d.Name, time.Since(start)) }()

	for _, model := range models {
		for _, inst := range model.Instances() {
			d.view(inst.Data).clearCollapsed()
			unbind(d, inst.Data)
			inst.MatrixPtrs = nil
			if err := releaseNodes(m.Nodes, d, inst.Data); err != nil {
				return withEntity(err, inst.Name)
			}
		}
	}
	return nil
}

// DeleteInstance 移除实例并释放其内部节点, 实例不存在时不做任何事
func (m *Manager) DeleteInstance(model *element.Model, name string, d *Descriptor) error {
	if err := d.ready(); err != nil {
		return err
	}
	inst := model.RemoveInstance(name)
	if inst == nil {
		return nil
	}
	if err := releaseNodes(m.Nodes, d, inst.Data); err != nil {
		return withEntity(err, name)
	}
	Logger().Debug("instance deleted", zap.String("device", d.Name), zap.String("instance", name))
	return nil
}

// BindCSC 为全部实例绑定压缩列存储.
// 已绑定过的实例先恢复原生指针, 再按新表查找.
func (m *Manager) BindCSC(models []*element.Model, d *Descriptor, t *csc.BindTable) error {
	if err := d.ready(); err != nil {
		return err
	}
	start := time.Now()
	defer func() { m.Metrics.ObservePass(string(PassBindCSC), d.Name, time.Since(start)) }()

	for _, model := range models {
		for _, inst := range model.Instances() {
			if slices.ContainsFunc(inst.MatrixPtrs, func(p *float64) bool { return p != nil }) {
				if err := BindNative(m.Matrix, d, inst.Data); err != nil {
					return withEntity(err, inst.Name)
				}
			}
			if len(inst.MatrixPtrs) != 2*len(d.JacobianEntries) {
				inst.MatrixPtrs = make([]*float64, 2*len(d.JacobianEntries))
			}
			if err := BindCSC(t, d, inst.Data, inst.MatrixPtrs); err != nil {
				return withEntity(err, inst.Name)
			}
			m.Metrics.AddBound(d.Name, "csc", len(d.JacobianEntries))
		}
	}
	return nil
}

// UpdateCSC 切换全部实例的实数/复数存储
func (m *Manager) UpdateCSC(models []*element.Model, d *Descriptor, complex bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	for _, model := range models {
		for _, inst := range model.Instances() {
			if inst.MatrixPtrs == nil {
				continue
			}
			UpdateCSC(d, inst.Data, inst.MatrixPtrs, complex)
		}
	}
	return nil
}
