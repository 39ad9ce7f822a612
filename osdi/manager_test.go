package osdi

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngosdi/element"
	"ngosdi/graph"
	"ngosdi/metrics"
	"ngosdi/mna"
	"ngosdi/types"
)

type bench struct {
	f      *fixture
	nodes  *graph.Nodes
	matrix *mna.Matrix
	mgr    *Manager
	models []*element.Model
}

// newBench 两个模型共三个实例
func newBench(t *testing.T) *bench {
	b := &bench{f: diodeLike(t)}
	b.nodes, b.matrix = newCircuit()
	b.models = []*element.Model{
		b.f.model("m1",
			b.f.instance(t, b.nodes, "d1", "a", "b"),
			b.f.instance(t, b.nodes, "d2", "b", "0")),
		b.f.model("m2",
			b.f.instance(t, b.nodes, "d3", "a", "")),
	}
	b.nodes.MarkExternal()
	b.mgr = NewManager(b.nodes, b.matrix, nil)
	return b
}

func (b *bench) setup(t *testing.T) (*Report, error) {
	return b.mgr.Setup(context.Background(), b.models, b.f.d, &StateAllocator{}, types.DefaultSim())
}

func TestSetup(t *testing.T) {
	b := newBench(t)
	rep, err := b.setup(t)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Count(EntityModel))
	assert.Equal(t, 3, rep.Count(EntityInstance))
	assert.Empty(t, rep.Failed())

	// 外部节点 0,a,b 之后为各实例的内部节点
	d3 := b.models[1].Instance("d3")
	mapping := b.f.d.NodeMapping(d3.Data)
	assert.Equal(t, uint32(1), mapping[0])
	assert.Equal(t, 3+4, b.nodes.Len(), "d1/d2 各一个内部节点, d3 两个")

	// 状态槽按遍历顺序连续分配
	starts := []int{}
	for _, m := range b.models {
		for _, inst := range m.Instances() {
			starts = append(starts, inst.State)
		}
	}
	assert.Equal(t, []int{0, 3, 6}, starts)

	// 句柄类型
	assert.Equal(t, Handle{Kind: HandleModel, Name: "m1"}, b.f.handles[0])
	assert.Equal(t, Handle{Kind: HandleInstance, Name: "d1"}, b.f.handles[1])
}

func TestSetupCollapse(t *testing.T) {
	b := newBench(t)
	b.f.collapse = []bool{true}
	rep, err := b.setup(t)
	require.NoError(t, err)

	// d1/d2 的 ai 并入阳极; d3 的 c 未连接, 仍要新建
	assert.Equal(t, 3+1, b.nodes.Len())
	for _, res := range rep.Results {
		if res.Name == "d1" {
			assert.Equal(t, 1, res.Collapsed)
			assert.Equal(t, 0, res.Internal)
		}
	}
	d1 := b.models[0].Instance("d1")
	mapping := b.f.d.NodeMapping(d1.Data)
	assert.Equal(t, mapping[0], mapping[2])
}

func TestSetupTemperatureOverrides(t *testing.T) {
	b := newBench(t)
	b.models[0].Instance("d1").SetTemp(350)
	b.models[0].Instance("d1").SetDTemp(5)
	b.models[0].Instance("d2").SetDTemp(-10)
	_, err := b.setup(t)
	require.NoError(t, err)

	sim := types.DefaultSim()
	assert.Equal(t, 355.0, b.f.temps["d1"])
	assert.Equal(t, sim.Temp-10, b.f.temps["d2"])
	assert.Equal(t, sim.Temp, b.f.temps["d3"])
}

func TestSetupRecoverableModel(t *testing.T) {
	b := newBench(t)
	b.f.modelInfo["m1"] = InitInfo{Errors: errorsOf(1, InitErrOutOfBounds)}
	rep, err := b.setup(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrivate)
	assert.Equal(t, StatusRecoverable, StatusOf(err))

	// m1 的实例被跳过, m2 继续
	assert.Equal(t, 1, rep.Count(EntityInstance))
	assert.Len(t, rep.Failed(), 1)
	assert.Equal(t, 0, b.models[1].Instance("d3").State)
}

func TestSetupRecoverableInstance(t *testing.T) {
	logs := observe(t)
	b := newBench(t)
	b.f.instInfo["d1"] = InitInfo{Errors: errorsOf(3, InitErrOutOfBounds)}
	rep, err := b.setup(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors occurred during initialization")
	assert.Contains(t, err.Error(), "1 of 5 entities failed")

	failed := rep.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "d1", failed[0].Name)
	// 失败实例不占状态槽
	assert.Equal(t, 0, b.models[0].Instance("d2").State)
	assert.Equal(t, 3, b.models[1].Instance("d3").State)
	assert.Equal(t, 3, logs.FilterMessage("Parameter r is out of bounds!").Len())
}

func TestSetupFatalStops(t *testing.T) {
	b := newBench(t)
	b.f.instInfo["d1"] = InitInfo{Flags: EvalRetFlagFatal, Errors: errorsOf(5, InitErrOutOfBounds)}
	rep, err := b.setup(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Equal(t, StatusFatal, StatusOf(err))
	assert.Len(t, rep.Results, 2, "d1 之后不再处理")
	assert.Len(t, b.f.handles, 2)
}

func TestSetupNoMemIsFatal(t *testing.T) {
	b := newBench(t)
	b.matrix.MaxElements = 8
	_, err := b.setup(t)
	assert.ErrorIs(t, err, ErrNoMem)
	assert.ErrorIs(t, err, &Error{Phase: PhaseBind, Kind: KindNoMem})
}

func TestSetupCanceled(t *testing.T) {
	b := newBench(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := b.mgr.Setup(ctx, b.models, b.f.d, &StateAllocator{}, types.DefaultSim())
	assert.ErrorIs(t, err, &Error{Kind: KindCanceled})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Results)
}

func TestSetupUnregistered(t *testing.T) {
	b := newBench(t)
	_, err := b.mgr.Setup(context.Background(), b.models, &Descriptor{Name: "raw"}, &StateAllocator{}, types.DefaultSim())
	assert.ErrorIs(t, err, ErrLayout)
}

func TestTemperature(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	before := b.nodes.Len()
	nz := b.matrix.NonZeroCount()
	b.f.handles = nil

	sim := types.DefaultSim()
	sim.Temp += 50
	rep, err := b.mgr.Temperature(context.Background(), b.models, b.f.d, sim)
	require.NoError(t, err)
	assert.Len(t, rep.Results, 5)
	assert.Equal(t, Handle{Kind: HandleModelTemp, Name: "m1"}, b.f.handles[0])
	assert.Equal(t, Handle{Kind: HandleInstance, Name: "d1"}, b.f.handles[1])
	assert.Equal(t, sim.Temp, b.f.temps["d3"])
	assert.Equal(t, before, b.nodes.Len(), "温度更新不创建节点")
	assert.Equal(t, nz, b.matrix.NonZeroCount())
}

func TestTemperatureRecoverable(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	b.f.instInfo["d2"] = InitInfo{Errors: errorsOf(1, InitErrOutOfBounds)}
	rep, err := b.mgr.Temperature(context.Background(), b.models, b.f.d, types.DefaultSim())
	assert.ErrorIs(t, err, ErrPrivate)
	assert.ErrorIs(t, err, &Error{Phase: PhaseTemperature, Kind: KindPrivate})
	require.Len(t, rep.Failed(), 1)
	assert.ErrorIs(t, rep.Failed()[0].Err, &Error{Phase: PhaseInstanceSetup, Kind: KindInit})
}

func TestReportErrPhase(t *testing.T) {
	phases := map[Pass]Phase{
		PassSetup:       PhaseSetup,
		PassTemperature: PhaseTemperature,
		PassUnsetup:     PhaseUnsetup,
		PassBindCSC:     PhaseBind,
	}
	for pass, phase := range phases {
		rep := newReport(pass, "diode")
		require.NoError(t, rep.Err())
		res := rep.add(EntityInstance, "d1", "m1")
		res.Status = StatusRecoverable
		res.Err = NewError(PhaseInstanceSetup, KindInit).Entity("d1").Build()
		assert.ErrorIs(t, rep.Err(), &Error{Phase: phase, Kind: KindPrivate}, string(pass))
	}
}

func TestUnsetupIdempotent(t *testing.T) {
	b := newBench(t)
	b.f.collapse = []bool{true}
	_, err := b.setup(t)
	require.NoError(t, err)
	require.Greater(t, b.nodes.Len(), 3)

	require.NoError(t, b.mgr.Unsetup(b.models, b.f.d))
	assert.Equal(t, 3, b.nodes.Len(), "只剩外部节点")
	for _, m := range b.models {
		for _, inst := range m.Instances() {
			assert.False(t, b.f.collapsed.Get(inst.Data, 0), "合并标志已清除")
		}
	}
	d1 := b.models[0].Instance("d1")
	assert.Equal(t, uint32(1), b.f.d.NodeMapping(d1.Data)[0], "外部节点保持")

	require.NoError(t, b.mgr.Unsetup(b.models, b.f.d))
	assert.Equal(t, 3, b.nodes.Len())
}

func TestResetupReproducible(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	first := b.f.d.NodeMapping(b.models[1].Instance("d3").Data)

	require.NoError(t, b.mgr.Unsetup(b.models, b.f.d))
	_, err = b.setup(t)
	require.NoError(t, err)
	assert.Equal(t, first, b.f.d.NodeMapping(b.models[1].Instance("d3").Data))
}

func TestDeleteInstance(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	live := b.nodes.Live()

	require.NoError(t, b.mgr.DeleteInstance(b.models[0], "d1", b.f.d))
	assert.Equal(t, live-1, b.nodes.Live())
	assert.Nil(t, b.models[0].Instance("d1"))
	require.NoError(t, b.mgr.DeleteInstance(b.models[0], "d1", b.f.d))
}

func TestManagerCSC(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	c, err := b.matrix.Finalize()
	require.NoError(t, err)

	require.NoError(t, b.mgr.BindCSC(b.models, b.f.d, c.Bind()))
	d1 := b.models[0].Instance("d1")
	assert.Len(t, d1.MatrixPtrs, 14)
	assert.Same(t, d1.MatrixPtrs[0], b.f.d.JacobianPtr(d1.Data, 0))

	require.NoError(t, b.mgr.UpdateCSC(b.models, b.f.d, true))
	assert.Same(t, d1.MatrixPtrs[1], b.f.d.JacobianPtr(d1.Data, 0))
}

func TestUnsetupDropsBinding(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	c, err := b.matrix.Finalize()
	require.NoError(t, err)
	require.NoError(t, b.mgr.BindCSC(b.models, b.f.d, c.Bind()))

	require.NoError(t, b.mgr.Unsetup(b.models, b.f.d))
	d1 := b.models[0].Instance("d1")
	assert.Nil(t, d1.MatrixPtrs, "压缩列缓存已清除")
	assert.Nil(t, b.f.d.JacobianPtr(d1.Data, 0))

	_, err = b.setup(t)
	require.NoError(t, err)
	native := b.f.d.JacobianPtr(d1.Data, 0)
	assert.Same(t, &b.matrix.Find(1, 1).Real, native)
	// 重新 setup 后切换存储不会指回旧的压缩列矩阵
	require.NoError(t, b.mgr.UpdateCSC(b.models, b.f.d, false))
	assert.Same(t, native, b.f.d.JacobianPtr(d1.Data, 0))
}

func TestManagerCSCRebind(t *testing.T) {
	b := newBench(t)
	_, err := b.setup(t)
	require.NoError(t, err)
	first, err := b.matrix.Finalize()
	require.NoError(t, err)
	require.NoError(t, b.mgr.BindCSC(b.models, b.f.d, first.Bind()))

	second, err := b.matrix.Finalize()
	require.NoError(t, err)
	require.NoError(t, b.mgr.BindCSC(b.models, b.f.d, second.Bind()))
	d1 := b.models[0].Instance("d1")
	assert.Same(t, d1.MatrixPtrs[0], b.f.d.JacobianPtr(d1.Data, 0))

	*b.f.d.JacobianPtr(d1.Data, 0) = 3
	assert.Equal(t, 3.0, second.Get(1, 1))
	assert.Equal(t, 0.0, first.Get(1, 1))
}

func TestManagerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	require.NoError(t, err)
	b := newBench(t)
	b.mgr.Metrics = col
	b.f.instInfo["d2"] = InitInfo{Errors: errorsOf(1, InitErrOutOfBounds)}
	_, _ = b.setup(t)

	n, err := testutil.GatherAndCount(reg, "ngosdi_pass_entity_failures_total", "ngosdi_nodes_internal_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "一个失败标签组合加一个器件")
}
