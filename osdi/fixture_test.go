package osdi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ngosdi/blob"
	"ngosdi/element"
	"ngosdi/graph"
	"ngosdi/mna"
	"ngosdi/types"
)

// fixture 可编程的测试器件
type fixture struct {
	d         *Descriptor
	collapsed blob.BoolArray

	collapse  []bool              // setup_instance 写入的合并标志
	modelInfo map[string]InitInfo // 按模型名返回的初始化结果
	instInfo  map[string]InitInfo // 按实例名返回的初始化结果
	temps     map[string]float64
	handles   []Handle
}

func voltage(name string) Node {
	return Node{Name: name, ReactResidualOff: types.NoOffset}
}

func flow(name string) Node {
	return Node{Name: name, IsFlow: true, ReactResidualOff: types.NoOffset}
}

func reactive(name string) Node {
	return Node{Name: name, ReactResidualOff: 0}
}

func entry(eq, unk uint32) JacobianEntry {
	return JacobianEntry{Equation: eq, Unknown: unk, ReactPtrOff: types.NoOffset}
}

// newFixture 按顺序布局实例内存; react 中的雅可比项带复数指针
func newFixture(t *testing.T, terminals uint32, nodes []Node, pairs []NodePair, entries []JacobianEntry, react []int, states uint32) *fixture {
	t.Helper()
	f := &fixture{
		modelInfo: map[string]InitInfo{},
		instInfo:  map[string]InitInfo{},
		temps:     map[string]float64{},
	}
	var l blob.Layout
	mapping := l.U32(uint32(len(nodes)))
	jac := l.Ptrs(uint32(len(entries)))
	for _, i := range react {
		entries[i].ReactPtrOff = l.Ptrs(1).Off
	}
	slots := states
	for _, n := range nodes {
		if n.HasReactResidual() {
			slots += 2
		}
	}
	stateIdx := l.U32(slots)
	f.collapsed = l.Bools(uint32(len(pairs)))
	modelParam := blob.Layout{}
	rmod := modelParam.F64()
	rinst := l.F64()

	f.d = &Descriptor{
		Name:                    "testdev",
		NumTerminals:            terminals,
		Nodes:                   nodes,
		Collapsible:             pairs,
		JacobianEntries:         entries,
		NumStates:               states,
		Params: []Param{
			{Names: []string{"r", "res"}, Flags: ParamModel, Offset: rmod.Off, Default: 1e3},
			{Names: []string{"m"}, Flags: ParamInstance, Offset: rinst.Off, Default: 1},
		},
		InstanceSize:            l.Size(),
		ModelSize:               modelParam.Size(),
		NodeMappingOffset:       mapping.Off,
		CollapsedOffset:         f.collapsed.Off,
		JacobianPtrResistOffset: jac.Off,
		StateIdxOffset:          stateIdx.Off,
		SetupModel: func(h Handle, model *blob.Blob, sim *types.SimParams, info *InitInfo) {
			f.handles = append(f.handles, h)
			*info = f.modelInfo[h.Name]
		},
		SetupInstance: func(h Handle, inst, model *blob.Blob, temp float64, connected uint32, sim *types.SimParams, info *InitInfo) {
			f.handles = append(f.handles, h)
			f.temps[h.Name] = temp
			for i, c := range f.collapse {
				f.collapsed.Set(inst, uint32(i), c)
			}
			*info = f.instInfo[h.Name]
		},
	}
	require.NoError(t, f.d.Validate())
	return f
}

// diodeLike 两引脚一个内部节点, 内部节点可与阳极合并
func diodeLike(t *testing.T) *fixture {
	return newFixture(t, 2,
		[]Node{voltage("a"), reactive("c"), voltage("ai")},
		[]NodePair{{Node1: 0, Node2: 2}},
		[]JacobianEntry{entry(0, 0), entry(0, 2), entry(2, 0), entry(2, 2), entry(2, 1), entry(1, 2), entry(1, 1)},
		[]int{3, 6}, 1)
}

// instance 使用 graph 节点表中的外部节点创建实例
func (f *fixture) instance(t *testing.T, nodes *graph.Nodes, name string, terminals ...string) *element.Instance {
	t.Helper()
	ids := make([]types.NodeID, len(terminals))
	for i, n := range terminals {
		if n == "" {
			ids[i] = types.Unconnected
			continue
		}
		id, err := nodes.External(n)
		require.NoError(t, err)
		ids[i] = id
	}
	return element.NewInstance(name, ids, f.d.NewInstanceData())
}

func (f *fixture) model(name string, insts ...*element.Instance) *element.Model {
	m := element.NewModel(name, f.d.Name, f.d.NewModelData())
	for _, inst := range insts {
		if err := m.AddInstance(inst); err != nil {
			panic(err)
		}
	}
	return m
}

func newCircuit() (*graph.Nodes, *mna.Matrix) {
	return graph.NewNodes(), mna.New(0)
}

// observe 替换包日志, 测试结束后恢复
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}
