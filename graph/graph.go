// Package graph 管理电路节点编号.
//
// 外部节点由网表创建, 插件内部节点在 setup 中按需创建,
// 卸载时删除. 外部与内部节点以 MarkExternal 记录的边界区分.
package graph

import (
	"errors"
	"fmt"

	"ngosdi/types"
)

var (
	ErrExternalNode = errors.New("cannot delete externally owned node")
	ErrEmptyName    = errors.New("empty node name")
)

// NodeType 节点未知量类型
type NodeType int

const (
	NodeVoltage NodeType = iota // 电压未知量
	NodeCurrent                 // 电流(流)未知量
)

// String 类型名
func (t NodeType) String() string {
	if t == NodeCurrent {
		return "current"
	}
	return "voltage"
}

// Node 节点信息
type Node struct {
	ID      types.NodeID // 全局编号
	Name    string       // 节点名称
	Type    NodeType     // 未知量类型
	Deleted bool         // 已删除
}

// Nodes 节点表, 编号即下标, 0 号为地
type Nodes struct {
	list         []*Node
	names        map[string]types.NodeID
	lastExternal types.NodeID
}

// NewNodes 创建只含地节点的节点表
func NewNodes() *Nodes {
	g := &Nodes{names: map[string]types.NodeID{}}
	g.list = append(g.list, &Node{ID: types.Gnd, Name: "0"})
	g.names["0"] = types.Gnd
	g.names["gnd"] = types.Gnd
	return g
}

// add 追加节点
func (g *Nodes) add(name string, t NodeType) types.NodeID {
	id := types.NodeID(len(g.list))
	g.list = append(g.list, &Node{ID: id, Name: name, Type: t})
	g.names[name] = id
	return id
}

// External 查找或创建网表节点
func (g *Nodes) External(name string) (types.NodeID, error) {
	if name == "" {
		return types.Unconnected, ErrEmptyName
	}
	if id, ok := g.names[name]; ok {
		return id, nil
	}
	return g.add(name, NodeVoltage), nil
}

// MarkExternal 记录外部节点边界, 之后创建的节点均属于插件
func (g *Nodes) MarkExternal() {
	g.lastExternal = types.NodeID(len(g.list) - 1)
}

// LastExternal 最后一个外部节点
func (g *Nodes) LastExternal() types.NodeID { return g.lastExternal }

// MakeVoltage 为实例创建电压节点
func (g *Nodes) MakeVoltage(inst, name string) (types.NodeID, error) {
	return g.makeInternal(inst, name, NodeVoltage)
}

// MakeFlow 为实例创建电流节点
func (g *Nodes) MakeFlow(inst, name string) (types.NodeID, error) {
	return g.makeInternal(inst, name, NodeCurrent)
}

func (g *Nodes) makeInternal(inst, name string, t NodeType) (types.NodeID, error) {
	if inst == "" || name == "" {
		return types.Unconnected, ErrEmptyName
	}
	full := inst + "#" + name
	if t == NodeCurrent {
		full += "#flow"
	}
	if id, ok := g.names[full]; ok && id > g.lastExternal {
		return types.Unconnected, fmt.Errorf("node %s already exists", full)
	}
	return g.add(full, t), nil
}

// Delete 删除内部节点, 重复删除无操作
func (g *Nodes) Delete(id types.NodeID) error {
	if id <= g.lastExternal {
		return fmt.Errorf("node %d: %w", id, ErrExternalNode)
	}
	if int(id) >= len(g.list) {
		return nil
	}
	n := g.list[id]
	if n.Deleted {
		return nil
	}
	n.Deleted = true
	delete(g.names, n.Name)
	// 回收尾部编号, 重新 setup 时得到相同编号
	for len(g.list)-1 > int(g.lastExternal) && g.list[len(g.list)-1].Deleted {
		g.list = g.list[:len(g.list)-1]
	}
	return nil
}

// Node 按编号取节点
func (g *Nodes) Node(id types.NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(g.list) || g.list[id].Deleted {
		return nil, false
	}
	return g.list[id], true
}

// Lookup 按名称查找
func (g *Nodes) Lookup(name string) (types.NodeID, bool) {
	id, ok := g.names[name]
	return id, ok
}

// Len 节点数量(含地)
func (g *Nodes) Len() int { return len(g.list) }

// Live 未删除的节点数量(含地)
func (g *Nodes) Live() (n int) {
	for _, node := range g.list {
		if !node.Deleted {
			n++
		}
	}
	return n
}

// Name 节点名称
func (g *Nodes) Name(id types.NodeID) string {
	if n, ok := g.Node(id); ok {
		return n.Name
	}
	return id.String()
}
