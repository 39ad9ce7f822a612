package osdi

import (
	"ngosdi/blob"
	"ngosdi/types"
)

// NodeAllocator 仿真器的节点分配服务
type NodeAllocator interface {
	MakeVoltage(inst, name string) (types.NodeID, error)
	MakeFlow(inst, name string) (types.NodeID, error)
	Delete(id types.NodeID) error
	LastExternal() types.NodeID
}

// WriteNodeMapping 将局部映射改写为全局节点编号, 地映射为 0
func WriteNodeMapping(d *Descriptor, inst *blob.Blob, nodes []types.NodeID) {
	v := d.view(inst)
	for i := uint32(0); i < d.NumNodes(); i++ {
		m := v.mapping(i)
		if m == types.GroundSentinel {
			v.setMapping(i, uint32(types.Gnd))
			continue
		}
		v.setMapping(i, uint32(nodes[m]))
	}
}

// allocNodes 填充节点缓冲: 引脚在前, 其后为新建的内部节点.
// 失败时删除本次已创建的节点.
func allocNodes(a NodeAllocator, d *Descriptor, name string, terminals, nodes []types.NodeID, connected, count uint32) error {
	copy(nodes, terminals[:connected])
	for i := connected; i < count; i++ {
		var (
			id  types.NodeID
			err error
		)
		node := d.Nodes[i]
		if node.IsFlow {
			id, err = a.MakeFlow(name, node.Name)
		} else {
			id, err = a.MakeVoltage(name, node.Name)
		}
		if err != nil {
			for j := i; j > connected; j-- {
				_ = a.Delete(nodes[j-1])
			}
			return NewError(PhaseMapping, KindNode).Entity(name).
				Detail("create node %s", node.Name).Cause(err).Build()
		}
		nodes[i] = id
	}
	return nil
}

// releaseNodes 删除实例映射中的内部节点, 已删除的映射项改为地.
// 外部节点保持不变; 边界未记录时不删除任何节点.
func releaseNodes(a NodeAllocator, d *Descriptor, inst *blob.Blob) error {
	v := d.view(inst)
	last := a.LastExternal()
	if last == types.Gnd {
		return nil
	}
	for i := uint32(0); i < d.NumNodes(); i++ {
		id := types.NodeID(v.mapping(i))
		if id <= last {
			continue
		}
		if err := a.Delete(id); err != nil {
			return NewError(PhaseUnsetup, KindNode).Detail("delete node %d", id).Cause(err).Build()
		}
		v.setMapping(i, uint32(types.Gnd))
	}
	return nil
}
