package osdi

import (
	"ngosdi/blob"
	"ngosdi/types"
)

// CollapseNodes 按插件置位的合并标志压缩节点映射, 返回合并后的节点数.
//
// 已连接引脚由仿真器分配, 不会被消去. 每次合并保留映射编号较小的
// 节点, 编号大于被消去节点的映射依次减一, 保证结果连续.
func CollapseNodes(d *Descriptor, inst *blob.Blob, connected uint32) uint32 {
	v := d.view(inst)
	n := d.NumNodes()
	for i := uint32(0); i < n; i++ {
		v.setMapping(i, i)
	}

	count := n
	for i, pair := range d.Collapsible {
		if !v.collapsed(uint32(i)) {
			continue
		}
		from := v.mapping(pair.Node1)
		to := types.GroundSentinel
		if pair.Node2 != types.GroundSentinel {
			to = v.mapping(pair.Node2)
		}
		// 已经合并过
		if from == to {
			continue
		}
		if isProtected(from, to, connected) || isProtected(to, from, connected) {
			continue
		}
		// 地永远保留, 否则保留较小编号
		if from == types.GroundSentinel || (to != types.GroundSentinel && from < to) {
			from, to = to, from
		}

		for j := uint32(0); j < n; j++ {
			m := v.mapping(j)
			switch {
			case m == from:
				v.setMapping(j, to)
			case m > from && m != types.GroundSentinel:
				v.setMapping(j, m-1)
			}
		}
		count--
	}
	return count
}

// isProtected a 为引脚且 b 为引脚或地
func isProtected(a, b, connected uint32) bool {
	return a < connected && (b < connected || b == types.GroundSentinel)
}
