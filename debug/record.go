// Package debug 诊断输出: 节点合并关系图, 流程耗时曲线, 矩阵稀疏结构.
package debug

import (
	"encoding/json"
	"io"

	"ngosdi/element"
	"ngosdi/graph"
	"ngosdi/osdi"
	"ngosdi/types"
)

// Record 记录节点连接和各次流程
type Record struct {
	Elements  []string   // 实例列表, 0 为地
	NodeNames []string   // 节点名称, 下标为全局编号
	Internal  []bool     // 是否插件创建的内部节点
	Nodes     [][][2]int // 节点 → (实例下标, 局部节点)
	Passes    []string   // 流程名称
	Duration  []float64  // 耗时(毫秒)
	Failed    []int      // 失败实体数
}

// NewRecord 按当前节点表初始化
func NewRecord(nodes *graph.Nodes) *Record {
	r := &Record{Elements: []string{"Gnd"}}
	n := nodes.Len()
	r.NodeNames = make([]string, n)
	r.Internal = make([]bool, n)
	r.Nodes = make([][][2]int, n)
	for i := 0; i < n; i++ {
		id := types.NodeID(i)
		r.NodeNames[i] = nodes.Name(id)
		r.Internal[i] = id > nodes.LastExternal()
	}
	return r
}

// Add 记录一组实例的节点映射
func (r *Record) Add(models []*element.Model, d *osdi.Descriptor) {
	for _, m := range models {
		for _, inst := range m.Instances() {
			idx := len(r.Elements)
			r.Elements = append(r.Elements, inst.Name)
			for l, g := range d.NodeMapping(inst.Data) {
				if int(g) >= len(r.Nodes) {
					continue
				}
				r.Nodes[g] = append(r.Nodes[g], [2]int{idx, l})
			}
		}
	}
}

// Update 记录一次流程
func (r *Record) Update(rep *osdi.Report) {
	r.Passes = append(r.Passes, string(rep.Pass)+":"+rep.Device)
	r.Duration = append(r.Duration, float64(rep.Duration.Microseconds())/1e3)
	r.Failed = append(r.Failed, len(rep.Failed()))
}

// Render 格式和输出内容
func (r *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(r) }
