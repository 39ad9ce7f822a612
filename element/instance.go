package element

import (
	"ngosdi/blob"
	"ngosdi/types"
)

// Instance 器件实例，存储引脚连接、温度覆盖和实例数据块。
type Instance struct {
	Name      string         // 实例名称。
	Terminals []types.NodeID // 引脚对应的全局节点，未连接的引脚为types.Unconnected。

	Temp       float64 // 实例温度(K)。
	TempGiven  bool    // 是否指定实例温度。
	DTemp      float64 // 相对电路温度的偏移。
	DTempGiven bool    // 是否指定温度偏移。

	Data *blob.Blob // 实例数据块。

	State      int        // 状态槽起始编号。
	MatrixPtrs []*float64 // 压缩列格式槽位缓存，每个雅可比项两个(实数, 复数)。
}

// NewInstance 创建实例。
// 参数name: 实例名称。
// 参数terminals: 引脚节点列表。
// 参数data: 实例数据块。
func NewInstance(name string, terminals []types.NodeID, data *blob.Blob) *Instance {
	return &Instance{Name: name, Terminals: terminals, Data: data}
}

// Connected 已连接引脚数量。
// 参数numTerminals: 描述符声明的引脚数。
// 返回：第一个未连接引脚之前的引脚数，没有未连接引脚时为声明的引脚数。
func (inst *Instance) Connected(numTerminals int) uint32 {
	n := min(numTerminals, len(inst.Terminals))
	for i := 0; i < n; i++ {
		if inst.Terminals[i] == types.Unconnected {
			return uint32(i)
		}
	}
	return uint32(n)
}

// Temperature 实例工作温度。
// 参数ckt: 电路温度(K)。
// 返回：电路温度，指定实例温度时取实例温度，再叠加温度偏移。
func (inst *Instance) Temperature(ckt float64) float64 {
	temp := ckt
	if inst.TempGiven {
		temp = inst.Temp
	}
	if inst.DTempGiven {
		temp += inst.DTemp
	}
	return temp
}

// SetTemp 指定实例温度。
func (inst *Instance) SetTemp(t float64) {
	inst.Temp, inst.TempGiven = t, true
}

// SetDTemp 指定温度偏移。
func (inst *Instance) SetDTemp(dt float64) {
	inst.DTemp, inst.DTempGiven = dt, true
}
