// Package element 仿真器一侧的模型与实例列表.
package element

import (
	"errors"
	"fmt"

	"ngosdi/blob"
)

var ErrDuplicate = errors.New("duplicate instance name")

// Model 器件模型，持有模型数据块和按加入顺序排列的实例。
// 实例顺序决定状态槽编号，遍历必须保持稳定。
type Model struct {
	Name   string     // 模型名称。
	Device string     // 器件类型名，对应注册表中的描述符。
	Data   *blob.Blob // 模型数据块。

	instances []*Instance
}

// NewModel 创建模型。
// 参数name: 模型名称。
// 参数device: 器件类型名。
// 参数data: 模型数据块。
func NewModel(name, device string, data *blob.Blob) *Model {
	return &Model{Name: name, Device: device, Data: data}
}

// AddInstance 追加实例，名称重复时返回错误。
func (m *Model) AddInstance(inst *Instance) error {
	if m.Instance(inst.Name) != nil {
		return fmt.Errorf("%s in model %s: %w", inst.Name, m.Name, ErrDuplicate)
	}
	m.instances = append(m.instances, inst)
	return nil
}

// RemoveInstance 移除实例。
// 返回：被移除的实例，不存在时返回nil。
func (m *Model) RemoveInstance(name string) *Instance {
	for i, inst := range m.instances {
		if inst.Name == name {
			m.instances = append(m.instances[:i], m.instances[i+1:]...)
			return inst
		}
	}
	return nil
}

// Instance 按名称查找实例。
func (m *Model) Instance(name string) *Instance {
	for _, inst := range m.instances {
		if inst.Name == name {
			return inst
		}
	}
	return nil
}

// Instances 按加入顺序返回实例列表。
func (m *Model) Instances() []*Instance {
	return m.instances
}
