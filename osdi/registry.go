package osdi

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Registry 已注册的器件描述符
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Descriptor{}}
}

// Register 校验并登记描述符
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(d.Name)
	if _, ok := r.byName[key]; ok {
		return NewError(PhaseRegister, KindLayout).Entity(d.Name).Detail("device already registered").Build()
	}
	r.byName[key] = d
	Logger().Debug("device registered",
		zap.String("device", d.Name),
		zap.Uint32("nodes", d.NumNodes()),
		zap.Int("jacobian", len(d.JacobianEntries)),
		zap.Uint32("states", d.NumStateSlots()))
	return nil
}

// Lookup 按名称查找, 不区分大小写
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// Names 已注册器件名, 有序
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, d := range r.byName {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}
