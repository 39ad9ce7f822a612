package types

// Version 模拟器版本, 通过仿真参数传给插件
const Version = 42.0

// Sim 电路级仿真设置
type Sim struct {
	Temp   float64 // 电路温度(K)
	Tnom   float64 // 标称温度(K)
	Gmin   float64 // 最小电导
	Abstol float64 // 电流绝对容差
	Reltol float64 // 相对容差
	Vntol  float64 // 电压绝对容差
	Scale  float64 // 源缩放因子
}

// DefaultSim 默认仿真设置
func DefaultSim() Sim {
	return Sim{
		Temp:   DefaultTemp,
		Tnom:   DefaultTnom,
		Gmin:   DefaultGmin,
		Abstol: DefaultAbstol,
		Reltol: DefaultReltol,
		Vntol:  DefaultVntol,
		Scale:  DefaultScale,
	}
}

// SimParams 以名称/数值表形式传给插件的仿真参数
type SimParams struct {
	Names     []string
	Values    []float64
	StrNames  []string
	StrValues []string
}

// Params 生成插件可读的参数表
func (s Sim) Params() *SimParams {
	return &SimParams{
		Names:     []string{"gdev", "gmin", "tnom", "simulatorVersion", "sourceScaleFactor", "abstol", "reltol", "vntol"},
		Values:    []float64{s.Gmin, s.Gmin, s.Tnom, Version, s.Scale, s.Abstol, s.Reltol, s.Vntol},
		StrNames:  []string{"simulator"},
		StrValues: []string{"ngosdi"},
	}
}

// Get 按名称查找数值参数
func (p *SimParams) Get(name string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	for i, n := range p.Names {
		if n == name {
			return p.Values[i], true
		}
	}
	return 0, false
}
