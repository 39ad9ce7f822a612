package types

import "math"

// 默认连接常量定义
const (
	Gnd         NodeID = 0  // 全局地节点
	Unconnected NodeID = -1 // 端子未连接标记
)

// 实例内部局部编号使用的哨兵
const (
	GroundSentinel uint32 = math.MaxUint32 // 局部编号中的地
	NoOffset       uint32 = math.MaxUint32 // 描述符中未声明的偏移
)

// CToK 摄氏度到开尔文
const CToK = 273.15

// 默认参数常量定义
var (
	DefaultTemp   = 27 + CToK // 电路温度(K)
	DefaultTnom   = 27 + CToK // 标称温度(K)
	DefaultGmin   = 1e-12     // 最小电导
	DefaultAbstol = 1e-12     // 电流绝对容差
	DefaultReltol = 1e-3      // 相对容差
	DefaultVntol  = 1e-6      // 电压绝对容差
	DefaultScale  = 1.0       // 源缩放因子
)
