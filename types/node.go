package types

import "fmt"

// NodeID 电路全局节点编号, 0 为地
type NodeID int

// IsGnd 是否为地
func (n NodeID) IsGnd() bool { return n == Gnd }

// String 节点名
func (n NodeID) String() string {
	switch n {
	case Gnd:
		return "gnd"
	case Unconnected:
		return "nc"
	}
	return fmt.Sprintf("n%d", int(n))
}
