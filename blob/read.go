package blob

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrOutOfBounds = errors.New("blob offset out of bounds")
	ErrMisaligned  = errors.New("blob field misaligned")
)

// Order 实例内存使用本机字节序, 与插件共享
var Order binary.ByteOrder = binary.NativeEndian

// Read 顺序读
type Read struct {
	Byte   []byte
	Offset int
	Order  binary.ByteOrder
	Error  error
}

// CheckBounds 检查边界
func (r *Read) CheckBounds(required int) error {
	switch {
	case r.Offset < 0:
		return ErrOutOfBounds
	case r.Offset+required > len(r.Byte):
		return ErrOutOfBounds
	}
	return nil
}

// Bool 逻辑型
func (r *Read) Bool() (v bool) {
	if err := r.CheckBounds(1); err != nil {
		r.Error = err
		return false
	}
	v = r.Byte[r.Offset] != 0
	r.Offset++
	return v
}

// Uint8 单字节正整数
func (r *Read) Uint8() (v uint8) {
	if err := r.CheckBounds(1); err != nil {
		r.Error = err
		return 0
	}
	v = r.Byte[r.Offset]
	r.Offset++
	return v
}

// Int32 四字节整数
func (r *Read) Int32() (v int32) {
	return int32(r.Uint32())
}

// Uint32 四字节正整数
func (r *Read) Uint32() (v uint32) {
	if err := r.CheckBounds(4); err != nil {
		r.Error = err
		return 0
	}
	v = r.Order.Uint32(r.Byte[r.Offset:])
	r.Offset += 4
	return v
}

// Uint64 八字节正整数
func (r *Read) Uint64() (v uint64) {
	if err := r.CheckBounds(8); err != nil {
		r.Error = err
		return 0
	}
	v = r.Order.Uint64(r.Byte[r.Offset:])
	r.Offset += 8
	return v
}

// Float64 浮点数
func (r *Read) Float64() (v float64) {
	return math.Float64frombits(r.Uint64())
}
