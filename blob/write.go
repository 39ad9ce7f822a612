package blob

import (
	"encoding/binary"
	"math"
)

// Write 顺序写
type Write struct {
	Byte   []byte
	Offset int
	Order  binary.ByteOrder
	Error  error
}

// CheckBounds 检查边界
func (w *Write) CheckBounds(required int) error {
	if w.Offset < 0 || w.Offset+required > len(w.Byte) {
		return ErrOutOfBounds
	}
	return nil
}

// Bool 逻辑型
func (w *Write) Bool(v bool) {
	if err := w.CheckBounds(1); err != nil {
		w.Error = err
		return
	}
	w.Byte[w.Offset] = 0
	if v {
		w.Byte[w.Offset] = 1
	}
	w.Offset++
}

// Uint32 四字节正整数
func (w *Write) Uint32(v uint32) {
	if err := w.CheckBounds(4); err != nil {
		w.Error = err
		return
	}
	w.Order.PutUint32(w.Byte[w.Offset:], v)
	w.Offset += 4
}

// Uint64 八字节正整数
func (w *Write) Uint64(v uint64) {
	if err := w.CheckBounds(8); err != nil {
		w.Error = err
		return
	}
	w.Order.PutUint64(w.Byte[w.Offset:], v)
	w.Offset += 8
}

// Float64 浮点数
func (w *Write) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

// Zero 清零n个字节
func (w *Write) Zero(n int) {
	if err := w.CheckBounds(n); err != nil {
		w.Error = err
		return
	}
	clear(w.Byte[w.Offset : w.Offset+n])
	w.Offset += n
}
