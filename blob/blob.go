// Package blob 描述插件与模拟器共享的实例内存.
//
// 内存结构只由描述符中的偏移量定义, 字段在注册时统一校验,
// 运行时通过 U32Array / BoolArray / PtrArray / F64 访问.
// 指针字段不落在字节区中, 而是保存在按相同偏移寻址的指针区,
// 以便垃圾回收器能看到矩阵元素的引用.
package blob

import "fmt"

// PtrSize 指针字段宽度, 指针字段必须按此对齐
const PtrSize = 8

// Blob 不透明的实例/模型内存
type Blob struct {
	Data []byte     // 标量字段
	Ptrs []*float64 // 指针字段, 下标为 偏移/PtrSize
}

// New 创建指定大小的内存块
func New(size uint32) *Blob {
	return &Blob{
		Data: make([]byte, size),
		Ptrs: make([]*float64, (size+PtrSize-1)/PtrSize),
	}
}

// Size 内存大小
func (b *Blob) Size() uint32 { return uint32(len(b.Data)) }

// Reader 从偏移处读
func (b *Blob) Reader(off uint32) *Read {
	return &Read{Byte: b.Data, Offset: int(off), Order: Order}
}

// Writer 从偏移处写
func (b *Blob) Writer(off uint32) *Write {
	return &Write{Byte: b.Data, Offset: int(off), Order: Order}
}

// Reset 清空全部字段
func (b *Blob) Reset() {
	clear(b.Data)
	clear(b.Ptrs)
}

// checkRange 检查 [off, off+n) 是否落在 size 内
func checkRange(name string, off, n uint64, size uint32) error {
	if off+n > uint64(size) {
		return fmt.Errorf("%s [%d,+%d) exceeds %d bytes: %w", name, off, n, size, ErrOutOfBounds)
	}
	return nil
}
