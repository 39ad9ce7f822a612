package blob

import "fmt"

// U32Array uint32 数组字段
type U32Array struct{ Off, Len uint32 }

// Check 注册期校验
func (a U32Array) Check(size uint32) error {
	if a.Off%4 != 0 {
		return fmt.Errorf("u32 array at %d: %w", a.Off, ErrMisaligned)
	}
	return checkRange("u32 array", uint64(a.Off), 4*uint64(a.Len), size)
}

// Get 读取第i项
func (a U32Array) Get(b *Blob, i uint32) uint32 {
	if i >= a.Len {
		panic("u32 index out of range")
	}
	return b.Reader(a.Off + 4*i).Uint32()
}

// Set 写入第i项
func (a U32Array) Set(b *Blob, i, v uint32) {
	if i >= a.Len {
		panic("u32 index out of range")
	}
	b.Writer(a.Off + 4*i).Uint32(v)
}

// Slice 复制全部内容
func (a U32Array) Slice(b *Blob) []uint32 {
	r := b.Reader(a.Off)
	v := make([]uint32, a.Len)
	for i := range v {
		v[i] = r.Uint32()
	}
	return v
}

// BoolArray 单字节逻辑数组字段
type BoolArray struct{ Off, Len uint32 }

// Check 注册期校验
func (a BoolArray) Check(size uint32) error {
	return checkRange("bool array", uint64(a.Off), uint64(a.Len), size)
}

// Get 读取第i项
func (a BoolArray) Get(b *Blob, i uint32) bool {
	if i >= a.Len {
		panic("bool index out of range")
	}
	return b.Reader(a.Off + i).Bool()
}

// Set 写入第i项
func (a BoolArray) Set(b *Blob, i uint32, v bool) {
	if i >= a.Len {
		panic("bool index out of range")
	}
	b.Writer(a.Off + i).Bool(v)
}

// Clear 全部置假
func (a BoolArray) Clear(b *Blob) {
	b.Writer(a.Off).Zero(int(a.Len))
}

// PtrArray 指针数组字段
type PtrArray struct{ Off, Len uint32 }

// PtrField 单个指针字段
func PtrField(off uint32) PtrArray { return PtrArray{Off: off, Len: 1} }

// Check 注册期校验
func (a PtrArray) Check(size uint32) error {
	if a.Off%PtrSize != 0 {
		return fmt.Errorf("pointer field at %d: %w", a.Off, ErrMisaligned)
	}
	return checkRange("pointer array", uint64(a.Off), PtrSize*uint64(a.Len), size)
}

// Get 读取第i项
func (a PtrArray) Get(b *Blob, i uint32) *float64 {
	if i >= a.Len {
		panic("pointer index out of range")
	}
	return b.Ptrs[a.Off/PtrSize+i]
}

// Set 写入第i项
func (a PtrArray) Set(b *Blob, i uint32, p *float64) {
	if i >= a.Len {
		panic("pointer index out of range")
	}
	b.Ptrs[a.Off/PtrSize+i] = p
}

// F64 浮点字段
type F64 struct{ Off uint32 }

// Check 注册期校验
func (f F64) Check(size uint32) error {
	if f.Off%8 != 0 {
		return fmt.Errorf("f64 field at %d: %w", f.Off, ErrMisaligned)
	}
	return checkRange("f64 field", uint64(f.Off), 8, size)
}

// Get 读取
func (f F64) Get(b *Blob) float64 { return b.Reader(f.Off).Float64() }

// Set 写入
func (f F64) Set(b *Blob, v float64) { b.Writer(f.Off).Float64(v) }
