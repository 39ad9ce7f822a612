package blob

// Layout 顺序分配字段偏移, 供插件生成描述符时使用
type Layout struct{ size uint32 }

func (l *Layout) align(n uint32) {
	if r := l.size % n; r != 0 {
		l.size += n - r
	}
}

// U32 分配n个uint32
func (l *Layout) U32(n uint32) U32Array {
	l.align(4)
	a := U32Array{Off: l.size, Len: n}
	l.size += 4 * n
	return a
}

// Bools 分配n个逻辑值
func (l *Layout) Bools(n uint32) BoolArray {
	a := BoolArray{Off: l.size, Len: n}
	l.size += n
	return a
}

// Ptrs 分配n个指针
func (l *Layout) Ptrs(n uint32) PtrArray {
	l.align(PtrSize)
	a := PtrArray{Off: l.size, Len: n}
	l.size += PtrSize * n
	return a
}

// F64 分配一个浮点数
func (l *Layout) F64() F64 {
	l.align(8)
	f := F64{Off: l.size}
	l.size += 8
	return f
}

// Size 总大小, 按指针宽度补齐
func (l *Layout) Size() uint32 {
	l.align(PtrSize)
	return l.size
}
