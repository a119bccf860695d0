package util

import "unsafe"

// ByteBuffer is a fixed-size raw buffer with offset-addressed typed
// access. All row/column stride math lands here so callers never do
// unchecked pointer arithmetic themselves.
type ByteBuffer struct {
	data []byte
}

func NewByteBuffer(size int) *ByteBuffer {
	AssertFunc(size > 0)
	return &ByteBuffer{data: make([]byte, size)}
}

func (buf *ByteBuffer) Size() int {
	return len(buf.data)
}

func (buf *ByteBuffer) Bytes() []byte {
	return buf.data
}

func (buf *ByteBuffer) Ptr() unsafe.Pointer {
	return BytesSliceToPointer(buf.data)
}

// PtrAt returns a pointer to offset off. A read or write of width bytes
// starting there must stay inside the buffer.
func (buf *ByteBuffer) PtrAt(off, width int) unsafe.Pointer {
	AssertFunc(off >= 0 && off+width <= len(buf.data))
	return PointerAdd(buf.Ptr(), off)
}

func (buf *ByteBuffer) Fill(val byte) {
	for i := range buf.data {
		buf.data[i] = val
	}
}

func BufLoad[T any](buf *ByteBuffer, off int) T {
	var zero T
	return Load[T](buf.PtrAt(off, int(unsafe.Sizeof(zero))))
}
