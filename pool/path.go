// Package pool provides sync.Pool wrappers for reducing GC pressure during
// element-id and path construction.
package pool

import (
	"strconv"
	"sync"
)

// PathBuilder builds element ids and dotted paths without intermediate
// string allocations. Instances are reused via sync.Pool.
type PathBuilder struct {
	buf []byte
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 256),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 4096 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the built path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends a string.
func (b *PathBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte.
func (b *PathBuilder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// AppendSegment appends a path segment with a leading dot when the buffer is
// not empty.
func (b *PathBuilder) AppendSegment(segment string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, segment...)
}

// AppendSlice appends a :sliceName marker to the current segment.
func (b *PathBuilder) AppendSlice(name string) {
	b.buf = append(b.buf, ':')
	b.buf = append(b.buf, name...)
}

// AppendIndex appends a bracketed numeric index [n].
func (b *PathBuilder) AppendIndex(index int) {
	b.buf = append(b.buf, '[')
	b.buf = strconv.AppendInt(b.buf, int64(index), 10)
	b.buf = append(b.buf, ']')
}

// String returns the built path. This is the single allocation.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// JoinPath joins path segments with dots.
func JoinPath(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 {
		return segments[0]
	}

	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, segment := range segments {
		pb.AppendSegment(segment)
	}
	return pb.String()
}
