package pool

import "sync"

// DefaultBufferSize is the initial capacity of pooled buffers.
const DefaultBufferSize = 64 * 1024

// maxPooledBufferSize bounds what is returned to the pool so one huge
// record does not pin memory for the rest of the run.
const maxPooledBufferSize = 16 << 20

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, DefaultBufferSize)
		return &b
	},
}

// GetBuffer returns an empty buffer from the pool.
func GetBuffer() *[]byte {
	b := bufferPool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(b *[]byte) {
	if b == nil || cap(*b) > maxPooledBufferSize {
		return
	}
	bufferPool.Put(b)
}
