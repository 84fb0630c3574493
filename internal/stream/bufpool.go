package stream

import (
	"sync"
)

// Reassembly buffers come in three size classes. A direction starts with no
// buffer, grows through the classes as records get larger and returns its
// buffer on desync and Close. Sizes above the largest class are allocated
// directly and left to the GC.
//
// Typical NFS traffic:
//   - control calls and replies (GETATTR, LOOKUP, ACCESS, ...) fit in 4KiB
//   - READDIRPLUS replies usually fit in 64KiB
//   - READ/WRITE records follow the negotiated rsize/wsize, up to 1MiB
const (
	smallBufferSize  = 4 << 10
	mediumBufferSize = 64 << 10
	largeBufferSize  = 1 << 20
)

type sizeClass struct {
	size int
	pool sync.Pool
}

func newSizeClass(size int) *sizeClass {
	c := &sizeClass{size: size}
	c.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return c
}

// bufferPool hands out reassembly buffers by size class. Safe for
// concurrent use by any number of sessions.
type bufferPool struct {
	classes []*sizeClass
}

var reassemblyPool = &bufferPool{
	classes: []*sizeClass{
		newSizeClass(smallBufferSize),
		newSizeClass(mediumBufferSize),
		newSizeClass(largeBufferSize),
	},
}

// get returns a buffer with len(buf) == size, backed by the smallest class
// that fits.
func (p *bufferPool) get(size uint32) []byte {
	for _, c := range p.classes {
		if uint64(size) <= uint64(c.size) {
			buf := *c.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// put returns buf to the class matching its capacity. Buffers of any other
// capacity are dropped.
func (p *bufferPool) put(buf []byte) {
	if buf == nil {
		return
	}
	for _, c := range p.classes {
		if cap(buf) == c.size {
			full := buf[:c.size]
			c.pool.Put(&full)
			return
		}
	}
}

func getBuffer(size uint32) []byte {
	return reassemblyPool.get(size)
}

func putBuffer(buf []byte) {
	reassemblyPool.put(buf)
}

// growBuffer returns a buffer able to hold need bytes with the first n bytes
// of buf preserved. buf goes back to the pool when it is replaced.
func growBuffer(buf []byte, n int, need uint32) []byte {
	if uint64(cap(buf)) >= uint64(need) {
		return buf[:cap(buf)]
	}
	size := need
	if c := uint32(cap(buf)) * 2; c > size {
		size = c
	}
	nb := getBuffer(size)
	nb = nb[:cap(nb)]
	copy(nb, buf[:n])
	putBuffer(buf)
	return nb
}
