package native

import (
	"log"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockSize is the size in bytes of one 4x4 float32 transform block.
const BlockSize = 16 * 4

// Heap is the engine's linear memory. Transform blocks are handed out as
// byte offsets. Growing the heap reallocates the backing array, so any byte
// view taken before an allocation may be stale afterwards.
type Heap struct {
	words []float32
	top   Offset
	free  []Offset
	grows int
}

func newHeap(blocks int) *Heap {
	h := &Heap{words: make([]float32, blocks*16)}
	// block 0 is reserved so a zero offset is never valid
	h.top = BlockSize
	return h
}

// Len returns the heap size in bytes.
func (h *Heap) Len() int {
	return len(h.words) * 4
}

// Grows reports how many times the heap has been reallocated.
func (h *Heap) Grows() int {
	return h.grows
}

// Bytes returns the current backing memory. The slice is only valid until
// the next allocation.
func (h *Heap) Bytes() []byte {
	if len(h.words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&h.words[0])), len(h.words)*4)
}

func (h *Heap) alloc() Offset {
	if n := len(h.free); n > 0 {
		off := h.free[n-1]
		h.free = h.free[:n-1]
		h.store(off, mgl32.Ident4())
		return off
	}
	for int(h.top)+BlockSize > h.Len() {
		h.grow()
	}
	off := h.top
	h.top += BlockSize
	h.store(off, mgl32.Ident4())
	return off
}

func (h *Heap) release(off Offset) {
	if off == 0 || off%BlockSize != 0 || int(off) >= int(h.top) {
		return
	}
	h.store(off, mgl32.Mat4{})
	h.free = append(h.free, off)
}

func (h *Heap) grow() {
	size := len(h.words) * 2
	if size < 2*16 {
		size = 2 * 16
	}
	words := make([]float32, size)
	copy(words, h.words)
	log.Printf("native: heap grown %d -> %d bytes", h.Len(), size*4)
	h.words = words
	h.grows++
}

func (h *Heap) store(off Offset, m mgl32.Mat4) {
	i := int(off) / 4
	copy(h.words[i:i+16], m[:])
}

func (h *Heap) load(off Offset) mgl32.Mat4 {
	var m mgl32.Mat4
	i := int(off) / 4
	copy(m[:], h.words[i:i+16])
	return m
}
