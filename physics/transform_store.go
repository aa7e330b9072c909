package physics

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/rigidsync/native"
)

const blockFloats = 16

// TransformStore reinterprets the engine heap as 4x4 float32 transform
// blocks addressed by byte offset. A store is only valid for the frame it
// was built in: the heap may be reallocated by any later engine call.
type TransformStore struct {
	words []float32
}

// NewTransformStore wraps mem without copying it.
func NewTransformStore(mem []byte) TransformStore {
	if len(mem) < 4 {
		return TransformStore{}
	}
	return TransformStore{
		words: unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(mem))), len(mem)/4),
	}
}

// Read returns the block at off.
func (s TransformStore) Read(off native.Offset) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], s.block(off))
	return m
}

// ReadInto copies the block at off into dst, which must hold 16 floats.
func (s TransformStore) ReadInto(off native.Offset, dst []float32) {
	copy(dst[:blockFloats], s.block(off))
}

// Write overwrites the block at off.
func (s TransformStore) Write(off native.Offset, m mgl32.Mat4) {
	copy(s.block(off), m[:])
}

func (s TransformStore) block(off native.Offset) []float32 {
	i := int(off) / 4
	return s.words[i : i+blockFloats]
}

// copyAffine copies the 3x4 affine part of src into dst. The bottom
// (homogeneous) row of dst is left alone.
func copyAffine(dst, src *mgl32.Mat4) {
	for col := 0; col < 4; col++ {
		for row := 0; row < 3; row++ {
			dst[col*4+row] = src[col*4+row]
		}
	}
}
