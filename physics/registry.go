package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/rigidsync/native"
)

// Object is a singly rendered object driven by one body.
type Object interface {
	// LocalMatrix returns the object's column-major local transform.
	LocalMatrix() *mgl32.Mat4
	// SetPose assigns position and orientation directly.
	SetPose(position mgl32.Vec3, rotation mgl32.Quat)
}

// BodyRecord ties a render object to the body that moves it.
type BodyRecord struct {
	Object  Object
	Body    native.BodyID
	Offset  native.Offset
	Dynamic bool
}

// InstanceBuffer is a render object whose instances share one flat buffer
// of Count()*16 floats.
type InstanceBuffer interface {
	Count() int
	InstanceMatrices() []float32
	MarkDirty()
}

// GroupID names an instance group within one World.
type GroupID int

// InstanceGroup is a set of bodies rendered through one InstanceBuffer.
// Body i drives instance slot i. Slots past the last bound body belong to
// the render side and are never written.
type InstanceGroup struct {
	Buffer InstanceBuffer
	Bodies []native.BodyID

	offsets []native.Offset
	scratch []float32
}

// Scratch returns the group's reusable staging buffer.
func (g *InstanceGroup) Scratch() []float32 {
	return g.scratch
}

func (g *InstanceGroup) ensureScratch() {
	if g.scratch != nil {
		return
	}
	g.scratch = make([]float32, g.Buffer.Count()*blockFloats)
}

func (g *InstanceGroup) sync(store TransformStore) {
	if len(g.Bodies) == 0 {
		return
	}
	g.ensureScratch()
	for i, off := range g.offsets {
		store.ReadInto(off, g.scratch[i*blockFloats:(i+1)*blockFloats])
	}
	n := len(g.offsets) * blockFloats
	copy(g.Buffer.InstanceMatrices()[:n], g.scratch[:n])
	g.Buffer.MarkDirty()
}
