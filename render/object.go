package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Object3D is a positioned node in a scene. When MatrixAutoUpdate is false
// Matrix is authoritative and Position/Quaternion/Scale are informational.
type Object3D struct {
	Name             string
	Position         mgl32.Vec3
	Quaternion       mgl32.Quat
	Scale            mgl32.Vec3
	Matrix           mgl32.Mat4
	MatrixAutoUpdate bool
	Visible          bool
}

func newObject3D(name string) Object3D {
	return Object3D{
		Name:             name,
		Quaternion:       mgl32.QuatIdent(),
		Scale:            mgl32.Vec3{1, 1, 1},
		Matrix:           mgl32.Ident4(),
		MatrixAutoUpdate: true,
		Visible:          true,
	}
}

// LocalMatrix returns the local transform for direct writes.
func (o *Object3D) LocalMatrix() *mgl32.Mat4 {
	return &o.Matrix
}

// SetPose assigns position and orientation.
func (o *Object3D) SetPose(position mgl32.Vec3, rotation mgl32.Quat) {
	o.Position = position
	o.Quaternion = rotation
}

// UpdateMatrix recomposes Matrix from Position, Quaternion and Scale.
func (o *Object3D) UpdateMatrix() {
	o.Matrix = compose(o.Position, o.Quaternion, o.Scale)
}

// WorldMatrix returns the matrix used for drawing.
func (o *Object3D) WorldMatrix() mgl32.Mat4 {
	if o.MatrixAutoUpdate {
		o.UpdateMatrix()
	}
	return o.Matrix
}

func compose(p mgl32.Vec3, q mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(p.X(), p.Y(), p.Z()).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// Mesh is a single drawable object.
type Mesh struct {
	Object3D
	Geometry Geometry
	Color    color.NRGBA
}

// NewMesh creates a mesh at the origin.
func NewMesh(name string, g Geometry, c color.NRGBA) *Mesh {
	return &Mesh{Object3D: newObject3D(name), Geometry: g, Color: c}
}

// InstanceBuffer is a flat float buffer uploaded as one unit.
type InstanceBuffer struct {
	Array       []float32
	NeedsUpdate bool
	Version     int
}

// InstancedMesh draws one geometry many times, one matrix per instance.
type InstancedMesh struct {
	Object3D
	Geometry       Geometry
	Color          color.NRGBA
	InstanceMatrix *InstanceBuffer

	count int
}

// NewInstancedMesh creates count instances, all at the identity.
func NewInstancedMesh(name string, g Geometry, c color.NRGBA, count int) *InstancedMesh {
	buf := &InstanceBuffer{Array: make([]float32, count*16)}
	id := mgl32.Ident4()
	for i := 0; i < count; i++ {
		copy(buf.Array[i*16:(i+1)*16], id[:])
	}
	return &InstancedMesh{
		Object3D:       newObject3D(name),
		Geometry:       g,
		Color:          c,
		InstanceMatrix: buf,
		count:          count,
	}
}

// Count returns the number of instances.
func (m *InstancedMesh) Count() int {
	return m.count
}

// InstanceMatrices returns the shared instance buffer.
func (m *InstancedMesh) InstanceMatrices() []float32 {
	return m.InstanceMatrix.Array
}

// MarkDirty flags the instance buffer for upload.
func (m *InstancedMesh) MarkDirty() {
	m.InstanceMatrix.NeedsUpdate = true
	m.InstanceMatrix.Version++
}

// MatrixAt returns instance i's matrix.
func (m *InstancedMesh) MatrixAt(i int) mgl32.Mat4 {
	var out mgl32.Mat4
	copy(out[:], m.InstanceMatrix.Array[i*16:(i+1)*16])
	return out
}

// SetMatrixAt overwrites instance i's matrix.
func (m *InstancedMesh) SetMatrixAt(i int, mat mgl32.Mat4) {
	copy(m.InstanceMatrix.Array[i*16:(i+1)*16], mat[:])
}
