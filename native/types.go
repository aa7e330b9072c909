package native

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BodyID is an opaque body handle. The zero value never names a body.
type BodyID uint32

// ShapeID is an opaque shape handle. The zero value never names a shape.
type ShapeID uint32

// Offset is a byte offset into the engine heap.
type Offset uint32

const (
	InvalidBody  BodyID  = 0
	InvalidShape ShapeID = 0
)

// MotionType controls how the solver treats a body.
type MotionType int

const (
	Static MotionType = iota
	Kinematic
	Dynamic
)

func (m MotionType) String() string {
	switch m {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("MotionType(%d)", int(m))
	}
}

// QTransform is a position + orientation pair.
type QTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// Material is the per-shape surface property block.
type Material struct {
	Friction     float32
	Restitution  float32
	DensityIndex int
}

// MassProperties is the per-body mass block. Inertia is about the Z axis;
// zero means derive it from the shape.
type MassProperties struct {
	Mass    float32
	Inertia float32
}

// Damping is applied per second on top of the world's damping.
type Damping struct {
	Linear  float32
	Angular float32
}

// BodySettings describes a body at creation time.
type BodySettings struct {
	Shape    ShapeID
	Pose     QTransform
	Motion   MotionType
	Mass     float32
	Damping  Damping
	UserData uint64
}

// densities indexed by Material.DensityIndex, used when a dynamic body is
// created without an explicit mass.
var densities = [...]float32{1, 0.25, 2.5, 7.8}

func densityFor(idx int) float32 {
	if idx < 0 || idx >= len(densities) {
		return densities[0]
	}
	return densities[idx]
}
