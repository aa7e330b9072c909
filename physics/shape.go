package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/rigidsync/native"
)

// ShapeDesc describes a collision shape to create alongside a body.
type ShapeDesc struct {
	Kind        native.ShapeKind
	HalfExtents mgl32.Vec3
	Radius      float32
	HalfHeight  float32
	Points      []mgl32.Vec3
	Indices     []uint32
	Heights     []float32
	Spacing     float32
}

func Box(halfExtents mgl32.Vec3) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeBox, HalfExtents: halfExtents}
}

func Sphere(radius float32) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeSphere, Radius: radius}
}

func Capsule(halfHeight, radius float32) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeCapsule, HalfHeight: halfHeight, Radius: radius}
}

func Cylinder(halfHeight, radius float32) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeCylinder, HalfHeight: halfHeight, Radius: radius}
}

func ConvexHull(points []mgl32.Vec3) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeConvexHull, Points: points}
}

func Mesh(vertices []mgl32.Vec3, indices []uint32) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeMesh, Points: vertices, Indices: indices}
}

func HeightField(heights []float32, spacing float32) ShapeDesc {
	return ShapeDesc{Kind: native.ShapeHeightField, Heights: heights, Spacing: spacing}
}

func (d ShapeDesc) create(m *native.Module) native.ShapeID {
	switch d.Kind {
	case native.ShapeSphere:
		return m.CreateSphere(d.Radius)
	case native.ShapeCapsule:
		return m.CreateCapsule(d.HalfHeight, d.Radius)
	case native.ShapeCylinder:
		return m.CreateCylinder(d.HalfHeight, d.Radius)
	case native.ShapeConvexHull:
		return m.CreateConvexHull(d.Points)
	case native.ShapeMesh:
		return m.CreateMesh(d.Points, d.Indices)
	case native.ShapeHeightField:
		return m.CreateHeightField(d.Heights, d.Spacing)
	default:
		return m.CreateBox(d.HalfExtents)
	}
}
