package native

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
)

// ShapeKind identifies a collision shape.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
	ShapeCylinder
	ShapeConvexHull
	ShapeMesh
	ShapeHeightField
)

// DefaultMaterial is assigned to every new shape.
var DefaultMaterial = Material{Friction: 0.5, Restitution: 0}

// segment radius used for mesh and height field edges
const meshSkin = 0.02

type shape struct {
	kind        ShapeKind
	halfExtents mgl32.Vec3
	radius      float32
	halfHeight  float32
	points      []mgl32.Vec3
	indices     []uint32
	heights     []float32
	spacing     float32

	material Material
	users    int
	released bool
}

func (m *Module) addShape(s *shape) ShapeID {
	s.material = DefaultMaterial
	id := m.newShapeID()
	m.shapes[id-1] = s
	return id
}

// CreateBox creates a box shape from its half extents.
func (m *Module) CreateBox(halfExtents mgl32.Vec3) ShapeID {
	return m.addShape(&shape{kind: ShapeBox, halfExtents: halfExtents})
}

// CreateSphere creates a sphere shape.
func (m *Module) CreateSphere(radius float32) ShapeID {
	return m.addShape(&shape{kind: ShapeSphere, radius: radius})
}

// CreateCapsule creates a Y-aligned capsule.
func (m *Module) CreateCapsule(halfHeight, radius float32) ShapeID {
	return m.addShape(&shape{kind: ShapeCapsule, halfHeight: halfHeight, radius: radius})
}

// CreateCylinder creates a Y-aligned cylinder.
func (m *Module) CreateCylinder(halfHeight, radius float32) ShapeID {
	return m.addShape(&shape{kind: ShapeCylinder, halfHeight: halfHeight, radius: radius})
}

// CreateConvexHull creates the convex hull of points.
func (m *Module) CreateConvexHull(points []mgl32.Vec3) ShapeID {
	pts := append([]mgl32.Vec3(nil), points...)
	return m.addShape(&shape{kind: ShapeConvexHull, points: pts})
}

// CreateMesh creates a triangle mesh. Meshes are meant for static bodies.
func (m *Module) CreateMesh(vertices []mgl32.Vec3, indices []uint32) ShapeID {
	return m.addShape(&shape{
		kind:    ShapeMesh,
		points:  append([]mgl32.Vec3(nil), vertices...),
		indices: append([]uint32(nil), indices...),
	})
}

// CreateHeightField creates a height field sampled along X, centred on the
// body origin.
func (m *Module) CreateHeightField(heights []float32, spacing float32) ShapeID {
	return m.addShape(&shape{
		kind:    ShapeHeightField,
		heights: append([]float32(nil), heights...),
		spacing: spacing,
	})
}

// Material returns a copy of the shape's material block.
func (m *Module) Material(id ShapeID) Material {
	return m.shape(id).material
}

// SetMaterial replaces the shape's material block and pushes it to every
// body using the shape.
func (m *Module) SetMaterial(id ShapeID, mat Material) {
	s := m.shape(id)
	s.material = mat
	for _, b := range m.bodies {
		if b == nil || b.shape != id {
			continue
		}
		for _, cs := range b.cpShapes {
			cs.SetFriction(float64(mat.Friction))
			cs.SetElasticity(float64(mat.Restitution))
		}
	}
}

// ReleaseShape frees the shape once no body references it.
func (m *Module) ReleaseShape(id ShapeID) {
	s := m.shape(id)
	s.released = true
	if s.users == 0 {
		m.freeShape(id)
	}
}

func (m *Module) freeShape(id ShapeID) {
	m.shapes[id-1] = nil
	m.freeShapes = append(m.freeShapes, id)
}

// ShapeKind reports what kind of shape id names.
func (m *Module) ShapeKind(id ShapeID) ShapeKind {
	return m.shape(id).kind
}

func (s *shape) build(body *cp.Body) []*cp.Shape {
	switch s.kind {
	case ShapeBox:
		return []*cp.Shape{cp.NewBox(body, float64(2*s.halfExtents.X()), float64(2*s.halfExtents.Y()), 0)}
	case ShapeSphere:
		return []*cp.Shape{cp.NewCircle(body, float64(s.radius), cp.Vector{})}
	case ShapeCapsule:
		a, b := s.capsuleEnds()
		return []*cp.Shape{cp.NewSegment(body, a, b, float64(s.radius))}
	case ShapeCylinder:
		return []*cp.Shape{cp.NewBox(body, float64(2*s.radius), float64(2*s.halfHeight), 0)}
	case ShapeConvexHull:
		verts := hull2D(s.points)
		return []*cp.Shape{cp.NewPolyShapeRaw(body, len(verts), verts, 0)}
	case ShapeMesh:
		out := make([]*cp.Shape, 0, len(s.indices))
		for i := 0; i+2 < len(s.indices); i += 3 {
			tri := [3]mgl32.Vec3{s.points[s.indices[i]], s.points[s.indices[i+1]], s.points[s.indices[i+2]]}
			for j := 0; j < 3; j++ {
				a, b := tri[j], tri[(j+1)%3]
				out = append(out, cp.NewSegment(body, vec2(a), vec2(b), meshSkin))
			}
		}
		return out
	case ShapeHeightField:
		pts := s.heightPoints()
		out := make([]*cp.Shape, 0, len(pts))
		for i := 0; i+1 < len(pts); i++ {
			out = append(out, cp.NewSegment(body, pts[i], pts[i+1], meshSkin))
		}
		return out
	}
	return nil
}

func (s *shape) capsuleEnds() (cp.Vector, cp.Vector) {
	return cp.Vector{Y: float64(-s.halfHeight)}, cp.Vector{Y: float64(s.halfHeight)}
}

func (s *shape) heightPoints() []cp.Vector {
	n := len(s.heights)
	pts := make([]cp.Vector, n)
	mid := float64(n-1) / 2
	for i, h := range s.heights {
		pts[i] = cp.Vector{X: (float64(i) - mid) * float64(s.spacing), Y: float64(h)}
	}
	return pts
}

// area of the XY profile, used with a density to derive mass.
func (s *shape) area() float64 {
	switch s.kind {
	case ShapeBox:
		return float64(4 * s.halfExtents.X() * s.halfExtents.Y())
	case ShapeSphere:
		return math.Pi * float64(s.radius*s.radius)
	case ShapeCapsule:
		r := float64(s.radius)
		return 4*float64(s.halfHeight)*r + math.Pi*r*r
	case ShapeCylinder:
		return float64(4 * s.radius * s.halfHeight)
	case ShapeConvexHull:
		return polyArea(hull2D(s.points))
	}
	hw, hh := s.bounds()
	return 4 * hw * hh
}

func (s *shape) moment(mass float64) float64 {
	switch s.kind {
	case ShapeBox:
		return cp.MomentForBox(mass, float64(2*s.halfExtents.X()), float64(2*s.halfExtents.Y()))
	case ShapeSphere:
		return cp.MomentForCircle(mass, 0, float64(s.radius), cp.Vector{})
	case ShapeCapsule:
		a, b := s.capsuleEnds()
		return cp.MomentForSegment(mass, a, b, float64(s.radius))
	case ShapeCylinder:
		return cp.MomentForBox(mass, float64(2*s.radius), float64(2*s.halfHeight))
	case ShapeConvexHull:
		verts := hull2D(s.points)
		return cp.MomentForPoly(mass, len(verts), verts, cp.Vector{}, 0)
	}
	hw, hh := s.bounds()
	return cp.MomentForBox(mass, 2*hw, 2*hh)
}

// bounds returns the half width and half height of the XY profile.
func (s *shape) bounds() (float64, float64) {
	var pts []cp.Vector
	switch s.kind {
	case ShapeBox:
		return float64(s.halfExtents.X()), float64(s.halfExtents.Y())
	case ShapeSphere:
		return float64(s.radius), float64(s.radius)
	case ShapeCapsule:
		return float64(s.radius), float64(s.halfHeight + s.radius)
	case ShapeCylinder:
		return float64(s.radius), float64(s.halfHeight)
	case ShapeHeightField:
		pts = s.heightPoints()
	default:
		for _, p := range s.points {
			pts = append(pts, vec2(p))
		}
	}
	var hw, hh float64
	for _, p := range pts {
		hw = math.Max(hw, math.Abs(p.X))
		hh = math.Max(hh, math.Abs(p.Y))
	}
	if hw == 0 {
		hw = meshSkin
	}
	if hh == 0 {
		hh = meshSkin
	}
	return hw, hh
}

func vec2(v mgl32.Vec3) cp.Vector {
	return cp.Vector{X: float64(v.X()), Y: float64(v.Y())}
}

// hull2D projects points onto XY and returns their convex hull in
// counter-clockwise order.
func hull2D(points []mgl32.Vec3) []cp.Vector {
	if len(points) == 0 {
		return nil
	}
	verts := make([]cp.Vector, len(points))
	for i, p := range points {
		verts[i] = vec2(p)
	}
	n := cp.ConvexHull(len(verts), verts, nil, 0)
	return verts[:n]
}

func polyArea(verts []cp.Vector) float64 {
	if len(verts) < 3 {
		return 0
	}
	return math.Abs(cp.AreaForPoly(len(verts), verts, 0))
}
