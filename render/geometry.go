package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Edge is a wireframe line in local space.
type Edge [2]mgl32.Vec3

// Geometry provides the wireframe of a shape.
type Geometry interface {
	Edges() []Edge
}

// BoxGeometry is an axis aligned box centred on the origin.
type BoxGeometry struct {
	Width, Height, Depth float32
	edges                []Edge
}

func NewBoxGeometry(width, height, depth float32) *BoxGeometry {
	return &BoxGeometry{Width: width, Height: height, Depth: depth}
}

func (g *BoxGeometry) Edges() []Edge {
	if g.edges != nil {
		return g.edges
	}
	hx, hy, hz := g.Width/2, g.Height/2, g.Depth/2
	c := [8]mgl32.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}
	for i := 0; i < 4; i++ {
		g.edges = append(g.edges,
			Edge{c[i], c[(i+1)%4]},
			Edge{c[i+4], c[(i+1)%4+4]},
			Edge{c[i], c[i+4]},
		)
	}
	return g.edges
}

// SphereGeometry is drawn as three great circles.
type SphereGeometry struct {
	Radius   float32
	Segments int
	edges    []Edge
}

func NewSphereGeometry(radius float32, segments int) *SphereGeometry {
	if segments < 3 {
		segments = 3
	}
	return &SphereGeometry{Radius: radius, Segments: segments}
}

func (g *SphereGeometry) Edges() []Edge {
	if g.edges != nil {
		return g.edges
	}
	r := g.Radius
	point := func(axis, i int) mgl32.Vec3 {
		th := 2 * math.Pi * float64(i) / float64(g.Segments)
		s, c := float32(math.Sin(th))*r, float32(math.Cos(th))*r
		switch axis {
		case 0:
			return mgl32.Vec3{c, s, 0}
		case 1:
			return mgl32.Vec3{c, 0, s}
		default:
			return mgl32.Vec3{0, c, s}
		}
	}
	for axis := 0; axis < 3; axis++ {
		for i := 0; i < g.Segments; i++ {
			g.edges = append(g.edges, Edge{point(axis, i), point(axis, i+1)})
		}
	}
	return g.edges
}

// GridGeometry is a flat grid on the XZ plane.
type GridGeometry struct {
	Size      float32
	Divisions int
	edges     []Edge
}

func NewGridGeometry(size float32, divisions int) *GridGeometry {
	if divisions < 1 {
		divisions = 1
	}
	return &GridGeometry{Size: size, Divisions: divisions}
}

func (g *GridGeometry) Edges() []Edge {
	if g.edges != nil {
		return g.edges
	}
	half := g.Size / 2
	step := g.Size / float32(g.Divisions)
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float32(i)*step
		g.edges = append(g.edges,
			Edge{{k, 0, -half}, {k, 0, half}},
			Edge{{-half, 0, k}, {half, 0, k}},
		)
	}
	return g.edges
}
