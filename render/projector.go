package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Segment is a projected line in screen pixels.
type Segment struct {
	X0, Y0, X1, Y1 float32
	Color          color.NRGBA
}

// Projector turns a scene into a screen space display list. It holds the
// list between Render calls so a separate draw pass can consume it.
type Projector struct {
	Width, Height int

	segments []Segment
	frames   int
}

func NewProjector(width, height int) *Projector {
	return &Projector{Width: width, Height: height}
}

// Render rebuilds the display list from the scene as seen by cam.
func (p *Projector) Render(scene *Scene, cam *Camera) {
	p.segments = p.segments[:0]
	p.frames++
	if p.Width <= 0 || p.Height <= 0 {
		return
	}
	vp := cam.Projection(float32(p.Width) / float32(p.Height)).Mul4(cam.View())
	light := scene.brightness()

	for _, m := range scene.meshes {
		if !m.Visible || m.Geometry == nil {
			continue
		}
		p.project(vp.Mul4(m.WorldMatrix()), m.Geometry.Edges(), shade(m.Color, light))
	}
	for _, m := range scene.instanced {
		if !m.Visible || m.Geometry == nil {
			continue
		}
		base := vp.Mul4(m.WorldMatrix())
		edges := m.Geometry.Edges()
		c := shade(m.Color, light)
		for i := 0; i < m.count; i++ {
			p.project(base.Mul4(m.MatrixAt(i)), edges, c)
		}
	}
}

// Segments returns the current display list.
func (p *Projector) Segments() []Segment {
	return p.segments
}

// Frames returns how many times Render ran.
func (p *Projector) Frames() int {
	return p.frames
}

// Dispose drops the display list.
func (p *Projector) Dispose() {
	p.segments = nil
}

func (p *Projector) project(mvp mgl32.Mat4, edges []Edge, c color.NRGBA) {
	for _, e := range edges {
		a := mvp.Mul4x1(e[0].Vec4(1))
		b := mvp.Mul4x1(e[1].Vec4(1))
		// no near plane clipping: drop edges that cross behind the camera
		if a.W() <= 0 || b.W() <= 0 {
			continue
		}
		x0, y0 := p.toScreen(a)
		x1, y1 := p.toScreen(b)
		p.segments = append(p.segments, Segment{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: c})
	}
}

func (p *Projector) toScreen(v mgl32.Vec4) (float32, float32) {
	x := v.X() / v.W()
	y := v.Y() / v.W()
	return (x + 1) / 2 * float32(p.Width), (1 - y) / 2 * float32(p.Height)
}
