package native

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestWorld(t *testing.T, opts ...Option) (*Module, *World) {
	t.Helper()
	m := mustLoad(t, opts...)
	return m, m.NewWorld()
}

func addBody(t *testing.T, m *Module, w *World, shape ShapeID, pos mgl32.Vec3, motion MotionType) BodyID {
	t.Helper()
	id, err := m.CreateBody(BodySettings{
		Shape:  shape,
		Pose:   QTransform{Position: pos, Rotation: mgl32.QuatIdent()},
		Motion: motion,
		Mass:   1,
	})
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	w.AddBody(id)
	return id
}

func TestWorldFreeFall(t *testing.T) {
	m, w := newTestWorld(t)
	id := addBody(t, m, w, m.CreateSphere(0.5), mgl32.Vec3{0, 10, 2}, Dynamic)

	for i := 0; i < 60; i++ {
		w.Step(1.0/60, 1)
	}

	q := m.QTransform(id)
	if q.Position.Y() > 5.5 || q.Position.Y() < 4.5 {
		t.Fatalf("expected about 4.9m of fall after 1s, at y=%v", q.Position.Y())
	}
	if q.Position.Z() != 2 {
		t.Fatalf("expected z to stay at 2, got %v", q.Position.Z())
	}
	if v := m.LinearVelocity(id); v.Y() >= -9 {
		t.Fatalf("expected downward velocity near -9.8, got %v", v)
	}

	block := m.Heap().load(m.TransformOffset(id))
	if !near(block[13], q.Position.Y(), 1e-5) {
		t.Fatalf("transform block not republished: block y=%v body y=%v", block[13], q.Position.Y())
	}
}

func TestWorldStepNonPositiveOnlyRepublishes(t *testing.T) {
	cases := []struct {
		name string
		dt   float64
	}{
		{"zero", 0},
		{"negative", -1.0 / 60},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, w := newTestWorld(t)
			id := addBody(t, m, w, m.CreateBox(mgl32.Vec3{0.5, 0.5, 0.5}), mgl32.Vec3{0, 3, 0}, Dynamic)
			off := m.TransformOffset(id)

			// scribble over the block; Step must restore it from the body
			m.Heap().store(off, mgl32.Mat4{})
			w.Step(c.dt, 4)

			if got := m.Heap().load(off).Col(3); !got.ApproxEqual(mgl32.Vec4{0, 3, 0, 1}) {
				t.Fatalf("expected republished pose at y=3, got %v", got)
			}
		})
	}
}

func TestWorldStaticGroundStopsBox(t *testing.T) {
	m, w := newTestWorld(t)
	ground := addBody(t, m, w, m.CreateBox(mgl32.Vec3{50, 0.5, 50}), mgl32.Vec3{}, Static)
	box := addBody(t, m, w, m.CreateBox(mgl32.Vec3{0.5, 0.5, 0.5}), mgl32.Vec3{0, 3, 4}, Dynamic)

	for i := 0; i < 240; i++ {
		w.Step(1.0/60, 2)
	}

	y := m.QTransform(box).Position.Y()
	if y < 0.8 || y > 1.1 {
		t.Fatalf("expected box resting on ground near y=1, got %v", y)
	}
	if got := m.QTransform(ground).Position; got != (mgl32.Vec3{}) {
		t.Fatalf("static ground moved to %v", got)
	}
}

func TestWorldMovedStaticGroundStopsColliding(t *testing.T) {
	m, w := newTestWorld(t)
	ground := addBody(t, m, w, m.CreateBox(mgl32.Vec3{50, 0.5, 50}), mgl32.Vec3{}, Static)
	ball := addBody(t, m, w, m.CreateSphere(0.5), mgl32.Vec3{0, 5, 0}, Dynamic)

	m.SetQTransform(ground, QTransform{Position: mgl32.Vec3{0, -100, 0}, Rotation: mgl32.QuatIdent()})
	for i := 0; i < 120; i++ {
		w.Step(1.0/60, 1)
	}

	// about 19.6m of free fall in 2s
	if y := m.QTransform(ball).Position.Y(); y > -5 {
		t.Fatalf("expected the ball to fall through the ground's old place, y=%v", y)
	}
	if got := m.Heap().load(m.TransformOffset(ground)).Col(3); !got.ApproxEqual(mgl32.Vec4{0, -100, 0, 1}) {
		t.Fatalf("moved ground not republished: %v", got)
	}
}

func TestWorldLanes(t *testing.T) {
	m, w := newTestWorld(t)
	shape := m.CreateBox(mgl32.Vec3{0.5, 0.5, 0.5})
	a := addBody(t, m, w, shape, mgl32.Vec3{0, 0, 0}, Dynamic)
	b := addBody(t, m, w, shape, mgl32.Vec3{0, 5, 0}, Dynamic)
	c := addBody(t, m, w, shape, mgl32.Vec3{0, 0, 1.5}, Dynamic)
	ground := addBody(t, m, w, m.CreateBox(mgl32.Vec3{10, 1, 10}), mgl32.Vec3{0, -2, 0}, Static)

	fa := w.filterFor(m.body(a))
	fb := w.filterFor(m.body(b))
	fc := w.filterFor(m.body(c))
	fg := w.filterFor(m.body(ground))

	if fa.Categories != fb.Categories {
		t.Fatalf("bodies at the same z should share a lane: %b vs %b", fa.Categories, fb.Categories)
	}
	if fa.Categories == fc.Categories {
		t.Fatalf("bodies at different z should not share a lane")
	}
	if fg.Categories&fa.Categories == 0 || fg.Mask&fc.Categories == 0 {
		t.Fatalf("static bodies should collide with every lane")
	}

	m.SetQTransform(c, QTransform{Position: mgl32.Vec3{0, 0, 0}, Rotation: mgl32.QuatIdent()})
	if got := m.body(c).cpShapes[0].Filter.Categories; got != fa.Categories {
		t.Fatalf("expected moved body to join lane %b, got %b", fa.Categories, got)
	}
}

func TestWorldAddRemove(t *testing.T) {
	m, w := newTestWorld(t)
	id := addBody(t, m, w, m.CreateSphere(1), mgl32.Vec3{}, Dynamic)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected adding a body twice to panic")
			}
		}()
		w.AddBody(id)
	}()

	w.RemoveBody(id)
	if w.BodyCount() != 0 {
		t.Fatalf("expected empty world, got %d bodies", w.BodyCount())
	}
	if m.BodyCount() != 1 {
		t.Fatalf("removing from a world must not release the body")
	}

	w.AddBody(id)
	m.ReleaseBody(id)
	if w.BodyCount() != 0 || m.BodyCount() != 0 {
		t.Fatalf("release should remove the body everywhere: world=%d module=%d", w.BodyCount(), m.BodyCount())
	}
}

func TestWorldMemoryTracksGrowth(t *testing.T) {
	m, w := newTestWorld(t, WithHeapBlocks(2))
	shape := m.CreateSphere(0.5)
	first := addBody(t, m, w, shape, mgl32.Vec3{1, 1, 0}, Dynamic)
	before := len(w.Memory())

	for i := 0; i < 8; i++ {
		addBody(t, m, w, shape, mgl32.Vec3{float32(i), 5, 0}, Dynamic)
	}
	if len(w.Memory()) <= before {
		t.Fatalf("expected memory to grow past %d bytes, got %d", before, len(w.Memory()))
	}
	if got := m.Heap().load(m.TransformOffset(first)).Col(3); !got.ApproxEqual(mgl32.Vec4{1, 1, 0, 1}) {
		t.Fatalf("first block lost across growth: %v", got)
	}
}

func TestWorldGravity(t *testing.T) {
	m, w := newTestWorld(t)
	if w.Gravity() != DefaultGravity {
		t.Fatalf("expected default gravity, got %v", w.Gravity())
	}
	w.SetGravity(mgl32.Vec3{0, 0, 0})
	id := addBody(t, m, w, m.CreateSphere(1), mgl32.Vec3{0, 2, 0}, Dynamic)
	for i := 0; i < 30; i++ {
		w.Step(1.0/60, 1)
	}
	if y := m.QTransform(id).Position.Y(); !near(y, 2, 1e-4) {
		t.Fatalf("expected body to float without gravity, y=%v", y)
	}
}

func TestHull2D(t *testing.T) {
	pts := []mgl32.Vec3{
		{-1, -1, 0}, {1, -1, 3}, {1, 1, 0}, {-1, 1, -2}, {0, 0, 0}, {0.5, 0.2, 0},
	}
	hull := hull2D(pts)
	if len(hull) != 4 {
		t.Fatalf("expected 4 hull vertices, got %d: %v", len(hull), hull)
	}
	if a := polyArea(hull); a < 3.999 || a > 4.001 {
		t.Fatalf("expected area 4, got %v", a)
	}
	var signed float64
	for i := range hull {
		j := (i + 1) % len(hull)
		signed += hull[i].X*hull[j].Y - hull[j].X*hull[i].Y
	}
	if signed <= 0 {
		t.Fatalf("expected counter-clockwise winding")
	}

	if got := hull2D(nil); got != nil {
		t.Fatalf("expected no hull for no points, got %v", got)
	}
	if got := hull2D([]mgl32.Vec3{{2, 3, 0}}); len(got) != 1 || polyArea(got) != 0 {
		t.Fatalf("expected a single point hull with no area, got %v", got)
	}
}
