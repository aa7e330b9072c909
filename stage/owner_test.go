package stage

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/rigidsync/native"
	"github.com/milk9111/rigidsync/render"
	"github.com/milk9111/rigidsync/specs"
	"github.com/milk9111/rigidsync/ticker"
)

type fakeRenderer struct {
	renders  int
	disposed int
	lastCam  *render.Camera
}

func (r *fakeRenderer) Render(scene *render.Scene, camera *render.Camera) {
	r.renders++
	r.lastCam = camera
}

func (r *fakeRenderer) Dispose() {
	r.disposed++
}

func loadScene(t *testing.T) specs.Scene {
	t.Helper()
	spec, err := specs.LoadScene(specs.DefaultScene)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	return spec
}

func TestOwnerInitFailureLeavesSceneEmpty(t *testing.T) {
	spec := loadScene(t)
	spec.Physics.HeapBlocks = 0

	tk := ticker.New()
	r := &fakeRenderer{}
	o := New(spec, r, tk)

	if err := o.Init(); err == nil {
		t.Fatalf("expected Init to fail")
	}
	if o.Ready() || o.Err() == nil {
		t.Fatalf("owner should report the failure: ready=%v err=%v", o.Ready(), o.Err())
	}
	if !tk.Paused() {
		t.Fatalf("ticker should stay paused after a failed init")
	}
	if o.World().BodyCount() != 0 {
		t.Fatalf("expected no bodies, got %d", o.World().BodyCount())
	}

	tk.Tick(time.Unix(0, 0))
	if r.renders != 0 {
		t.Fatalf("nothing should render after a failed init")
	}

	// dropping the sphere without a world is a no-op
	o.Drop()
}

func TestOwnerSeedsScene(t *testing.T) {
	spec := loadScene(t)
	tk := ticker.New()
	r := &fakeRenderer{}
	o := New(spec, r, tk)

	if err := o.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := o.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if tk.Paused() {
		t.Fatalf("ticker should run after init")
	}
	if got, want := o.World().BodyCount(), spec.Boxes.Count()+2; got != want {
		t.Fatalf("expected %d bodies, got %d", want, got)
	}
	if o.Boxes().Count() != 360 {
		t.Fatalf("expected 360 box instances, got %d", o.Boxes().Count())
	}
	if len(o.Scene().Meshes()) != 3 || len(o.Scene().Instanced()) != 1 {
		t.Fatalf("unexpected scene contents: %d meshes, %d instanced", len(o.Scene().Meshes()), len(o.Scene().Instanced()))
	}
}

func TestOwnerFrames(t *testing.T) {
	spec := loadScene(t)
	tk := ticker.New()
	r := &fakeRenderer{}
	o := New(spec, r, tk)
	if err := o.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	base := time.Unix(1000, 0)
	tk.Tick(base)
	// a five second hitch is clamped to max_delta
	tk.Tick(base.Add(5 * time.Second))

	if r.renders != 2 {
		t.Fatalf("expected 2 renders, got %d", r.renders)
	}
	if r.lastCam != o.Camera() {
		t.Fatalf("renderer got the wrong camera")
	}
	if v := o.Boxes().InstanceMatrix.Version; v != 2 {
		t.Fatalf("expected instance buffer marked dirty each frame, version=%d", v)
	}

	// the solver moves positions before velocities, so the first step only
	// picks up speed
	if v := o.World().LinearVelocity(o.SphereBody()); v.Y() > -0.9 || v.Y() < -1.1 {
		t.Fatalf("expected one clamped step of gravity, velocity=%v", v)
	}

	tk.Tick(base.Add(10 * time.Second))
	y := o.Sphere().Matrix.Col(3).Y()
	if y < 49.8 || y >= 50 {
		t.Fatalf("expected a clamped step of fall, sphere at y=%v", y)
	}
	if o.Ground().Matrix.Col(3) != (mgl32.Vec4{0, 0, 0, 1}) {
		t.Fatalf("ground moved to %v", o.Ground().Matrix.Col(3))
	}

	first := o.Boxes().MatrixAt(0).Col(3).Vec3()
	if !first.ApproxEqualThreshold(spec.Boxes.Position(0), 0.5) {
		t.Fatalf("box 0 at %v, expected near spawn %v", first, spec.Boxes.Position(0))
	}
}

func TestOwnerSeedFailureIsFinal(t *testing.T) {
	spec := loadScene(t)
	spec.Physics.MaxBodies = 10

	tk := ticker.New()
	o := New(spec, &fakeRenderer{}, tk)
	if err := o.Init(); !errors.Is(err, native.ErrBodyLimit) {
		t.Fatalf("expected ErrBodyLimit, got %v", err)
	}
	created := o.World().BodyCount()
	if created == 0 || created > 10 {
		t.Fatalf("expected a partly seeded world, got %d bodies", created)
	}

	if err := o.Init(); !errors.Is(err, native.ErrBodyLimit) {
		t.Fatalf("expected retry to report the first failure, got %v", err)
	}
	if o.World().BodyCount() != created {
		t.Fatalf("retry seeded again: %d bodies, want %d", o.World().BodyCount(), created)
	}
	if o.Ready() || !tk.Paused() {
		t.Fatalf("owner should stay stopped: ready=%v paused=%v", o.Ready(), tk.Paused())
	}
}

func TestOwnerDrop(t *testing.T) {
	spec := loadScene(t)
	tk := ticker.New()
	o := New(spec, &fakeRenderer{}, tk)
	if err := o.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	now := time.Unix(0, 0)
	for i := 0; i < 30; i++ {
		tk.Tick(now)
		now = now.Add(time.Second / 60)
	}
	if y := o.Sphere().Matrix.Col(3).Y(); y >= 50 {
		t.Fatalf("expected sphere to have fallen, y=%v", y)
	}

	o.Drop()
	if v := o.World().LinearVelocity(o.SphereBody()); v != (mgl32.Vec3{}) {
		t.Fatalf("expected drop to clear velocity, got %v", v)
	}
	o.World().Update(0)
	if got := o.Sphere().Matrix.Col(3).Vec3(); got != spec.Sphere.Position.Vec3 {
		t.Fatalf("expected sphere back at %v, got %v", spec.Sphere.Position.Vec3, got)
	}
}

func TestOwnerDispose(t *testing.T) {
	spec := loadScene(t)
	tk := ticker.New()
	r := &fakeRenderer{}
	o := New(spec, r, tk)
	if err := o.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	bodies := o.World().BodyCount()

	o.Dispose()
	o.Dispose()

	if !tk.Paused() {
		t.Fatalf("expected ticker paused after dispose")
	}
	if r.disposed != 1 {
		t.Fatalf("expected renderer disposed once, got %d", r.disposed)
	}
	if len(o.Scene().Meshes()) != 0 {
		t.Fatalf("expected scene cleared")
	}
	if o.World().BodyCount() != bodies {
		t.Fatalf("dispose must leave physics bodies alone")
	}

	tk.Tick(time.Unix(5, 0))
	if r.renders != 0 {
		t.Fatalf("no frames should run after dispose")
	}
}

func TestOwnerWithoutBoxes(t *testing.T) {
	spec := loadScene(t)
	spec.Boxes.Layers = 0

	o := New(spec, &fakeRenderer{}, ticker.New())
	if err := o.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if o.Boxes() != nil {
		t.Fatalf("expected no instanced mesh for an empty grid")
	}
	if o.World().BodyCount() != 2 {
		t.Fatalf("expected ground and sphere only, got %d bodies", o.World().BodyCount())
	}
}
