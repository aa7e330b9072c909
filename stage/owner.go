package stage

import (
	"fmt"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/rigidsync/native"
	"github.com/milk9111/rigidsync/physics"
	"github.com/milk9111/rigidsync/render"
	"github.com/milk9111/rigidsync/specs"
	"github.com/milk9111/rigidsync/ticker"
)

// Renderer draws a scene. Dispose releases whatever it holds on the GPU.
type Renderer interface {
	Render(scene *render.Scene, camera *render.Camera)
	Dispose()
}

// Owner builds the demo scene and drives one physics + render update per
// ticker frame.
type Owner struct {
	spec     specs.Scene
	renderer Renderer
	ticker   *ticker.Ticker

	world    *physics.World
	scene    *render.Scene
	camera   *render.Camera
	controls *render.OrbitControls

	ground *render.Mesh
	grid   *render.Mesh
	boxes  *render.InstancedMesh
	sphere *render.Mesh

	sphereBody native.BodyID
	boxGroup   physics.GroupID
	initErr    error
	ready      bool
	disposed   bool
}

// New builds the render side of the scene. Nothing is simulated until Init.
func New(spec specs.Scene, renderer Renderer, t *ticker.Ticker) *Owner {
	o := &Owner{
		spec:     spec,
		renderer: renderer,
		ticker:   t,
		world:    physics.NewWorld(worldOptions(spec)),
		scene:    render.NewScene(spec.Background.NRGBA),
	}

	o.scene.Ambient = render.AmbientLight{Color: spec.Background.NRGBA, Intensity: spec.Lights.Ambient}
	for _, l := range spec.Lights.Directional {
		o.scene.Lights = append(o.scene.Lights, render.DirectionalLight{
			Color:     l.Color.NRGBA,
			Intensity: l.Intensity,
			Position:  l.Position.Vec3,
		})
	}

	o.camera = render.NewCamera(spec.Camera.Fov, spec.Camera.Near, spec.Camera.Far)
	o.controls = render.NewOrbitControls(o.camera, mgl32.Vec3{0, spec.Sphere.Radius, 0}, spec.Camera.Distance, spec.Camera.Height)
	o.controls.AutoRotateSpeed = spec.Camera.AutoRotate

	he := spec.Ground.HalfExtents
	o.ground = render.NewMesh("ground", render.NewBoxGeometry(2*he.X(), 2*he.Y(), 2*he.Z()), spec.Ground.Color.NRGBA)
	o.ground.MatrixAutoUpdate = false
	o.scene.Add(o.ground)

	if spec.Ground.GridDivisions > 0 {
		o.grid = render.NewMesh("grid", render.NewGridGeometry(2*he.X(), spec.Ground.GridDivisions), spec.Ground.Color.NRGBA)
		o.grid.Position = mgl32.Vec3{0, he.Y(), 0}
		o.scene.Add(o.grid)
	}

	if n := spec.Boxes.Count(); n > 0 {
		size := spec.Boxes.Size
		o.boxes = render.NewInstancedMesh("boxes", render.NewBoxGeometry(size.X(), size.Y(), size.Z()), spec.Boxes.Color.NRGBA, n)
		o.scene.AddInstanced(o.boxes)
	}

	o.sphere = render.NewMesh("sphere", render.NewSphereGeometry(spec.Sphere.Radius, 24), spec.Sphere.Color.NRGBA)
	o.sphere.MatrixAutoUpdate = false
	o.scene.Add(o.sphere)

	return o
}

func worldOptions(spec specs.Scene) physics.Options {
	opts := physics.DefaultOptions()
	opts.Gravity = spec.Gravity.Vec3
	opts.Substeps = spec.Physics.Substeps
	opts.HeapBlocks = spec.Physics.HeapBlocks
	opts.MaxBodies = spec.Physics.MaxBodies
	opts.Friction = spec.Material.Friction
	opts.Restitution = spec.Material.Restitution
	opts.Mass = spec.Material.Mass
	return opts
}

// Init starts the physics engine and seeds the scene. On failure the ticker
// stays paused and later calls return the same error without seeding again.
func (o *Owner) Init() error {
	if o.ready {
		return nil
	}
	if o.initErr != nil {
		return fmt.Errorf("stage: init: %w", o.initErr)
	}
	if err := o.world.Initialize(); err != nil {
		o.initErr = err
		log.Printf("Stage: physics init failed: %v", err)
		return fmt.Errorf("stage: init: %w", err)
	}
	if err := o.seed(); err != nil {
		o.initErr = err
		log.Printf("Stage: seeding failed: %v", err)
		return fmt.Errorf("stage: seed: %w", err)
	}

	o.ticker.Add(o.frame)
	o.ready = true
	o.ticker.Resume()
	log.Printf("Stage: %q ready with %d bodies", o.spec.Name, o.world.BodyCount())
	return nil
}

func (o *Owner) seed() error {
	if _, err := o.world.CreateBox(o.ground, mgl32.Vec3{}, mgl32.QuatIdent(), o.spec.Ground.HalfExtents.Vec3, native.Static); err != nil {
		return err
	}

	if o.boxes != nil {
		o.boxGroup = o.world.NewInstanceGroup(o.boxes)
		for i := 0; i < o.boxes.Count(); i++ {
			id, err := o.world.CreateInstancedBody(o.boxGroup, o.spec.Boxes.Position(i), mgl32.QuatIdent(), o.spec.Boxes.Size.Vec3, native.Dynamic)
			if err != nil {
				return fmt.Errorf("box %d: %w", i, err)
			}
			if o.spec.Boxes.Mass > 0 {
				o.world.SetMass(id, o.spec.Boxes.Mass)
			}
		}
	}

	rec, err := o.world.CreateSphere(o.sphere, o.spec.Sphere.Position.Vec3, o.spec.Sphere.Radius, native.Dynamic)
	if err != nil {
		return err
	}
	o.sphereBody = rec.Body
	if o.spec.Sphere.Mass > 0 {
		o.world.SetMass(rec.Body, o.spec.Sphere.Mass)
	}
	return nil
}

func (o *Owner) frame(delta, total time.Duration) {
	if limit := o.spec.Physics.MaxDeltaDuration(); delta > limit {
		delta = limit
	}
	o.world.Update(delta.Seconds())
	o.controls.Update(delta)
	o.renderer.Render(o.scene, o.camera)
}

// Drop puts the sphere back at its spawn point.
func (o *Owner) Drop() {
	if !o.ready {
		return
	}
	o.world.SetPose(o.sphereBody, o.spec.Sphere.Position.Vec3, mgl32.QuatIdent())
}

// Dispose stops the frame loop and releases renderer resources. Physics
// bodies and shapes are left alone.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	o.ticker.Pause()
	o.renderer.Dispose()
	o.scene.Clear()
}

// Ready reports whether Init succeeded.
func (o *Owner) Ready() bool {
	return o.ready
}

// Err returns the Init failure, if any.
func (o *Owner) Err() error {
	return o.initErr
}

func (o *Owner) World() *physics.World {
	return o.world
}

func (o *Owner) Scene() *render.Scene {
	return o.scene
}

func (o *Owner) Camera() *render.Camera {
	return o.camera
}

func (o *Owner) Sphere() *render.Mesh {
	return o.sphere
}

func (o *Owner) Boxes() *render.InstancedMesh {
	return o.boxes
}

func (o *Owner) Ground() *render.Mesh {
	return o.ground
}

// SphereBody returns the sphere's body handle.
func (o *Owner) SphereBody() native.BodyID {
	return o.sphereBody
}
