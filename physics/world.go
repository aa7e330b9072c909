package physics

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rigidsync/native"
)

var (
	ErrNotInitialized = errors.New("physics: world not initialized")
	ErrUnknownGroup   = errors.New("physics: unknown instance group")
	ErrGroupFull      = errors.New("physics: instance group full")
)

// Options configures a World. Zero fields are not replaced by defaults;
// start from DefaultOptions.
type Options struct {
	Gravity     mgl32.Vec3
	Substeps    int
	HeapBlocks  int
	MaxBodies   int
	Friction    float32
	Restitution float32
	Mass        float32
}

// DefaultOptions returns the options used by the demo scene.
func DefaultOptions() Options {
	return Options{
		Gravity:     native.DefaultGravity,
		Substeps:    1,
		HeapBlocks:  64,
		MaxBodies:   4096,
		Friction:    0.5,
		Restitution: 0.3,
		Mass:        1,
	}
}

// World owns one native simulation and copies body transforms into render
// objects every Update.
type World struct {
	opts   Options
	module *native.Module
	world  *native.World

	bodies []BodyRecord
	groups []*InstanceGroup
}

// NewWorld creates an uninitialized world.
func NewWorld(opts Options) *World {
	return &World{opts: opts}
}

// Initialize loads the engine and creates the simulation. Calling it again
// after success is a no-op.
func (w *World) Initialize() error {
	if w.world != nil {
		return nil
	}
	m, err := native.Load(native.WithHeapBlocks(w.opts.HeapBlocks), native.WithMaxBodies(w.opts.MaxBodies))
	if err != nil {
		return fmt.Errorf("physics: initialize: %w", err)
	}
	w.module = m
	w.world = m.NewWorld()
	w.world.SetGravity(w.opts.Gravity)
	log.Printf("PhysicsWorld: initialized gravity=%v substeps=%d", w.opts.Gravity, w.opts.Substeps)
	return nil
}

// Ready reports whether Initialize succeeded.
func (w *World) Ready() bool {
	return w.world != nil
}

// Module exposes the engine for calls the bridge does not wrap.
func (w *World) Module() *native.Module {
	return w.module
}

// Gravity returns the simulation gravity.
func (w *World) Gravity() mgl32.Vec3 {
	if w.world == nil {
		return w.opts.Gravity
	}
	return w.world.Gravity()
}

// SetGravity changes the simulation gravity.
func (w *World) SetGravity(g mgl32.Vec3) {
	w.opts.Gravity = g
	if w.world != nil {
		w.world.SetGravity(g)
	}
}

// BodyCount returns the number of bodies in the simulation.
func (w *World) BodyCount() int {
	if w.world == nil {
		return 0
	}
	return w.world.BodyCount()
}

// Bodies returns the singly rendered body records in creation order.
func (w *World) Bodies() []BodyRecord {
	return append([]BodyRecord(nil), w.bodies...)
}

// CreateBody creates a body for obj and registers it for synchronization.
func (w *World) CreateBody(obj Object, pos mgl32.Vec3, rot mgl32.Quat, shape ShapeDesc, motion native.MotionType) (BodyRecord, error) {
	id, err := w.newBody(pos, rot, shape, motion)
	if err != nil {
		return BodyRecord{}, err
	}
	rec := BodyRecord{
		Object:  obj,
		Body:    id,
		Offset:  w.module.TransformOffset(id),
		Dynamic: motion == native.Dynamic,
	}
	w.bodies = append(w.bodies, rec)
	return rec, nil
}

// CreateBox creates a box body from its half extents.
func (w *World) CreateBox(obj Object, pos mgl32.Vec3, rot mgl32.Quat, halfExtents mgl32.Vec3, motion native.MotionType) (BodyRecord, error) {
	return w.CreateBody(obj, pos, rot, Box(halfExtents), motion)
}

// CreateSphere creates a sphere body.
func (w *World) CreateSphere(obj Object, pos mgl32.Vec3, radius float32, motion native.MotionType) (BodyRecord, error) {
	return w.CreateBody(obj, pos, mgl32.QuatIdent(), Sphere(radius), motion)
}

// NewInstanceGroup registers buf as the target of an instance group.
func (w *World) NewInstanceGroup(buf InstanceBuffer) GroupID {
	w.groups = append(w.groups, &InstanceGroup{Buffer: buf})
	return GroupID(len(w.groups) - 1)
}

// Group returns the instance group for id.
func (w *World) Group(id GroupID) (*InstanceGroup, error) {
	if id < 0 || int(id) >= len(w.groups) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, id)
	}
	return w.groups[id], nil
}

// CreateInstancedBody creates a box body of size scale and binds it to the
// next free instance slot of the group.
func (w *World) CreateInstancedBody(id GroupID, pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, motion native.MotionType) (native.BodyID, error) {
	g, err := w.Group(id)
	if err != nil {
		return native.InvalidBody, err
	}
	if len(g.Bodies) >= g.Buffer.Count() {
		return native.InvalidBody, fmt.Errorf("%w: group %d has %d instances", ErrGroupFull, id, g.Buffer.Count())
	}
	body, err := w.newBody(pos, rot, Box(scale.Mul(0.5)), motion)
	if err != nil {
		return native.InvalidBody, err
	}
	g.Bodies = append(g.Bodies, body)
	g.offsets = append(g.offsets, w.module.TransformOffset(body))
	g.ensureScratch()
	return body, nil
}

// SetMaterial updates friction and restitution of the body's shape.
func (w *World) SetMaterial(id native.BodyID, friction, restitution float32) {
	shape := w.module.BodyShape(id)
	mat := w.module.Material(shape)
	mat.Friction = friction
	mat.Restitution = restitution
	w.module.SetMaterial(shape, mat)
}

// SetMass updates the body's mass.
func (w *World) SetMass(id native.BodyID, mass float32) {
	mp := w.module.MassProperties(id)
	mp.Mass = mass
	w.module.SetMassProperties(id, mp)
}

// SetPose teleports a body and clears its velocity.
func (w *World) SetPose(id native.BodyID, pos mgl32.Vec3, rot mgl32.Quat) {
	w.module.SetQTransform(id, native.QTransform{Position: pos, Rotation: rot})
	w.module.SetLinearVelocity(id, mgl32.Vec3{})
	w.module.SetAngularVelocity(id, mgl32.Vec3{})
}

// ApplyImpulse pushes a dynamic body.
func (w *World) ApplyImpulse(id native.BodyID, impulse mgl32.Vec3) {
	w.module.ApplyImpulse(id, impulse)
}

// LinearVelocity returns the body's linear velocity.
func (w *World) LinearVelocity(id native.BodyID) mgl32.Vec3 {
	return w.module.LinearVelocity(id)
}

// Transform reads the body's current transform block. It returns the
// identity before Initialize.
func (w *World) Transform(id native.BodyID) mgl32.Mat4 {
	if w.world == nil {
		return mgl32.Ident4()
	}
	return NewTransformStore(w.world.Memory()).Read(w.module.TransformOffset(id))
}

// DebugDraw hands the solver's shapes to d. It does nothing before
// Initialize.
func (w *World) DebugDraw(d cp.Drawer) {
	if w.world == nil {
		return
	}
	w.world.DebugDraw(d)
}

// Update steps the simulation by dt seconds and copies every registered
// body's transform into its render object.
func (w *World) Update(dt float64) {
	if w.world == nil {
		return
	}
	w.world.Step(dt, w.opts.Substeps)

	// the heap may have moved since the last frame
	store := NewTransformStore(w.world.Memory())

	for i := range w.bodies {
		rec := &w.bodies[i]
		m := store.Read(rec.Offset)
		copyAffine(rec.Object.LocalMatrix(), &m)
		if rec.Dynamic {
			q := w.module.QTransform(rec.Body)
			rec.Object.SetPose(q.Position, q.Rotation)
		}
	}
	for _, g := range w.groups {
		g.sync(store)
	}
}

func (w *World) newBody(pos mgl32.Vec3, rot mgl32.Quat, desc ShapeDesc, motion native.MotionType) (native.BodyID, error) {
	if w.world == nil {
		return native.InvalidBody, ErrNotInitialized
	}
	shape := desc.create(w.module)
	id, err := w.module.CreateBody(native.BodySettings{
		Shape:  shape,
		Pose:   native.QTransform{Position: pos, Rotation: rot},
		Motion: motion,
		Mass:   w.opts.Mass,
	})
	if err != nil {
		w.module.ReleaseShape(shape)
		return native.InvalidBody, fmt.Errorf("physics: create %s body: %w", motion, err)
	}
	w.world.AddBody(id)
	w.SetMaterial(id, w.opts.Friction, w.opts.Restitution)
	if motion == native.Dynamic {
		w.SetMass(id, w.opts.Mass)
	}
	return id, nil
}
