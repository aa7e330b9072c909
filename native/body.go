package native

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
)

type body struct {
	id       BodyID
	offset   Offset
	motion   MotionType
	shape    ShapeID
	mass     MassProperties
	damping  Damping
	z        float32
	userData uint64

	cp       *cp.Body
	cpShapes []*cp.Shape
	world    *World
}

// CreateBody allocates a body and its transform block. The body is not
// simulated until it is added to a world.
func (m *Module) CreateBody(s BodySettings) (BodyID, error) {
	if m.liveBodies >= m.maxBodies {
		return InvalidBody, ErrBodyLimit
	}
	sh := m.shape(s.Shape)

	b := &body{
		motion:   s.Motion,
		damping:  s.Damping,
		userData: s.UserData,
		mass:     MassProperties{Mass: s.Mass},
	}
	if b.mass.Mass <= 0 {
		b.mass.Mass = float32(float64(densityFor(sh.material.DensityIndex)) * sh.area())
	}
	if b.mass.Mass <= 0 {
		b.mass.Mass = 1
	}

	switch s.Motion {
	case Static:
		b.cp = cp.NewStaticBody()
	case Kinematic:
		b.cp = cp.NewKinematicBody()
	default:
		b.cp = cp.NewBody(float64(b.mass.Mass), sh.moment(float64(b.mass.Mass)))
	}
	b.cp.SetVelocityUpdateFunc(b.updateVelocity)

	b.id = m.newBodyID()
	m.bodies[b.id-1] = b
	m.liveBodies++
	b.offset = m.heap.alloc()

	m.attach(b, s.Shape)
	b.setPose(s.Pose)
	m.publish(b)
	return b.id, nil
}

// ReleaseBody removes the body from its world if needed and frees its
// transform block. The handle is invalid afterwards.
func (m *Module) ReleaseBody(id BodyID) {
	b := m.body(id)
	if b.world != nil {
		b.world.RemoveBody(id)
	}
	m.detach(b)
	m.heap.release(b.offset)
	m.bodies[id-1] = nil
	m.freeBodies = append(m.freeBodies, id)
	m.liveBodies--
}

// TransformOffset returns the heap offset of the body's transform block.
func (m *Module) TransformOffset(id BodyID) Offset {
	return m.body(id).offset
}

// UserData returns the value passed in BodySettings.
func (m *Module) UserData(id BodyID) uint64 {
	return m.body(id).userData
}

// BodyShape returns the body's shape.
func (m *Module) BodyShape(id BodyID) ShapeID {
	return m.body(id).shape
}

// SetBodyShape swaps the body's shape.
func (m *Module) SetBodyShape(id BodyID, shapeID ShapeID) {
	b := m.body(id)
	m.detach(b)
	m.attach(b, shapeID)
	if b.world != nil {
		b.world.addShapes(b)
	}
	b.applyMass(m.shape(shapeID))
}

// BodyMotionType returns the body's motion type.
func (m *Module) BodyMotionType(id BodyID) MotionType {
	return m.body(id).motion
}

// SetBodyMotionType changes how the solver treats the body.
func (m *Module) SetBodyMotionType(id BodyID, mt MotionType) {
	b := m.body(id)
	if b.motion == mt {
		return
	}
	b.motion = mt
	switch mt {
	case Static:
		b.cp.SetType(cp.BODY_STATIC)
	case Kinematic:
		b.cp.SetType(cp.BODY_KINEMATIC)
	default:
		b.cp.SetType(cp.BODY_DYNAMIC)
		b.applyMass(m.shape(b.shape))
	}
	if b.world != nil {
		b.world.refilter(b)
	}
}

// MassProperties returns a copy of the body's mass block.
func (m *Module) MassProperties(id BodyID) MassProperties {
	return m.body(id).mass
}

// SetMassProperties replaces the body's mass block.
func (m *Module) SetMassProperties(id BodyID, mp MassProperties) {
	b := m.body(id)
	b.mass = mp
	b.applyMass(m.shape(b.shape))
}

// Damping returns the body's damping.
func (m *Module) Damping(id BodyID) Damping {
	return m.body(id).damping
}

// SetDamping replaces the body's damping.
func (m *Module) SetDamping(id BodyID, d Damping) {
	m.body(id).damping = d
}

// QTransform returns the body's current pose.
func (m *Module) QTransform(id BodyID) QTransform {
	return m.body(id).pose()
}

// SetQTransform teleports the body and republishes its transform block.
func (m *Module) SetQTransform(id BodyID, q QTransform) {
	b := m.body(id)
	b.setPose(q)
	m.publish(b)
}

// LinearVelocity returns the body's linear velocity.
func (m *Module) LinearVelocity(id BodyID) mgl32.Vec3 {
	v := m.body(id).cp.Velocity()
	return mgl32.Vec3{float32(v.X), float32(v.Y), 0}
}

// SetLinearVelocity sets the velocity of a dynamic or kinematic body.
func (m *Module) SetLinearVelocity(id BodyID, v mgl32.Vec3) {
	b := m.body(id)
	if b.motion == Static {
		return
	}
	b.cp.SetVelocity(float64(v.X()), float64(v.Y()))
}

// AngularVelocity returns the body's angular velocity.
func (m *Module) AngularVelocity(id BodyID) mgl32.Vec3 {
	return mgl32.Vec3{0, 0, float32(m.body(id).cp.AngularVelocity())}
}

// SetAngularVelocity sets the Z component of the body's angular velocity.
func (m *Module) SetAngularVelocity(id BodyID, w mgl32.Vec3) {
	b := m.body(id)
	if b.motion == Static {
		return
	}
	b.cp.SetAngularVelocity(float64(w.Z()))
}

// ApplyImpulse applies an impulse at the body's centre of mass.
func (m *Module) ApplyImpulse(id BodyID, impulse mgl32.Vec3) {
	b := m.body(id)
	if b.motion != Dynamic {
		return
	}
	b.cp.ApplyImpulseAtWorldPoint(vec2(impulse), b.cp.Position())
}

func (m *Module) attach(b *body, id ShapeID) {
	sh := m.shape(id)
	b.shape = id
	b.cpShapes = sh.build(b.cp)
	for _, cs := range b.cpShapes {
		cs.SetFriction(float64(sh.material.Friction))
		cs.SetElasticity(float64(sh.material.Restitution))
	}
	sh.users++
}

func (m *Module) detach(b *body) {
	if b.world != nil {
		b.world.removeShapes(b)
	}
	b.cpShapes = nil
	if b.shape == InvalidShape {
		return
	}
	sh := m.shape(b.shape)
	sh.users--
	if sh.released && sh.users == 0 {
		m.freeShape(b.shape)
	}
	b.shape = InvalidShape
}

func (m *Module) publish(b *body) {
	m.heap.store(b.offset, b.matrix())
}

func (b *body) applyMass(sh *shape) {
	if b.motion != Dynamic || b.mass.Mass <= 0 {
		return
	}
	b.cp.SetMass(float64(b.mass.Mass))
	inertia := float64(b.mass.Inertia)
	if inertia <= 0 {
		inertia = sh.moment(float64(b.mass.Mass))
	}
	b.cp.SetMoment(inertia)
}

func (b *body) updateVelocity(cb *cp.Body, gravity cp.Vector, damping float64, dt float64) {
	cp.BodyUpdateVelocity(cb, gravity, damping, dt)
	if b.damping.Linear > 0 {
		cb.SetVelocityVector(cb.Velocity().Mult(math.Exp(-float64(b.damping.Linear) * dt)))
	}
	if b.damping.Angular > 0 {
		cb.SetAngularVelocity(cb.AngularVelocity() * math.Exp(-float64(b.damping.Angular)*dt))
	}
}

func (b *body) setPose(q QTransform) {
	b.cp.SetPosition(vec2(q.Position))
	b.cp.SetAngle(float64(zAngle(q.Rotation)))
	z := q.Position.Z()
	moved := z != b.z
	b.z = z
	if b.world == nil {
		return
	}
	if moved {
		b.world.refilter(b)
	}
	if b.motion == Static {
		// static shapes only get new bounds when they are reinserted
		b.world.removeShapes(b)
		b.world.addShapes(b)
	}
}

func (b *body) pose() QTransform {
	p := b.cp.Position()
	return QTransform{
		Position: mgl32.Vec3{float32(p.X), float32(p.Y), b.z},
		Rotation: mgl32.QuatRotate(float32(b.cp.Angle()), mgl32.Vec3{0, 0, 1}),
	}
}

func (b *body) matrix() mgl32.Mat4 {
	p := b.cp.Position()
	return mgl32.Translate3D(float32(p.X), float32(p.Y), b.z).Mul4(mgl32.HomogRotate3DZ(float32(b.cp.Angle())))
}

func (b *body) String() string {
	return fmt.Sprintf("body(%d %s off=%d)", b.id, b.motion, b.offset)
}

// zAngle reduces an orientation to its rotation about Z.
func zAngle(q mgl32.Quat) float32 {
	q = q.Normalize()
	return float32(2 * math.Atan2(float64(q.V.Z()), float64(q.W)))
}
