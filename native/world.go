package native

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
)

// DefaultGravity is applied to new worlds.
var DefaultGravity = mgl32.Vec3{0, -9.81, 0}

const (
	solverIterations = 10
	maxLanes         = 32
	allLanes         = ^uint(0)
)

// World is one simulation. Bodies are solved in the XY plane and keep the Z
// they were placed at. Non-static bodies at different Z values sit on
// different collision lanes and never touch each other; static bodies
// collide with every lane.
type World struct {
	module  *Module
	space   *cp.Space
	gravity mgl32.Vec3
	bodies  []*body
	lanes   map[int32]uint
}

// NewWorld creates an empty world with DefaultGravity.
func (m *Module) NewWorld() *World {
	space := cp.NewSpace()
	space.Iterations = solverIterations

	w := &World{
		module: m,
		space:  space,
		lanes:  make(map[int32]uint),
	}
	w.SetGravity(DefaultGravity)
	log.Printf("native: world created")
	return w
}

// Release removes every body from the world. Bodies stay allocated.
func (w *World) Release() {
	for len(w.bodies) > 0 {
		w.RemoveBody(w.bodies[len(w.bodies)-1].id)
	}
	w.space = nil
}

// SetGravity sets the world gravity. Only X and Y affect the solver.
func (w *World) SetGravity(g mgl32.Vec3) {
	w.gravity = g
	w.space.SetGravity(cp.Vector{X: float64(g.X()), Y: float64(g.Y())})
}

// Gravity returns the world gravity.
func (w *World) Gravity() mgl32.Vec3 {
	return w.gravity
}

// AddBody inserts a created body into the simulation.
func (w *World) AddBody(id BodyID) {
	b := w.module.body(id)
	if b.world != nil {
		panic(fmt.Sprintf("native: %v already in a world", b))
	}
	w.space.AddBody(b.cp)
	b.world = w
	w.addShapes(b)
	w.bodies = append(w.bodies, b)
}

// RemoveBody takes a body out of the simulation without releasing it.
func (w *World) RemoveBody(id BodyID) {
	b := w.module.body(id)
	if b.world != w {
		return
	}
	w.removeShapes(b)
	w.space.RemoveBody(b.cp)
	b.world = nil
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
}

// BodyCount returns the number of bodies in the world.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Step advances the world by dt seconds split into substeps, then
// republishes every body's transform block. A non-positive dt only
// republishes.
func (w *World) Step(dt float64, substeps int) {
	if substeps < 1 {
		substeps = 1
	}
	if dt > 0 {
		h := dt / float64(substeps)
		for i := 0; i < substeps; i++ {
			w.space.Step(h)
		}
	}
	for _, b := range w.bodies {
		w.module.publish(b)
	}
}

// DebugDraw walks the solver's shapes with d. Coordinates are the XY
// simulation plane; Z lanes are flattened onto it.
func (w *World) DebugDraw(d cp.Drawer) {
	if w.space == nil || d == nil {
		return
	}
	cp.DrawSpace(w.space, d)
}

// Memory returns the module heap as raw bytes. The slice must not be kept
// across any call that can allocate.
func (w *World) Memory() []byte {
	return w.module.heap.Bytes()
}

func (w *World) addShapes(b *body) {
	filter := w.filterFor(b)
	for _, cs := range b.cpShapes {
		cs.SetFilter(filter)
		w.space.AddShape(cs)
	}
}

func (w *World) removeShapes(b *body) {
	for _, cs := range b.cpShapes {
		w.space.RemoveShape(cs)
	}
}

func (w *World) refilter(b *body) {
	filter := w.filterFor(b)
	for _, cs := range b.cpShapes {
		cs.SetFilter(filter)
	}
}

func (w *World) filterFor(b *body) cp.ShapeFilter {
	if b.motion == Static {
		return cp.ShapeFilter{Categories: allLanes, Mask: allLanes}
	}
	bit := uint(1) << (w.lane(b.z) % maxLanes)
	return cp.ShapeFilter{Categories: bit, Mask: bit}
}

func (w *World) lane(z float32) uint {
	key := int32(math.Round(float64(z) * 1000))
	l, ok := w.lanes[key]
	if !ok {
		l = uint(len(w.lanes))
		w.lanes[key] = l
	}
	return l
}
