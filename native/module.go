package native

import (
	"errors"
	"fmt"
	"log"
)

const (
	defaultHeapBlocks = 64
	defaultMaxBodies  = 4096
)

// ErrBodyLimit is returned when the module cannot create more bodies.
var ErrBodyLimit = errors.New("native: body limit reached")

// Module is one loaded engine instance. It owns the heap and the body and
// shape tables shared by every world it creates.
type Module struct {
	heap      *Heap
	maxBodies int

	bodies     []*body
	freeBodies []BodyID
	liveBodies int

	shapes     []*shape
	freeShapes []ShapeID
}

type config struct {
	heapBlocks int
	maxBodies  int
}

// Option configures Load.
type Option func(*config)

// WithHeapBlocks sets the initial heap size in transform blocks.
func WithHeapBlocks(n int) Option {
	return func(c *config) { c.heapBlocks = n }
}

// WithMaxBodies caps the number of live bodies.
func WithMaxBodies(n int) Option {
	return func(c *config) { c.maxBodies = n }
}

// Load starts the engine.
func Load(opts ...Option) (*Module, error) {
	cfg := config{heapBlocks: defaultHeapBlocks, maxBodies: defaultMaxBodies}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.heapBlocks <= 0 {
		return nil, fmt.Errorf("native: load: heap blocks must be positive, got %d", cfg.heapBlocks)
	}
	if cfg.maxBodies <= 0 {
		return nil, fmt.Errorf("native: load: max bodies must be positive, got %d", cfg.maxBodies)
	}

	m := &Module{
		heap:      newHeap(cfg.heapBlocks),
		maxBodies: cfg.maxBodies,
	}
	log.Printf("native: engine loaded heap=%d bytes maxBodies=%d", m.heap.Len(), m.maxBodies)
	return m, nil
}

// Heap exposes the module's linear memory.
func (m *Module) Heap() *Heap {
	return m.heap
}

// BodyCount returns the number of live bodies across all worlds.
func (m *Module) BodyCount() int {
	return m.liveBodies
}

func (m *Module) body(id BodyID) *body {
	if id == InvalidBody || int(id) > len(m.bodies) || m.bodies[id-1] == nil {
		panic(fmt.Sprintf("native: invalid body handle %d", id))
	}
	return m.bodies[id-1]
}

func (m *Module) shape(id ShapeID) *shape {
	if id == InvalidShape || int(id) > len(m.shapes) || m.shapes[id-1] == nil {
		panic(fmt.Sprintf("native: invalid shape handle %d", id))
	}
	return m.shapes[id-1]
}

func (m *Module) newBodyID() BodyID {
	if n := len(m.freeBodies); n > 0 {
		id := m.freeBodies[n-1]
		m.freeBodies = m.freeBodies[:n-1]
		return id
	}
	m.bodies = append(m.bodies, nil)
	return BodyID(len(m.bodies))
}

func (m *Module) newShapeID() ShapeID {
	if n := len(m.freeShapes); n > 0 {
		id := m.freeShapes[n-1]
		m.freeShapes = m.freeShapes[:n-1]
		return id
	}
	m.shapes = append(m.shapes, nil)
	return ShapeID(len(m.shapes))
}
