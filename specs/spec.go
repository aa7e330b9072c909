package specs

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

type Scene struct {
	Name       string       `yaml:"name"`
	Background YAMLColor    `yaml:"background"`
	Gravity    Vec3         `yaml:"gravity"`
	Physics    PhysicsSpec  `yaml:"physics"`
	Material   MaterialSpec `yaml:"material"`
	Ground     GroundSpec   `yaml:"ground"`
	Boxes      BoxGridSpec  `yaml:"boxes"`
	Sphere     SphereSpec   `yaml:"sphere"`
	Camera     CameraSpec   `yaml:"camera"`
	Lights     LightsSpec   `yaml:"lights"`
}

type PhysicsSpec struct {
	Substeps   int     `yaml:"substeps"`
	MaxDelta   float64 `yaml:"max_delta"`
	HeapBlocks int     `yaml:"heap_blocks"`
	MaxBodies  int     `yaml:"max_bodies"`
}

// MaxDeltaDuration returns MaxDelta as a duration.
func (p PhysicsSpec) MaxDeltaDuration() time.Duration {
	return time.Duration(p.MaxDelta * float64(time.Second))
}

type MaterialSpec struct {
	Friction    float32 `yaml:"friction"`
	Restitution float32 `yaml:"restitution"`
	Mass        float32 `yaml:"mass"`
}

type GroundSpec struct {
	HalfExtents   Vec3      `yaml:"half_extents"`
	GridDivisions int       `yaml:"grid_divisions"`
	Color         YAMLColor `yaml:"color"`
}

type BoxGridSpec struct {
	Columns int       `yaml:"columns"`
	Rows    int       `yaml:"rows"`
	Layers  int       `yaml:"layers"`
	Size    Vec3      `yaml:"size"`
	Spacing float32   `yaml:"spacing"`
	Height  float32   `yaml:"height"`
	Mass    float32   `yaml:"mass"`
	Color   YAMLColor `yaml:"color"`
}

// Count returns the number of boxes in the grid.
func (b BoxGridSpec) Count() int {
	return b.Columns * b.Rows * b.Layers
}

// Position returns the spawn point of box i, filling columns first, then
// rows, then layers.
func (b BoxGridSpec) Position(i int) mgl32.Vec3 {
	col := i % b.Columns
	row := (i / b.Columns) % b.Rows
	layer := i / (b.Columns * b.Rows)
	return mgl32.Vec3{
		(float32(col) - float32(b.Columns-1)/2) * b.Spacing,
		b.Height + float32(row)*b.Spacing,
		(float32(layer) - float32(b.Layers-1)/2) * b.Spacing,
	}
}

type SphereSpec struct {
	Radius   float32   `yaml:"radius"`
	Position Vec3      `yaml:"position"`
	Mass     float32   `yaml:"mass"`
	Color    YAMLColor `yaml:"color"`
}

type CameraSpec struct {
	Fov        float32 `yaml:"fov"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	Distance   float32 `yaml:"distance"`
	Height     float32 `yaml:"height"`
	AutoRotate float32 `yaml:"auto_rotate"`
}

type LightsSpec struct {
	Ambient     float32           `yaml:"ambient"`
	Directional []DirectionalSpec `yaml:"directional"`
}

type DirectionalSpec struct {
	Position  Vec3      `yaml:"position"`
	Intensity float32   `yaml:"intensity"`
	Color     YAMLColor `yaml:"color"`
}

// LoadScene loads and validates the named scene spec.
func LoadScene(name string) (Scene, error) {
	data, err := Load(name)
	if err != nil {
		return Scene{}, fmt.Errorf("specs: load %s: %w", name, err)
	}
	scene, err := ParseScene(data)
	if err != nil {
		return Scene{}, fmt.Errorf("specs: %s: %w", name, err)
	}
	return scene, nil
}

// LoadSceneFile loads a scene spec from an explicit path.
func LoadSceneFile(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("specs: read %s: %w", path, err)
	}
	scene, err := ParseScene(data)
	if err != nil {
		return Scene{}, fmt.Errorf("specs: %s: %w", path, err)
	}
	return scene, nil
}

// ParseScene decodes and validates a scene spec.
func ParseScene(data []byte) (Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return Scene{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := scene.Validate(); err != nil {
		return Scene{}, err
	}
	return scene, nil
}

// Validate reports the first invalid field.
func (s Scene) Validate() error {
	switch {
	case s.Physics.Substeps < 1:
		return fmt.Errorf("physics.substeps must be at least 1, got %d", s.Physics.Substeps)
	case s.Physics.MaxDelta <= 0:
		return fmt.Errorf("physics.max_delta must be positive, got %v", s.Physics.MaxDelta)
	case s.Physics.HeapBlocks < 1:
		return fmt.Errorf("physics.heap_blocks must be positive, got %d", s.Physics.HeapBlocks)
	case s.Physics.MaxBodies < 1:
		return fmt.Errorf("physics.max_bodies must be positive, got %d", s.Physics.MaxBodies)
	case s.Ground.HalfExtents.X() <= 0 || s.Ground.HalfExtents.Y() <= 0 || s.Ground.HalfExtents.Z() <= 0:
		return fmt.Errorf("ground.half_extents must be positive, got %v", s.Ground.HalfExtents)
	case s.Boxes.Columns < 0 || s.Boxes.Rows < 0 || s.Boxes.Layers < 0:
		return fmt.Errorf("boxes grid dimensions must not be negative")
	case s.Boxes.Count() > 0 && (s.Boxes.Size.X() <= 0 || s.Boxes.Size.Y() <= 0 || s.Boxes.Size.Z() <= 0):
		return fmt.Errorf("boxes.size must be positive, got %v", s.Boxes.Size)
	case s.Sphere.Radius <= 0:
		return fmt.Errorf("sphere.radius must be positive, got %v", s.Sphere.Radius)
	case s.Camera.Fov <= 0 || s.Camera.Fov >= 180:
		return fmt.Errorf("camera.fov must be in (0, 180), got %v", s.Camera.Fov)
	case s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near:
		return fmt.Errorf("camera near/far invalid: %v/%v", s.Camera.Near, s.Camera.Far)
	}
	return nil
}

// Vec3 decodes a three element YAML sequence.
type Vec3 struct {
	mgl32.Vec3
}

func V3(x, y, z float32) Vec3 {
	return Vec3{mgl32.Vec3{x, y, z}}
}

func (v *Vec3) UnmarshalYAML(value *yaml.Node) error {
	var xs []float32
	if err := value.Decode(&xs); err != nil {
		return fmt.Errorf("vec3 must be a sequence of numbers: %w", err)
	}
	if len(xs) != 3 {
		return fmt.Errorf("vec3 needs 3 elements, got %d", len(xs))
	}
	v.Vec3 = mgl32.Vec3{xs[0], xs[1], xs[2]}
	return nil
}

type YAMLColor struct {
	color.NRGBA
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.NRGBA = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
