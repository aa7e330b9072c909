package render

import (
	"image/color"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Scene holds everything the projector draws.
type Scene struct {
	Background color.NRGBA
	Ambient    AmbientLight
	Lights     []DirectionalLight

	meshes    []*Mesh
	instanced []*InstancedMesh
}

func NewScene(background color.NRGBA) *Scene {
	return &Scene{Background: background}
}

// Add appends a mesh.
func (s *Scene) Add(m *Mesh) {
	s.meshes = append(s.meshes, m)
}

// AddInstanced appends an instanced mesh.
func (s *Scene) AddInstanced(m *InstancedMesh) {
	s.instanced = append(s.instanced, m)
}

// Meshes returns the scene's meshes.
func (s *Scene) Meshes() []*Mesh {
	return s.meshes
}

// Instanced returns the scene's instanced meshes.
func (s *Scene) Instanced() []*InstancedMesh {
	return s.instanced
}

// Clear drops every object from the scene.
func (s *Scene) Clear() {
	s.meshes = nil
	s.instanced = nil
}

// AmbientLight lights everything equally.
type AmbientLight struct {
	Color     color.NRGBA
	Intensity float32
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Color     color.NRGBA
	Intensity float32
	Position  mgl32.Vec3
}

// brightness is how lit an upward facing surface is, clamped to [0.15, 1].
func (s *Scene) brightness() float32 {
	b := s.Ambient.Intensity
	for _, l := range s.Lights {
		dir := l.Position.Normalize()
		if d := dir.Dot(mgl32.Vec3{0, 1, 0}); d > 0 {
			b += l.Intensity * d
		}
	}
	return mgl32.Clamp(b, 0.15, 1)
}

func shade(c color.NRGBA, b float32) color.NRGBA {
	return color.NRGBA{
		R: uint8(float32(c.R) * b),
		G: uint8(float32(c.G) * b),
		B: uint8(float32(c.B) * b),
		A: c.A,
	}
}

// Camera is a perspective camera.
type Camera struct {
	Fov      float32
	Near     float32
	Far      float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

func NewCamera(fov, near, far float32) *Camera {
	return &Camera{Fov: fov, Near: near, Far: far, Up: mgl32.Vec3{0, 1, 0}}
}

// View returns the world to camera matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the camera to clip matrix.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

// OrbitControls slowly circles the camera around a target.
type OrbitControls struct {
	Camera          *Camera
	Target          mgl32.Vec3
	Distance        float32
	Height          float32
	AutoRotateSpeed float32 // radians per second

	azimuth float64
}

func NewOrbitControls(cam *Camera, target mgl32.Vec3, distance, height float32) *OrbitControls {
	c := &OrbitControls{Camera: cam, Target: target, Distance: distance, Height: height}
	c.apply()
	return c
}

// Update advances the orbit by dt.
func (c *OrbitControls) Update(dt time.Duration) {
	c.azimuth = math.Mod(c.azimuth+float64(c.AutoRotateSpeed)*dt.Seconds(), 2*math.Pi)
	c.apply()
}

func (c *OrbitControls) apply() {
	s, co := math.Sincos(c.azimuth)
	c.Camera.Position = c.Target.Add(mgl32.Vec3{
		float32(s) * c.Distance,
		c.Height,
		float32(co) * c.Distance,
	})
	c.Camera.Target = c.Target
}
