package scene

import (
	"errors"
	"fmt"

	"stardust/internal/fluid"
)

var (
	ErrInvalidConfig = errors.New("scene: invalid config")
	ErrDisposed      = errors.New("scene: system disposed")
)

// Surface defaults.
const (
	SurfaceWidth  = 1280
	SurfaceHeight = 720
)

// Config holds every tunable of the particle scene. The integrator heuristics are
// exposed here rather than fixed, see DefaultConfig for the stock look.
type Config struct {
	Particles int
	Seed      uint64
	Text      string

	// Fluid mode replaces pointer repulsion with solver sampling.
	Fluid       bool
	FluidWidth  int
	FluidHeight int

	NavigateURL string
	OnNavigate  func(url string)

	// Idle integrator.
	DampingFast      float64 // applied above DampingThreshold
	DampingSlow      float64
	DampingThreshold float64
	JitterAmount     float64 // half-width of the per-axis velocity kick
	JitterMinSpeed   float64
	BoundRadius      float64
	BoundStiffness   float64
	ZBound           float64
	ZStiffness       float64

	// Pointer repulsion.
	PointerWorldScale float64 // NDC -> world units
	RepelRadius       float64
	RepelFalloff      float64 // exp(-falloff*d)
	RepelSizeScale    float64 // strength /= size*scale
	RepelZScale       float64

	// Fluid coupling.
	FluidPointerX    float64
	FluidPointerY    float64
	FluidForceGain   float64
	FluidForceRadius float64
	FluidBlend       float64

	// Transitions.
	TextWidth    float64 // world width of the text cloud
	FormStagger  float64
	BurstStagger float64
	StarStagger  float64

	SpecialIndex int
	ClusterSize  int
	HitRadius    float64 // NDC distance

	// Camera.
	CameraZ float64
	FOV     float64 // vertical, degrees
}

func DefaultConfig() Config {
	return Config{
		Particles:   2000,
		Seed:        1,
		Text:        "ISPER",
		FluidWidth:  fluid.DefaultWidth,
		FluidHeight: fluid.DefaultHeight,
		NavigateURL: "/isper-site.html#/maps",

		DampingFast:      0.92,
		DampingSlow:      0.96,
		DampingThreshold: 0.5,
		JitterAmount:     0.0005,
		JitterMinSpeed:   0.01,
		BoundRadius:      60,
		BoundStiffness:   0.00005,
		ZBound:           30,
		ZStiffness:       0.0001,

		PointerWorldScale: 50,
		RepelRadius:       20,
		RepelFalloff:      0.08,
		RepelSizeScale:    0.5,
		RepelZScale:       0.5,

		FluidPointerX:    40,
		FluidPointerY:    30,
		FluidForceGain:   10,
		FluidForceRadius: 5,
		FluidBlend:       0.02,

		TextWidth:    50,
		FormStagger:  0.001,
		BurstStagger: 0.0005,
		StarStagger:  0.0002,

		SpecialIndex: 10,
		ClusterSize:  5,
		HitRadius:    0.15,

		CameraZ: 50,
		FOV:     75,
	}
}

// Validate rejects configurations that would index outside the particle set, divide
// by zero at runtime or let the idle integrator gain energy.
func (c Config) Validate() error {
	switch {
	case c.Particles <= 0:
		return fmt.Errorf("particles %d: %w", c.Particles, ErrInvalidConfig)
	case c.SpecialIndex < 0 || c.ClusterSize < 0 || c.SpecialIndex+c.ClusterSize >= c.Particles:
		return fmt.Errorf("special index %d with cluster %d outside %d particles: %w",
			c.SpecialIndex, c.ClusterSize, c.Particles, ErrInvalidConfig)
	case c.Fluid && (c.FluidWidth < fluid.MinGridSize || c.FluidHeight < fluid.MinGridSize || c.FluidForceRadius <= 0):
		return fmt.Errorf("fluid grid %dx%d force radius %v: %w",
			c.FluidWidth, c.FluidHeight, c.FluidForceRadius, ErrInvalidConfig)
	case c.DampingFast < 0 || c.DampingFast > 1 || c.DampingSlow < 0 || c.DampingSlow > 1:
		return fmt.Errorf("damping %v/%v outside [0,1]: %w", c.DampingFast, c.DampingSlow, ErrInvalidConfig)
	case c.BoundStiffness < 0 || c.ZStiffness < 0 || c.JitterAmount < 0:
		return fmt.Errorf("bound stiffness %v z stiffness %v jitter %v: %w",
			c.BoundStiffness, c.ZStiffness, c.JitterAmount, ErrInvalidConfig)
	case c.RepelRadius < 0 || c.RepelSizeScale <= 0:
		return fmt.Errorf("repel radius %v size scale %v: %w", c.RepelRadius, c.RepelSizeScale, ErrInvalidConfig)
	case c.FormStagger < 0 || c.BurstStagger < 0 || c.StarStagger < 0:
		return fmt.Errorf("negative stagger: %w", ErrInvalidConfig)
	case c.HitRadius <= 0:
		return fmt.Errorf("hit radius %v: %w", c.HitRadius, ErrInvalidConfig)
	case c.FOV <= 0 || c.FOV >= 180 || c.CameraZ <= 0:
		return fmt.Errorf("camera fov %v z %v: %w", c.FOV, c.CameraZ, ErrInvalidConfig)
	case c.TextWidth <= 0:
		return fmt.Errorf("text width %v: %w", c.TextWidth, ErrInvalidConfig)
	}
	return nil
}
