package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective camera on the +Z axis looking toward -Z.
type Camera struct {
	Pos    r3.Vec
	FOV    float64 // vertical, degrees
	Aspect float64

	// Screen shake.
	ShakeX, ShakeY float64 // current offset in world units
	ShakeTimer     float64 // remaining shake time
	ShakeIntensity float64 // max offset magnitude
}

func newCamera(z, fov float64) Camera {
	return Camera{
		Pos:    r3.Vec{Z: z},
		FOV:    fov,
		Aspect: float64(SurfaceWidth) / float64(SurfaceHeight),
	}
}

// AddShake triggers camera shake with given intensity and duration.
func (c *Camera) AddShake(intensity, duration float64) {
	if intensity > c.ShakeIntensity {
		c.ShakeIntensity = intensity
	}
	if duration > c.ShakeTimer {
		c.ShakeTimer = duration
	}
}

// UpdateShake decays shake and computes random offsets.
func (c *Camera) UpdateShake(dt float64, seed uint64) {
	if c.ShakeTimer <= 0 {
		c.ShakeX = 0
		c.ShakeY = 0
		c.ShakeIntensity = 0
		return
	}
	c.ShakeTimer -= dt
	if c.ShakeTimer < 0 {
		c.ShakeTimer = 0
	}
	t := c.ShakeTimer
	rr := NewRand(seed ^ uint64(t*10000))
	mag := c.ShakeIntensity * (t / (t + 0.08))
	c.ShakeX = rr.Centered(mag)
	c.ShakeY = rr.Centered(mag)
}

// EffectivePos returns camera position with shake applied.
func (c *Camera) EffectivePos() r3.Vec {
	return r3.Vec{X: c.Pos.X + c.ShakeX, Y: c.Pos.Y + c.ShakeY, Z: c.Pos.Z}
}

// Project maps a world point to normalized device coordinates using the unshaken eye.
// ok is false for points at or behind the eye plane.
func (c *Camera) Project(p r3.Vec) (x, y float64, ok bool) {
	v := r3.Sub(p, c.Pos)
	if v.Z >= 0 {
		return 0, 0, false
	}
	f := 1 / math.Tan(c.FOV*math.Pi/360)
	x = f / c.Aspect * v.X / -v.Z
	y = f * v.Y / -v.Z
	return x, y, true
}
