package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// repel pushes every particle within RepelRadius of the pointer straight away from it.
// Strength decays exponentially with distance and grows as particles get smaller.
// A particle sitting exactly on the pointer is pushed along a fixed per-index heading.
func (s *System) repel(pointer r3.Vec) {
	c := &s.cfg
	for i := range s.particles {
		p := &s.particles[i]
		d := r3.Sub(p.Pos, pointer)
		dist := r3.Norm(d)
		if dist >= c.RepelRadius {
			continue
		}
		var dir r3.Vec
		if dist < 1e-9 {
			a := 2 * math.Pi * unitFloat(hashIndex(s.cfg.Seed, i))
			dir = r3.Vec{X: math.Cos(a), Y: math.Sin(a)}
		} else {
			dir = r3.Scale(1/dist, d)
		}
		size := math.Max(p.Size, 0.05)
		strength := math.Exp(-dist*c.RepelFalloff) / (size * c.RepelSizeScale)
		p.Vel.X += dir.X * strength
		p.Vel.Y += dir.Y * strength
		p.Vel.Z += dir.Z * strength * c.RepelZScale
	}
}

// advect adds a small share of the solver velocity at each particle's position.
// The solver must have been stepped for this tick already.
func (s *System) advect() {
	blend := s.cfg.FluidBlend
	for i := range s.particles {
		p := &s.particles[i]
		gx, gy := s.fluid.WorldToGrid(p.Pos.X, p.Pos.Y)
		vx, vy := s.fluid.SampleVelocity(gx, gy)
		p.Vel.X += vx * blend
		p.Vel.Y += vy * blend
	}
}

// integrate advances the idle simulation by one frame.
func (s *System) integrate() {
	if s.fluid != nil {
		s.fluid.Step()
		s.advect()
	} else if s.pointerMoved {
		s.repel(s.pointerWorld())
	}
	s.pointerMoved = false

	c := &s.cfg
	for i := range s.particles {
		p := &s.particles[i]
		p.Pos = r3.Add(p.Pos, p.Vel)

		damp := c.DampingSlow
		if math.Hypot(p.Vel.X, p.Vel.Y) > c.DampingThreshold {
			damp = c.DampingFast
		}
		p.Vel = r3.Scale(damp, p.Vel)

		// no jitter at rest, so idle particles do not shimmer
		if math.Hypot(p.Vel.X, p.Vel.Y) > c.JitterMinSpeed {
			p.Vel.X += s.rng.Centered(c.JitterAmount)
			p.Vel.Y += s.rng.Centered(c.JitterAmount)
			p.Vel.Z += s.rng.Centered(c.JitterAmount)
		}

		if r := math.Hypot(p.Pos.X, p.Pos.Y); r > c.BoundRadius {
			k := (r - c.BoundRadius) * c.BoundStiffness / r
			p.Vel.X -= p.Pos.X * k
			p.Vel.Y -= p.Pos.Y * k
		}
		if math.Abs(p.Pos.Z) > c.ZBound {
			p.Vel.Z -= p.Pos.Z * c.ZStiffness
		}
	}
}

func (s *System) pointerWorld() r3.Vec {
	k := s.cfg.PointerWorldScale
	return r3.Vec{X: s.pointerX * k, Y: s.pointerY * k}
}
