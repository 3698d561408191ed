package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

type Particle struct {
	Pos, Vel r3.Vec
	Col      colorful.Color // components in [0,1]
	Size     float64
}

// VertexStride is the number of float32 values per particle in a render buffer.
const VertexStride = 8

// spawnParticles scatters n particles through a 100x100x50 box with a small random
// drift, a saturated random hue and a size in [0.5, 2.5).
func spawnParticles(n int, r *Rand) []Particle {
	ps := make([]Particle, n)
	for i := range ps {
		p := &ps[i]
		p.Pos = r3.Vec{X: r.Centered(50), Y: r.Centered(50), Z: r.Centered(25)}
		p.Vel = r3.Vec{X: r.Centered(0.025), Y: r.Centered(0.025), Z: r.Centered(0.025)}
		p.Col = colorful.Hsl(r.RangeF(0, 360), r.RangeF(0.7, 1.0), r.RangeF(0.4, 0.7)).Clamped()
		p.Size = r.RangeF(0.5, 2.5)
	}
	return ps
}

// appendVertices projects particles into a flat buffer.
// Format: [x, y, z, size, r, g, b, a] * N.
func appendVertices(buf []float32, ps []Particle, alpha float64) []float32 {
	a := float32(clampF(alpha, 0, 1))
	for _, p := range ps {
		buf = append(buf,
			float32(p.Pos.X), float32(p.Pos.Y), float32(p.Pos.Z), float32(p.Size),
			float32(clampF(p.Col.R, 0, 1)), float32(clampF(p.Col.G, 0, 1)), float32(clampF(p.Col.B, 0, 1)), a)
	}
	return buf
}
