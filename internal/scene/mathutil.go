package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// splitmix64 is a fast, high-quality 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// hashIndex returns a deterministic hash for a particle index under the given seed.
func hashIndex(seed uint64, i int) uint64 {
	return splitmix64(seed ^ uint64(uint32(i))*0x9E3779B185EBCA87)
}

// unitFloat maps a hash onto [0,1).
func unitFloat(h uint64) float64 {
	return float64(h>>11) * (1.0 / (1 << 53))
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finite reports whether every value is neither NaN nor infinite.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// spherical converts (radius, polar phi, azimuth theta) with y as the pole axis.
func spherical(radius, theta, phi float64) r3.Vec {
	return r3.Vec{
		X: radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// Rand is a tiny deterministic RNG (xorshift64*).
type Rand struct {
	s uint64
}

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.NextU64() % uint64(n))
}

func (r *Rand) Float64() float64 {
	return unitFloat(r.NextU64())
}

func (r *Rand) RangeF(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + (max-min)*r.Float64()
}

// Centered returns a value in [-half, half).
func (r *Rand) Centered(half float64) float64 {
	return (r.Float64() - 0.5) * 2 * half
}
