package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WorldToGrid maps a world position in [-extent, extent] onto grid space [0,w]x[0,h].
// Positions outside the world region are clamped onto its edge.
func (s *Solver) WorldToGrid(x, y float64) (gx, gy float64) {
	e := s.extent
	gx = (clampF(x, -e, e) + e) / (2 * e) * float64(s.w)
	gy = (clampF(y, -e, e) + e) / (2 * e) * float64(s.h)
	return gx, gy
}

// GridToWorld is the inverse of WorldToGrid for in-range coordinates.
func (s *Solver) GridToWorld(gx, gy float64) (x, y float64) {
	e := s.extent
	x = gx/float64(s.w)*2*e - e
	y = gy/float64(s.h)*2*e - e
	return x, y
}

// SampleVelocity interpolates both components at a grid position. Each component is read
// from its own staggered array, so u(i,j) is returned unchanged at (i, j+0.5) and v(i,j)
// at (i+0.5, j).
func (s *Solver) SampleVelocity(gx, gy float64) (vx, vy float64) {
	vx = bilinear(s.u, s.w+1, s.h, gx, gy-0.5)
	vy = bilinear(s.v, s.w, s.h+1, gx-0.5, gy)
	return vx, vy
}

// bilinear samples a row-major nx*ny array at fractional index (x, y), clamped to the array.
func bilinear(f []float64, nx, ny int, x, y float64) float64 {
	x = clampF(x, 0, float64(nx-1))
	y = clampF(y, 0, float64(ny-1))
	x0, x1, fx := cellSpan(x, nx)
	y0, y1, fy := cellSpan(y, ny)

	a := f[y0*nx+x0]*(1-fx) + f[y0*nx+x1]*fx
	b := f[y1*nx+x0]*(1-fx) + f[y1*nx+x1]*fx
	return a*(1-fy) + b*fy
}

func cellSpan(x float64, n int) (i0, i1 int, frac float64) {
	if n == 1 {
		return 0, 0, 0
	}
	i0 = clamp(int(math.Floor(x)), 0, n-2)
	i1 = i0 + 1
	return i0, i1, x - float64(i0)
}

// Divergence is the net outflow of cell (i, j). Indices are clamped to the grid.
func (s *Solver) Divergence(i, j int) float64 {
	return s.cellDivergence(clamp(i, 0, s.w-1), clamp(j, 0, s.h-1))
}

// MeanAbsDivergence averages |div| over cells that share no face with a wall.
// Grids without interior cells fall back to every cell.
func (s *Solver) MeanAbsDivergence() float64 {
	i0, i1, j0, j1 := 1, s.w-1, 1, s.h-1
	if i1 <= i0 || j1 <= j0 {
		i0, i1, j0, j1 = 0, s.w, 0, s.h
	}
	sum := 0.0
	n := 0
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			sum += math.Abs(s.cellDivergence(i, j))
			n++
		}
	}
	return sum / float64(n)
}

// Energy is the sum of squared face velocities.
func (s *Solver) Energy() float64 {
	return floats.Dot(s.u, s.u) + floats.Dot(s.v, s.v)
}

// MaxAbs is the largest absolute face velocity of either component.
func (s *Solver) MaxAbs() float64 {
	return math.Max(floats.Norm(s.u, math.Inf(1)), floats.Norm(s.v, math.Inf(1)))
}
