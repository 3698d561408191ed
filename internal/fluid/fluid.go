package fluid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidGrid   = errors.New("fluid: invalid grid")
	ErrInvalidRadius = errors.New("fluid: force radius must be positive")
)

// Solver defaults.
const (
	DefaultWidth       = 64
	DefaultHeight      = 64
	DefaultViscosity   = 0.1
	DefaultDT          = 1.0 / 60.0
	DefaultDiffuseIter = 5
	DefaultPressIter   = 10
	DefaultDissipation = 0.98 // velocity retained per step
	DefaultWorldExtent = 50.0 // world spans [-extent, extent] on both axes

	// MinGridSize is the smallest accepted width and height. Below it a single Step can
	// leave the interior divergence higher than before.
	MinGridSize = 8
)

// Solver is a 2D staggered-grid velocity field.
//
// u holds horizontal velocity on vertical cell faces, (w+1)*h entries, face (i,j) at grid
// position (i, j+0.5). v holds vertical velocity on horizontal faces, w*(h+1) entries,
// face (i,j) at (i+0.5, j). Both arrays are row-major.
type Solver struct {
	w, h int

	u, v   []float64
	u0, v0 []float64 // diffusion scratch

	div   []float64
	p, p0 []float64 // pressure scratch, rebuilt every step

	viscosity   float64
	dt          float64
	diffuseIter int
	pressIter   int
	dissipation float64
	extent      float64
}

// Option configures a Solver.
type Option func(*Solver)

func WithViscosity(v float64) Option     { return func(s *Solver) { s.viscosity = v } }
func WithTimeStep(dt float64) Option     { return func(s *Solver) { s.dt = dt } }
func WithDiffuseIterations(n int) Option { return func(s *Solver) { s.diffuseIter = n } }
func WithPressureIterations(n int) Option {
	return func(s *Solver) { s.pressIter = n }
}

// WithDissipation sets the fraction of velocity kept after each step.
func WithDissipation(f float64) Option { return func(s *Solver) { s.dissipation = f } }

// WithWorldExtent sets the half-size of the square world region mapped onto the grid.
func WithWorldExtent(e float64) Option { return func(s *Solver) { s.extent = e } }

func New(width, height int, opts ...Option) (*Solver, error) {
	if width < MinGridSize || height < MinGridSize {
		return nil, fmt.Errorf("new solver %dx%d, minimum %d: %w", width, height, MinGridSize, ErrInvalidGrid)
	}
	s := &Solver{
		w:           width,
		h:           height,
		viscosity:   DefaultViscosity,
		dt:          DefaultDT,
		diffuseIter: DefaultDiffuseIter,
		pressIter:   DefaultPressIter,
		dissipation: DefaultDissipation,
		extent:      DefaultWorldExtent,
	}
	for _, o := range opts {
		o(s)
	}
	if s.dt <= 0 || s.extent <= 0 || s.diffuseIter < 0 || s.pressIter < 0 {
		return nil, fmt.Errorf("new solver: dt=%v extent=%v iterations=%d/%d: %w",
			s.dt, s.extent, s.diffuseIter, s.pressIter, ErrInvalidGrid)
	}
	if s.dissipation <= 0 || s.dissipation >= 1 {
		return nil, fmt.Errorf("new solver: dissipation %v outside (0,1): %w", s.dissipation, ErrInvalidGrid)
	}

	nu := (width + 1) * height
	nv := width * (height + 1)
	nc := width * height
	s.u = make([]float64, nu)
	s.v = make([]float64, nv)
	s.u0 = make([]float64, nu)
	s.v0 = make([]float64, nv)
	s.div = make([]float64, nc)
	s.p = make([]float64, nc)
	s.p0 = make([]float64, nc)
	return s, nil
}

func (s *Solver) Width() int  { return s.w }
func (s *Solver) Height() int { return s.h }

// U and V expose the raw staggered arrays. Callers must not retain them across Step.
func (s *Solver) U() []float64 { return s.u }
func (s *Solver) V() []float64 { return s.v }

func (s *Solver) uIdx(i, j int) int { return j*(s.w+1) + i }
func (s *Solver) vIdx(i, j int) int { return j*s.w + i }

// Step advances the field by one fixed timestep.
func (s *Solver) Step() {
	s.diffuse()
	s.applyBoundaries()
	s.computeDivergence()
	s.solvePressure()
	s.subtractPressureGradient()
	s.applyBoundaries()
	floats.Scale(s.dissipation, s.u)
	floats.Scale(s.dissipation, s.v)
}

// Clear zeroes every field.
func (s *Solver) Clear() {
	for _, f := range [][]float64{s.u, s.v, s.u0, s.v0, s.div, s.p, s.p0} {
		for i := range f {
			f[i] = 0
		}
	}
}

// AddForce injects momentum around a world position with a quadratic falloff.
func (s *Solver) AddForce(worldX, worldY, forceX, forceY, radius float64) error {
	if !(radius > 0) {
		return fmt.Errorf("add force radius %v: %w", radius, ErrInvalidRadius)
	}
	gx, gy := s.WorldToGrid(worldX, worldY)

	i0 := clamp(int(gx-radius)-1, 0, s.w)
	i1 := clamp(int(gx+radius)+1, 0, s.w)
	j0 := clamp(int(gy-radius)-1, 0, s.h)
	j1 := clamp(int(gy+radius)+1, 0, s.h)

	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			if j < s.h {
				if wt := falloff(float64(i)-gx, float64(j)+0.5-gy, radius); wt > 0 {
					s.u[s.uIdx(i, j)] += forceX * wt
				}
			}
			if i < s.w {
				if wt := falloff(float64(i)+0.5-gx, float64(j)-gy, radius); wt > 0 {
					s.v[s.vIdx(i, j)] += forceY * wt
				}
			}
		}
	}
	return nil
}

func falloff(dx, dy, radius float64) float64 {
	d2 := dx*dx + dy*dy
	if d2 >= radius*radius {
		return 0
	}
	f := 1 - math.Sqrt(d2)/radius
	return f * f
}

// diffuse smooths both components with repeated Jacobi sweeps. Boundary faces act as
// zero-valued neighbours; faces along the tangential edges mirror themselves.
func (s *Solver) diffuse() {
	if s.viscosity <= 0 || s.diffuseIter == 0 {
		return
	}
	a := s.viscosity * s.dt
	inv := 1 / (1 + 4*a)
	w, h := s.w, s.h
	uw := w + 1

	for it := 0; it < s.diffuseIter; it++ {
		copy(s.u0, s.u)
		for j := 0; j < h; j++ {
			for i := 1; i < w; i++ {
				c := s.u0[j*uw+i]
				l, r := 0.0, 0.0
				if i > 1 {
					l = s.u0[j*uw+i-1]
				}
				if i < w-1 {
					r = s.u0[j*uw+i+1]
				}
				dn, up := c, c
				if j > 0 {
					dn = s.u0[(j-1)*uw+i]
				}
				if j < h-1 {
					up = s.u0[(j+1)*uw+i]
				}
				s.u[j*uw+i] = (c + a*(l+r+dn+up)) * inv
			}
		}

		copy(s.v0, s.v)
		for j := 1; j < h; j++ {
			for i := 0; i < w; i++ {
				c := s.v0[j*w+i]
				dn, up := 0.0, 0.0
				if j > 1 {
					dn = s.v0[(j-1)*w+i]
				}
				if j < h-1 {
					up = s.v0[(j+1)*w+i]
				}
				l, r := c, c
				if i > 0 {
					l = s.v0[j*w+i-1]
				}
				if i < w-1 {
					r = s.v0[j*w+i+1]
				}
				s.v[j*w+i] = (c + a*(l+r+dn+up)) * inv
			}
		}
	}
}

// applyBoundaries zeroes the no-flux wall faces.
func (s *Solver) applyBoundaries() {
	for j := 0; j < s.h; j++ {
		s.u[s.uIdx(0, j)] = 0
		s.u[s.uIdx(s.w, j)] = 0
	}
	for i := 0; i < s.w; i++ {
		s.v[s.vIdx(i, 0)] = 0
		s.v[s.vIdx(i, s.h)] = 0
	}
}

func (s *Solver) computeDivergence() {
	for j := 0; j < s.h; j++ {
		for i := 0; i < s.w; i++ {
			s.div[j*s.w+i] = s.cellDivergence(i, j)
		}
	}
}

func (s *Solver) cellDivergence(i, j int) float64 {
	return (s.u[s.uIdx(i+1, j)] - s.u[s.uIdx(i, j)]) + (s.v[s.vIdx(i, j+1)] - s.v[s.vIdx(i, j)])
}

// solvePressure relaxes lap(p) = div from p = 0. Wall faces carry no gradient, so each
// cell only couples to the neighbours it shares an open face with.
func (s *Solver) solvePressure() {
	for i := range s.p {
		s.p[i] = 0
	}
	w, h := s.w, s.h
	for it := 0; it < s.pressIter; it++ {
		copy(s.p0, s.p)
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				sum := 0.0
				n := 0
				if i > 0 {
					sum += s.p0[j*w+i-1]
					n++
				}
				if i < w-1 {
					sum += s.p0[j*w+i+1]
					n++
				}
				if j > 0 {
					sum += s.p0[(j-1)*w+i]
					n++
				}
				if j < h-1 {
					sum += s.p0[(j+1)*w+i]
					n++
				}
				if n == 0 {
					continue
				}
				s.p[j*w+i] = (sum - s.div[j*w+i]) / float64(n)
			}
		}
	}
}

func (s *Solver) subtractPressureGradient() {
	w := s.w
	for j := 0; j < s.h; j++ {
		for i := 1; i < w; i++ {
			s.u[s.uIdx(i, j)] -= s.p[j*w+i] - s.p[j*w+i-1]
		}
	}
	for j := 1; j < s.h; j++ {
		for i := 0; i < w; i++ {
			s.v[s.vIdx(i, j)] -= s.p[j*w+i] - s.p[(j-1)*w+i]
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
