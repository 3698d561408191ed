package scene

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// segment interpolates from one value to another over [start, start+dur).
// A yoyo segment repeats forever, reversing direction every dur seconds.
type segment[T any] struct {
	start, dur float64
	from, to   T
	ease       Ease
	yoyo       bool
}

func (s segment[T]) progress(t float64) float64 {
	if s.dur <= 0 {
		return 1
	}
	p := (t - s.start) / s.dur
	if s.yoyo {
		cycle := math.Floor(p)
		p -= cycle
		if int64(cycle)%2 == 1 {
			p = 1 - p
		}
	}
	p = clampF(p, 0, 1)
	if s.ease != nil {
		p = s.ease(p)
	}
	return p
}

func (s segment[T]) end() float64 {
	if s.yoyo {
		return math.Inf(1)
	}
	return s.start + s.dur
}

// track is the schedule of one particle attribute. Its value at time t is a pure function
// of t: the latest segment that has started wins, and base applies before any segment.
type track[T any] struct {
	base T
	segs []segment[T]
	mix  func(a, b T, t float64) T
}

func (tr *track[T]) at(t float64) T {
	for i := len(tr.segs) - 1; i >= 0; i-- {
		s := tr.segs[i]
		if s.start <= t {
			return tr.mix(s.from, s.to, s.progress(t))
		}
	}
	return tr.base
}

// rebase freezes the value at t and drops every segment.
func (tr *track[T]) rebase(t float64) {
	tr.base = tr.at(t)
	tr.segs = tr.segs[:0]
}

// add schedules a segment whose starting value is the track's value at its start time.
func (tr *track[T]) add(s segment[T]) {
	s.from = tr.at(s.start)
	tr.segs = append(tr.segs, s)
	sort.SliceStable(tr.segs, func(i, j int) bool { return tr.segs[i].start < tr.segs[j].start })
}

// end is the latest finite end time, or -Inf for an empty track.
func (tr *track[T]) end() float64 {
	e := math.Inf(-1)
	for _, s := range tr.segs {
		if se := s.end(); !math.IsInf(se, 1) && se > e {
			e = se
		}
	}
	return e
}

func (tr *track[T]) firstStart() float64 {
	if len(tr.segs) == 0 {
		return math.Inf(1)
	}
	return tr.segs[0].start
}

func mixColor(a, b colorful.Color, t float64) colorful.Color { return a.BlendRgb(b, t) }

// schedule holds the three animated attributes of one particle.
type schedule struct {
	pos  track[r3.Vec]
	col  track[colorful.Color]
	size track[float64]
}

func newSchedule(p Particle) schedule {
	return schedule{
		pos:  track[r3.Vec]{base: p.Pos, mix: lerpVec},
		col:  track[colorful.Color]{base: p.Col, mix: mixColor},
		size: track[float64]{base: p.Size, mix: lerp},
	}
}

func (s *schedule) rebase(t float64) {
	s.pos.rebase(t)
	s.col.rebase(t)
	s.size.rebase(t)
}

func (s *schedule) end() float64 {
	return math.Max(s.pos.end(), math.Max(s.col.end(), s.size.end()))
}

// apply writes the scheduled attributes at time t into p. Velocity is left untouched.
func (s *schedule) apply(t float64, p *Particle) {
	p.Pos = s.pos.at(t)
	p.Col = s.col.at(t)
	p.Size = s.size.at(t)
}
