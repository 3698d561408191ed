package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	formDuration     = 3.0
	formSizeDuration = 2.0
	formSizeGain     = 1.5
	overflowSizeGain = 0.5
)

var overflowColor = colorful.Color{R: 0.1, G: 0.1, B: 0.2}

// scheduleText sends the first len(cloud) particles onto the text cloud with a per-index
// stagger. Surplus particles leave on a wide ring far behind the text and fade out.
func (s *System) scheduleText(start float64) {
	cloud := s.targets.textCloud()
	n := min(len(cloud), len(s.particles))
	count := float64(len(s.particles))
	r := NewRand(s.cfg.Seed ^ 0xF0A3)

	for i := range s.particles {
		// idle physics moved the particle since its schedule was last applied
		s.sched[i] = newSchedule(s.particles[i])
		sc := &s.sched[i]
		size := s.particles[i].Size

		if i < n {
			at := start + float64(i)*s.cfg.FormStagger
			sc.pos.add(segment[r3.Vec]{start: at, dur: formDuration, to: cloud[i], ease: easePower3InOut})
			sc.size.add(segment[float64]{start: at, dur: formSizeDuration, to: size * formSizeGain, ease: easePower2InOut})
			continue
		}

		a := float64(i) / count * 2 * math.Pi
		radius := r.RangeF(100, 150)
		ring := r3.Vec{X: math.Cos(a) * radius, Y: math.Sin(a) * radius, Z: -r.RangeF(50, 100)}
		sc.pos.add(segment[r3.Vec]{start: start, dur: formDuration, to: ring, ease: easePower2InOut})
		sc.col.add(segment[colorful.Color]{start: start, dur: formDuration, to: overflowColor, ease: easePower2InOut})
		sc.size.add(segment[float64]{start: start, dur: formDuration, to: size * overflowSizeGain, ease: easePower2InOut})
	}
}
