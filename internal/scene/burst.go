package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Burst timing, in seconds from the trigger.
const (
	burstDuration     = 2.0
	burstSpikeTime    = 0.5
	burstSettleTime   = 1.5
	burstGlowTime     = 0.8
	starDelay         = 2.5
	starMoveTime      = 2.0
	starFadeTime      = 1.5
	pulseHalfPeriod   = 3.0
	flashRise         = 0.1
	flashFall         = 0.5
	flashPeak         = 0.6
	shakeIntensity    = 1.0
	shakeDuration     = 1.0
	specialRadius     = 55.0
	specialSize       = 1.5
	specialPulseSize  = 2.0
	clusterSpread     = 0.2
	burstAngleJitter  = 0.25
	burstSpiralFactor = 0.001
)

var (
	specialTheta = math.Pi * 1.2
	specialPhi   = math.Pi * 0.3
	specialColor = colorful.Color{R: 0.9, G: 0.9, B: 1.0}

	// starTint runs from neutral white to a cool blue-white.
	starTint = mustGradient("#ffffff", "#eef2ff", "#d4ddff")
)

// scheduleBurst blows every particle outward from where it stands, then retargets the
// whole set onto the star field. The special star and its cluster get fixed slots.
func (s *System) scheduleBurst(start float64) {
	r := NewRand(s.cfg.Seed ^ 0xB0057)
	stars := s.targets.starField(len(s.particles))
	special := s.cfg.SpecialIndex
	clusterEnd := special + s.cfg.ClusterSize

	for i := range s.particles {
		sc := &s.sched[i]
		sc.rebase(start)
		p := s.particles[i]
		fi := float64(i)

		// phase 1: explosion
		at := start + fi*s.cfg.BurstStagger
		angle := math.Atan2(p.Pos.Y, p.Pos.X) + r.Centered(burstAngleJitter) + fi*burstSpiralFactor
		force := r.RangeF(30, 70)
		out := r3.Vec{
			X: p.Pos.X + math.Cos(angle)*force,
			Y: p.Pos.Y + math.Sin(angle)*force,
			Z: r.Centered(10),
		}
		sc.pos.add(segment[r3.Vec]{start: at, dur: burstDuration, to: out, ease: easePower2Out})
		sc.size.add(segment[float64]{start: at, dur: burstSpikeTime, to: p.Size * 4, ease: easePower2Out})
		sc.size.add(segment[float64]{start: at + burstSpikeTime, dur: burstSettleTime, to: p.Size * 1.5, ease: easePower2InOut})
		glow := colorful.Color{R: math.Min(1, p.Col.R*2), G: math.Min(1, p.Col.G*2), B: math.Min(1, p.Col.B*2)}
		sc.col.add(segment[colorful.Color]{start: at, dur: burstGlowTime, to: glow, ease: easePower2Out})

		// phase 2: star field
		starAt := start + starDelay + fi*s.cfg.StarStagger
		fadeAt := start + starDelay
		var (
			pos  r3.Vec
			col  colorful.Color
			size float64
		)
		switch {
		case i == special:
			pos = spherical(specialRadius, specialTheta, specialPhi)
			col = specialColor
			size = specialSize
		case i > special && i <= clusterEnd:
			theta := specialTheta + float64(i-special)*clusterSpread
			phi := specialPhi + r.Centered(0.05)
			pos = spherical(specialRadius+r.Centered(2.5), theta, phi)
			b := r.RangeF(0.7, 1.0)
			col = colorful.Color{R: b, G: b, B: math.Min(1, b+0.1)}
			size = r.RangeF(0.8, 1.2)
		default:
			pos = stars[i]
			b := r.RangeF(0.5, 1.0)
			t := starTint.At(r.Float64())
			col = colorful.Color{R: b * t.R, G: b * t.G, B: b * t.B}
			size = r.RangeF(0.2, 1.0)
		}
		if i == special || (i > special && i <= clusterEnd) {
			pos.Z -= 10
		}
		sc.pos.add(segment[r3.Vec]{start: starAt, dur: starMoveTime, to: pos, ease: easePower3InOut})
		sc.col.add(segment[colorful.Color]{start: fadeAt, dur: starFadeTime, to: col, ease: easePower2InOut})
		sc.size.add(segment[float64]{start: fadeAt, dur: starFadeTime, to: size, ease: easePower2InOut})
		if i == special {
			sc.size.add(segment[float64]{
				start: fadeAt + starFadeTime, dur: pulseHalfPeriod,
				to: specialPulseSize, ease: sineInOut, yoyo: true,
			})
		}
	}
	s.special = special
	s.burstAt = start
	s.cam.AddShake(shakeIntensity, shakeDuration)
}

// flash is the opacity of the white full-screen flash at time now.
func (s *System) flash(now float64) float64 {
	if s.burstAt < 0 {
		return 0
	}
	t := now - s.burstAt
	switch {
	case t < 0:
		return 0
	case t < flashRise:
		return flashPeak * easePower2Out(t/flashRise)
	case t < flashRise+flashFall:
		return flashPeak * (1 - easePower2InOut((t-flashRise)/flashFall))
	}
	return 0
}
