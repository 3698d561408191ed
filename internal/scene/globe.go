package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/gonum/spatial/r3"
)

// Globe parameters.
const (
	GlobeRadius      = 25.0
	GlobeCenterZ     = -10.0
	globeDotRadius   = GlobeRadius + 0.1
	globeDragGain    = 0.00005 // rotation velocity per dragged pixel
	globeDamping     = 0.98
	globeMaxVelocity = 0.02
	globeMaxTilt     = math.Pi / 3
	globeMinSpin     = 0.0005
	globeIdleSpin    = 0.001
	globeFade        = 2.0
	globeDotDelay    = 0.5
	globeDotOpacity  = 0.8
)

type globeDot struct {
	Pos  r3.Vec // model space, before rotation
	Col  colorful.Color
	Size float64
}

// Globe is the dotted world revealed once the star field settles. Rotation is driven by
// pointer drags and decays toward a slow idle spin.
type Globe struct {
	born       float64
	RotX, RotY float64
	VelX, VelY float64
}

func newGlobe(now float64) *Globe {
	return &Globe{born: now}
}

func (g *Globe) drag(dxPx, dyPx float64) {
	g.VelY += dxPx * globeDragGain
	g.VelX += dyPx * globeDragGain
}

// update advances rotation by one frame.
func (g *Globe) update() {
	g.RotY += g.VelY
	g.RotX = clampF(g.RotX+g.VelX, -globeMaxTilt, globeMaxTilt)

	g.VelX = clampF(g.VelX*globeDamping, -globeMaxVelocity, globeMaxVelocity)
	g.VelY = clampF(g.VelY*globeDamping, -globeMaxVelocity, globeMaxVelocity)
	if math.Abs(g.VelY) < globeMinSpin {
		g.VelY = globeIdleSpin
	}
}

func (g *Globe) opacity(now float64) float64 {
	return easePower2InOut(clampF((now-g.born)/globeFade, 0, 1))
}

func (g *Globe) dotOpacity(now float64) float64 {
	return globeDotOpacity * easePower2InOut(clampF((now-g.born-globeDotDelay)/globeFade, 0, 1))
}

// continent is a simplified lat/lon outline with its dot colour.
type continent struct {
	col colorful.Color
	in  func(lat, lon float64) bool
}

var continents = []continent{
	{colorful.Color{R: 0.4, G: 0.8, B: 0.4}, func(lat, lon float64) bool { // north america
		return lat > 15 && lat < 75 && lon > -170 && lon < -50 &&
			(lat > 50 || (lat > 25 && lon > -130 && lon < -70))
	}},
	{colorful.Color{R: 1.0, G: 0.6, B: 0.2}, func(lat, lon float64) bool { // south america
		return lat > -60 && lat < 15 && lon > -85 && lon < -35 && !(lat < -50 && lon < -70)
	}},
	{colorful.Color{R: 0.9, G: 0.4, B: 0.4}, func(lat, lon float64) bool { // africa
		return lat > -35 && lat < 40 && lon > -20 && lon < 55 && !(lat > 30 && lon < 10)
	}},
	{colorful.Color{R: 0.4, G: 0.6, B: 1.0}, func(lat, lon float64) bool { // europe
		return lat > 35 && lat < 72 && lon > -10 && lon < 60 && !(lat < 40 && lon > 40)
	}},
	{colorful.Color{R: 0.8, G: 0.4, B: 0.8}, func(lat, lon float64) bool { // asia
		return lat > -10 && lat < 75 && (lon > 25 || (lon < -140 && lat > 50))
	}},
	{colorful.Color{R: 1.0, G: 0.9, B: 0.3}, func(lat, lon float64) bool { // australia
		return lat > -45 && lat < -10 && lon > 110 && lon < 155
	}},
}

// continentAt returns the first outline containing (lat, lon).
func continentAt(lat, lon float64) (continent, bool) {
	for _, c := range continents {
		if c.in(lat, lon) {
			return c, true
		}
	}
	return continent{}, false
}

// latitudeShade dims dots toward the poles.
var latitudeShade = mustGradient("#ffffff", "#e6ecf5", "#8a96a8")

func mustGradient(colors ...string) colorgrad.Gradient {
	g, err := colorgrad.NewGradient().HtmlColors(colors...).Build()
	if err != nil {
		panic(err)
	}
	return g
}

// continentDots samples a 1x2 degree lat/lon grid and keeps the points on land.
func continentDots(r *Rand) []globeDot {
	var dots []globeDot
	for lat := -90.0; lat <= 90; lat++ {
		for lon := -180.0; lon <= 180; lon += 2 {
			c, ok := continentAt(lat, lon)
			if !ok {
				continue
			}
			phi := (90 - lat) * math.Pi / 180
			theta := (lon + 180) * math.Pi / 180
			p := spherical(globeDotRadius, theta, phi)
			p.X = -p.X
			shade := latitudeShade.At(math.Abs(lat) / 90)
			dots = append(dots, globeDot{
				Pos:  p,
				Col:  colorful.Color{R: c.col.R * shade.R, G: c.col.G * shade.G, B: c.col.B * shade.B},
				Size: r.RangeF(0.8, 1.2),
			})
		}
	}
	return dots
}

// appendGlobeDots projects dots into a flat buffer in the particle vertex format,
// already rotated and translated into world space.
func appendGlobeDots(buf []float32, dots []globeDot, g *Globe, alpha float64) []float32 {
	a := float32(clampF(alpha, 0, 1))
	for _, d := range dots {
		p := r3.Rotate(d.Pos, g.RotY, r3.Vec{Y: 1})
		p = r3.Rotate(p, g.RotX, r3.Vec{X: 1})
		p.Z += GlobeCenterZ
		buf = append(buf,
			float32(p.X), float32(p.Y), float32(p.Z), float32(d.Size),
			float32(d.Col.R), float32(d.Col.G), float32(d.Col.B), a)
	}
	return buf
}
