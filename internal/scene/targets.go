package scene

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
)

const (
	glyphPad      = 8
	glyphHeight   = 72
	glyphBaseline = 52
	glyphStep     = 0.5 // sub-pixel sampling step
	textMaxAspect = 0.4 // height/width cap for narrow strings
)

// glyphCanvas is an in-memory 1-bit display that tinyfont draws text into.
type glyphCanvas struct {
	w, h int16
	pix  []bool
}

var _ drivers.Displayer = (*glyphCanvas)(nil)

func newGlyphCanvas(w, h int16) *glyphCanvas {
	return &glyphCanvas{w: w, h: h, pix: make([]bool, int(w)*int(h))}
}

func (g *glyphCanvas) Size() (x, y int16) { return g.w, g.h }

func (g *glyphCanvas) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.pix[int(y)*int(g.w)+int(x)] = c.A > 0 && (c.R > 127 || c.G > 127 || c.B > 127)
}

func (g *glyphCanvas) Display() error { return nil }

func (g *glyphCanvas) lit(x, y int) bool { return g.pix[y*int(g.w)+x] }

// rasterText renders s in bold FreeSans onto a canvas just wide enough to hold it.
func rasterText(s string) *glyphCanvas {
	font := &freesans.Bold24pt7b
	_, outbox := tinyfont.LineWidth(font, s)
	w := int(outbox) + 2*glyphPad
	if w > math.MaxInt16 {
		w = math.MaxInt16
	}
	c := newGlyphCanvas(int16(w), glyphHeight)
	tinyfont.WriteLine(c, font, glyphPad, glyphBaseline, s, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return c
}

// textCloud turns the lit pixels of s into points on the z=0 plane, centred on the
// origin and scaled to width world units, less for tall narrow strings. Every lit pixel
// contributes four sub-pixel samples. Point order is shuffled so index order sweeps
// across the whole word.
func textCloud(s string, width float64, r *Rand) []r3.Vec {
	c := rasterText(s)
	minX, minY, maxX, maxY := int(c.w), int(c.h), -1, -1
	for y := 0; y < int(c.h); y++ {
		for x := 0; x < int(c.w); x++ {
			if !c.lit(x, y) {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return nil
	}
	cx := float64(minX+maxX+1) / 2
	cy := float64(minY+maxY+1) / 2
	scale := math.Min(width/float64(maxX-minX+1), width*textMaxAspect/float64(maxY-minY+1))

	var pts []r3.Vec
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !c.lit(x, y) {
				continue
			}
			for sy := 0.0; sy < 1; sy += glyphStep {
				for sx := 0.0; sx < 1; sx += glyphStep {
					px := float64(x) + sx + glyphStep/2
					py := float64(y) + sy + glyphStep/2
					pts = append(pts, r3.Vec{X: (px - cx) * scale, Y: -(py - cy) * scale})
				}
			}
		}
	}
	for i := len(pts) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}

// starField distributes n points uniformly over directions on shells of radius 40..90,
// centred 10 units behind the origin.
func starField(n int, r *Rand) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		theta := r.Float64() * 2 * math.Pi
		phi := math.Acos(r.Float64()*2 - 1)
		p := spherical(r.RangeF(40, 90), theta, phi)
		p.Z -= 10
		pts[i] = p
	}
	return pts
}

// targets caches the point clouds. Each is built on first use and reused afterwards.
type targets struct {
	seed  uint64
	text  string
	width float64

	textPts []r3.Vec
	textOK  bool
	stars   []r3.Vec
	dots    []globeDot
}

func (t *targets) textCloud() []r3.Vec {
	if !t.textOK {
		t.textPts = textCloud(t.text, t.width, NewRand(t.seed^0x7E47C10D))
		t.textOK = true
	}
	return t.textPts
}

func (t *targets) starField(n int) []r3.Vec {
	if len(t.stars) != n {
		t.stars = starField(n, NewRand(t.seed^0x57A2F1E1D))
	}
	return t.stars
}

func (t *targets) globeDots() []globeDot {
	if t.dots == nil {
		t.dots = continentDots(NewRand(t.seed ^ 0x610BE))
	}
	return t.dots
}
