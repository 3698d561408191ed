package desktop

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"gonum.org/v1/gonum/spatial/r3"

	"stardust/internal/scene"
)

// Background and ocean colours.
var (
	clearColor = [3]float32{0.0, 0.0, 0.02}
	oceanColor = [3]float32{0.04, 0.1, 0.25}
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Renderer draws scene frames: particles and globe dots as point sprites, the globe body
// and the burst flash as NDC quads.
type Renderer struct {
	// Point sprite program.
	spriteProg uint32
	spriteVAO  uint32
	spriteVBO  uint32

	uEye       int32
	uFocal     int32
	uAspect    int32
	uRotY      int32
	uViewportH int32
	uAlpha     int32

	// Overlay quad shared by the flash and globe programs.
	quadVAO uint32
	quadVBO uint32

	flashProg    uint32
	flashCenter  int32
	flashExtent  int32
	flashUAlpha  int32
	globeProg    uint32
	globeCenter  int32
	globeExtent  int32
	globeUAlpha  int32
	globeUColour int32
}

func NewRenderer() (*Renderer, error) {
	spriteProg, err := linkProgram(particleVertSrc, particleFragSrc)
	if err != nil {
		return nil, fmt.Errorf("sprite program: %w", err)
	}
	flashProg, err := linkProgram(overlayVertSrc, flashFragSrc)
	if err != nil {
		gl.DeleteProgram(spriteProg)
		return nil, fmt.Errorf("flash program: %w", err)
	}
	globeProg, err := linkProgram(overlayVertSrc, globeFragSrc)
	if err != nil {
		gl.DeleteProgram(spriteProg)
		gl.DeleteProgram(flashProg)
		return nil, fmt.Errorf("globe program: %w", err)
	}

	r := &Renderer{
		spriteProg: spriteProg,
		flashProg:  flashProg,
		globeProg:  globeProg,
	}

	// Sprite VAO/VBO: streaming buffer in the scene vertex layout.
	var sVAO, sVBO uint32
	gl.GenVertexArrays(1, &sVAO)
	gl.GenBuffers(1, &sVBO)
	gl.BindVertexArray(sVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, sVBO)

	stride := int32(scene.VertexStride * 4)
	// aPos (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(3*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(4*4))
	r.spriteVAO = sVAO
	r.spriteVBO = sVBO

	gl.UseProgram(spriteProg)
	r.uEye = gl.GetUniformLocation(spriteProg, gl.Str("uEye\x00"))
	r.uFocal = gl.GetUniformLocation(spriteProg, gl.Str("uFocal\x00"))
	r.uAspect = gl.GetUniformLocation(spriteProg, gl.Str("uAspect\x00"))
	r.uRotY = gl.GetUniformLocation(spriteProg, gl.Str("uRotY\x00"))
	r.uViewportH = gl.GetUniformLocation(spriteProg, gl.Str("uViewportH\x00"))
	r.uAlpha = gl.GetUniformLocation(spriteProg, gl.Str("uAlpha\x00"))

	// Quad VAO/VBO: two triangles covering -1..1.
	var qVAO, qVBO uint32
	gl.GenVertexArrays(1, &qVAO)
	gl.GenBuffers(1, &qVBO)
	gl.BindVertexArray(qVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, qVBO)
	quadVerts := [12]float32{
		-1, -1, 1, -1, 1, 1,
		-1, -1, 1, 1, -1, 1,
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVerts)*4, gl.Ptr(&quadVerts[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, glOffset(0))
	r.quadVAO = qVAO
	r.quadVBO = qVBO

	gl.UseProgram(flashProg)
	r.flashCenter = gl.GetUniformLocation(flashProg, gl.Str("uCenter\x00"))
	r.flashExtent = gl.GetUniformLocation(flashProg, gl.Str("uExtent\x00"))
	r.flashUAlpha = gl.GetUniformLocation(flashProg, gl.Str("uAlpha\x00"))

	gl.UseProgram(globeProg)
	r.globeCenter = gl.GetUniformLocation(globeProg, gl.Str("uCenter\x00"))
	r.globeExtent = gl.GetUniformLocation(globeProg, gl.Str("uExtent\x00"))
	r.globeUAlpha = gl.GetUniformLocation(globeProg, gl.Str("uAlpha\x00"))
	r.globeUColour = gl.GetUniformLocation(globeProg, gl.Str("uColor\x00"))

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.spriteVBO, r.quadVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.spriteVAO, r.quadVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.spriteProg, r.flashProg, r.globeProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
	*r = Renderer{}
}

// Draw renders one frame into the current framebuffer.
func (r *Renderer) Draw(f *scene.Frame, fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.ClearColor(clearColor[0], clearColor[1], clearColor[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	focal := focalLength(f.FOV)
	if f.Globe.Visible && f.Globe.Opacity > 0 {
		r.drawGlobeBody(f, focal)
	}

	gl.UseProgram(r.spriteProg)
	gl.Uniform3f(r.uEye, float32(f.Eye.X), float32(f.Eye.Y), float32(f.Eye.Z))
	gl.Uniform1f(r.uFocal, float32(focal))
	gl.Uniform1f(r.uAspect, float32(f.Aspect))
	gl.Uniform1f(r.uViewportH, float32(fbH))
	gl.Uniform1f(r.uAlpha, 1)

	gl.Uniform1f(r.uRotY, float32(f.RotationY))
	r.drawSprites(f.Vertices, f.Count)

	if f.Globe.Visible && f.Globe.DotCount > 0 {
		// Dots arrive in world space.
		gl.Uniform1f(r.uRotY, 0)
		r.drawSprites(f.Globe.Dots, f.Globe.DotCount)
	}

	if f.Flash > 0 {
		r.drawQuad(r.flashProg, r.flashCenter, r.flashExtent, 0, 0, 1, 1)
		gl.Uniform1f(r.flashUAlpha, float32(f.Flash))
		r.blitQuad()
	}
}

func (r *Renderer) drawSprites(buf []float32, count int) {
	n := min(count, len(buf)/scene.VertexStride)
	if n == 0 {
		return
	}
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.BufferData(gl.ARRAY_BUFFER, n*scene.VertexStride*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(n))
	gl.Disable(gl.BLEND)
}

func (r *Renderer) drawGlobeBody(f *scene.Frame, focal float64) {
	cx, cy, ex, ey, ok := discNDC(f.Globe.Center, f.Globe.Radius, f.Eye, focal, f.Aspect)
	if !ok {
		return
	}
	r.drawQuad(r.globeProg, r.globeCenter, r.globeExtent, cx, cy, ex, ey)
	gl.Uniform1f(r.globeUAlpha, float32(f.Globe.Opacity))
	gl.Uniform3f(r.globeUColour, oceanColor[0], oceanColor[1], oceanColor[2])
	r.blitQuad()
}

func (r *Renderer) drawQuad(prog uint32, uCenter, uExtent int32, cx, cy, ex, ey float64) {
	gl.UseProgram(prog)
	gl.Uniform2f(uCenter, float32(cx), float32(cy))
	gl.Uniform2f(uExtent, float32(ex), float32(ey))
}

func (r *Renderer) blitQuad() {
	gl.BindVertexArray(r.quadVAO)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

// focalLength is the projection scale for a vertical field of view in degrees.
func focalLength(fovDeg float64) float64 {
	return 1 / math.Tan(fovDeg*math.Pi/360)
}

// discNDC projects a sphere to the centre and half-extent of its screen-space disc.
// The extent is the perspective size at the centre's depth.
func discNDC(center r3.Vec, radius float64, eye r3.Vec, focal, aspect float64) (cx, cy, ex, ey float64, ok bool) {
	v := r3.Sub(center, eye)
	depth := -v.Z
	if depth <= radius || aspect <= 0 {
		return 0, 0, 0, 0, false
	}
	cx = focal / aspect * v.X / depth
	cy = focal * v.Y / depth
	ey = focal * radius / depth
	ex = ey / aspect
	return cx, cy, ex, ey, true
}
