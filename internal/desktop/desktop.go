// Package desktop hosts the scene in a glfw window with an OpenGL renderer.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"stardust/internal/scene"
)

var errSurfaceLost = errors.New("surface lost")

// Options configures the desktop host.
type Options struct {
	Scene  scene.Config
	Title  string
	Width  int
	Height int

	// Attach runs once the system exists, before the first tick.
	Attach func(*scene.System)
}

func (o *Options) defaults() {
	if o.Title == "" {
		o.Title = "stardust"
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = scene.SurfaceWidth, scene.SurfaceHeight
	}
}

// surface draws frames straight into the window's framebuffer. The scene calls Draw from
// Tick, which runs on the locked GL thread.
type surface struct {
	rend     *Renderer
	fbW, fbH int
	lost     bool
}

func (s *surface) Draw(f *scene.Frame) {
	if s.rend == nil || s.fbW <= 0 || s.fbH <= 0 {
		return
	}
	s.rend.Draw(f, s.fbW, s.fbH)
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		s.lost = true
	}
}

func (s *surface) Lost() bool { return s.lost }

func (s *surface) Release() {
	if s.rend != nil {
		s.rend.Destroy()
		s.rend = nil
	}
}

// Run opens the window and drives the scene until the window closes, Escape is pressed,
// the surface is lost or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	opts.defaults()

	window, err := initWindow(opts.Title, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	rend, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	surf := &surface{rend: rend}

	sys, err := scene.New(opts.Scene, surf)
	if err != nil {
		rend.Destroy()
		return err
	}
	defer sys.Dispose()
	if opts.Attach != nil {
		opts.Attach(sys)
	}

	input := NewInput(window)
	defer input.Destroy()

	start := glfw.GetTime()
	last := start
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}
		if fbW != surf.fbW || fbH != surf.fbH {
			surf.fbW, surf.fbH = fbW, fbH
			sys.Resize(window.GetSize())
		}

		if sys.SurfaceLost() {
			return fmt.Errorf("desktop: %w", errSurfaceLost)
		}

		input.Poll(window, sys)
		sys.Tick(dt, now-start)
		window.SwapBuffers()
	}
	return nil
}
