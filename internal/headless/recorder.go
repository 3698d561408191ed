package headless

import "stardust/internal/scene"

// Recorder is a Surface that keeps frame statistics instead of drawing.
type Recorder struct {
	Frames    uint64
	LastState scene.State
	LastCount int
	LastDots  int
	MaxFlash  float64
	Released  bool

	// LoseAfter reports the surface lost once this many frames were drawn. Zero never.
	LoseAfter uint64
}

func (r *Recorder) Draw(f *scene.Frame) {
	r.Frames++
	r.LastState = f.State
	r.LastCount = f.Count
	r.LastDots = f.Globe.DotCount
	r.MaxFlash = max(r.MaxFlash, f.Flash)
}

func (r *Recorder) Lost() bool { return r.LoseAfter > 0 && r.Frames >= r.LoseAfter }
func (r *Recorder) Release()   { r.Released = true }
