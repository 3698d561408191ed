// Package headless drives the scene without a window: a fixed-rate ticker, a scripted
// pointer timeline and a recording surface.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"stardust/internal/scene"
)

var ErrSurfaceLost = errors.New("headless: surface lost")

// Config controls the no-window runner.
type Config struct {
	Scene scene.Config
	Hz    int
	Ticks uint64 // 0 runs until ctx is cancelled

	// Script is replayed in order. Nil means no input.
	Script []Step

	// Report receives a state line every ReportEvery ticks and one line per scene event.
	Report      io.Writer
	ReportEvery uint64

	// Attach runs once the system exists, before the first tick.
	Attach func(*scene.System)
}

// Action is a scripted input.
type Action int

const (
	ActionMove Action = iota
	ActionDown
	ActionUp
	ActionClick
	ActionClickSpecial // click wherever the special star projects
	ActionScroll
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionClick:
		return "click"
	case ActionClickSpecial:
		return "click-special"
	case ActionScroll:
		return "scroll"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Step fires Delay seconds after the previous step, once the scene has reached Wait.
// A Wait of StateIdle does not wait.
// X and Y are NDC for pointer actions; X is the page progress for ActionScroll.
type Step struct {
	Wait   scene.State
	Delay  float64
	Action Action
	X, Y   float64
}

// DefaultScript wanders the pointer, forms the text, scrolls it into the star field,
// drags the globe and clicks the special star.
func DefaultScript() []Step {
	return []Step{
		{Delay: 0.5, Action: ActionMove, X: 0.2, Y: 0.1},
		{Delay: 0.5, Action: ActionMove, X: -0.2, Y: -0.1},
		{Delay: 0.5, Action: ActionClick},
		{Wait: scene.StateTextFormed, Delay: 0.5, Action: ActionScroll, X: 0.5},
		{Wait: scene.StateSpaceFormed, Delay: 0.5, Action: ActionDown},
		{Wait: scene.StateSpaceFormed, Delay: 0.1, Action: ActionMove, X: 0.3},
		{Wait: scene.StateSpaceFormed, Delay: 0.1, Action: ActionUp},
		{Wait: scene.StateSpaceFormed, Delay: 0.5, Action: ActionClickSpecial},
	}
}

// Runner advances the scene one fixed step at a time. Elapsed time is derived from the
// tick count, so runs are reproducible regardless of wall-clock jitter.
type Runner struct {
	cfg  Config
	sys  *scene.System
	surf *Recorder

	tick    uint64
	now     float64
	next    int
	armedAt float64

	events []scene.Event
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	surf := &Recorder{}
	sys, err := scene.New(cfg.Scene, surf)
	if err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, sys: sys, surf: surf}
	for _, t := range []scene.EventType{
		scene.EventFormStarted, scene.EventTextFormed, scene.EventBurst,
		scene.EventSpaceFormed, scene.EventNavigate,
	} {
		sys.Events().Subscribe(t, r.record)
	}
	if cfg.Attach != nil {
		cfg.Attach(sys)
	}
	return r, nil
}

func (r *Runner) System() *scene.System { return r.sys }
func (r *Runner) Surface() *Recorder    { return r.surf }
func (r *Runner) Events() []scene.Event { return r.events }
func (r *Runner) Ticks() uint64         { return r.tick }
func (r *Runner) ScriptDone() bool      { return r.next >= len(r.cfg.Script) }

func (r *Runner) record(e scene.Event) {
	r.events = append(r.events, e)
	if r.cfg.Report != nil {
		fmt.Fprintf(r.cfg.Report, "t=%.2fs event=%s index=%d\n", e.Time, eventName(e.Type), e.Index)
	}
}

// Step replays due script steps and ticks the scene once.
func (r *Runner) Step() error {
	if r.sys.Disposed() {
		return scene.ErrDisposed
	}
	if r.sys.SurfaceLost() {
		return ErrSurfaceLost
	}
	dt := 1 / float64(r.cfg.Hz)
	r.runScript()
	r.sys.Tick(dt, r.now)
	r.tick++
	r.now = float64(r.tick) * dt

	if r.cfg.Report != nil && r.cfg.ReportEvery > 0 && r.tick%r.cfg.ReportEvery == 0 {
		r.report()
	}
	return nil
}

func (r *Runner) runScript() {
	for r.next < len(r.cfg.Script) {
		st := r.cfg.Script[r.next]
		if r.sys.State() != st.Wait && st.Wait != scene.StateIdle {
			// Re-arm so Delay counts from when the state is reached.
			r.armedAt = r.now
			return
		}
		if r.now < r.armedAt+st.Delay {
			return
		}
		r.apply(st)
		r.next++
		r.armedAt = r.now
	}
}

func (r *Runner) apply(st Step) {
	switch st.Action {
	case ActionMove:
		r.sys.OnPointerMove(st.X, st.Y)
	case ActionDown:
		r.sys.OnPointerDown()
	case ActionUp:
		r.sys.OnPointerUp()
	case ActionClick:
		r.sys.OnClick(st.X, st.Y)
	case ActionClickSpecial:
		if x, y, ok := r.sys.SpecialNDC(); ok {
			r.sys.OnPointerMove(x, y)
			r.sys.OnClick(x, y)
		}
	case ActionScroll:
		r.sys.OnScrollProgress(st.X)
	}
}

func (r *Runner) report() {
	line := fmt.Sprintf("t=%.2fs tick=%d state=%s frames=%d", r.now, r.tick, r.sys.State(), r.surf.Frames)
	if fs := r.sys.Fluid(); fs != nil {
		line += fmt.Sprintf(" div=%.5f energy=%.4f", fs.MeanAbsDivergence(), fs.Energy())
	}
	fmt.Fprintln(r.cfg.Report, line)
}

// Close disposes the scene.
func (r *Runner) Close() { r.sys.Dispose() }

// Run ticks at cfg.Hz until cfg.Ticks is reached or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	r, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	d := time.Second / time.Duration(r.cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", r.cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := r.Step(); err != nil {
				return err
			}
			if cfg.Ticks > 0 && r.tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

func eventName(t scene.EventType) string {
	switch t {
	case scene.EventFormStarted:
		return "form"
	case scene.EventTextFormed:
		return "text-formed"
	case scene.EventBurst:
		return "burst"
	case scene.EventSpaceFormed:
		return "space-formed"
	case scene.EventNavigate:
		return "navigate"
	}
	return fmt.Sprintf("event(%d)", int(t))
}
