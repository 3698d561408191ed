package scene

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"stardust/internal/fluid"
)

// Surface receives one projected frame per tick. Implementations own all GPU state.
type Surface interface {
	Draw(f *Frame)
	Lost() bool
	Release()
}

// Frame is the render projection of a tick. Buffers are reused between ticks and are
// only valid until the next call to Tick.
type Frame struct {
	Time      float64
	State     State
	Vertices  []float32 // [x, y, z, size, r, g, b, a] per particle, model space
	Count     int
	RotationY float64 // model rotation applied to Vertices
	Eye       r3.Vec  // camera position including shake
	FOV       float64 // vertical, degrees
	Aspect    float64
	Flash     float64 // white overlay opacity
	Globe     GlobeFrame
}

type GlobeFrame struct {
	Visible    bool
	Opacity    float64
	Center     r3.Vec
	Radius     float64
	Dots       []float32 // world space, same layout as Frame.Vertices
	DotCount   int
	RotX, RotY float64
}

type discardSurface struct{}

func (discardSurface) Draw(*Frame) {}
func (discardSurface) Lost() bool  { return false }
func (discardSurface) Release()    {}

// System owns the particle set, the optional fluid solver and the transition schedule.
// All methods must be called from the goroutine that drives Tick.
type System struct {
	cfg     Config
	surface Surface
	rng     *Rand
	fluid   *fluid.Solver
	bus     *EventBus

	particles []Particle
	sched     []schedule
	targets   targets

	state    State
	schedEnd float64
	now      float64
	bursted  bool
	special  int
	burstAt  float64

	pointerX, pointerY float64
	pointerMoved       bool
	pointerDown        bool
	dragX, dragY       float64

	widthPx, heightPx float64
	cam               Camera
	rotY              float64
	globe             *Globe

	frame    Frame
	disposed bool
}

// New allocates the particle set and, in fluid mode, the solver. A nil surface discards
// frames, which is how tests and headless runs drive the system.
func New(cfg Config, surface Surface) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		surface = discardSurface{}
	}
	s := &System{
		cfg:      cfg,
		surface:  surface,
		rng:      NewRand(cfg.Seed),
		bus:      NewEventBus(),
		special:  -1,
		burstAt:  -1,
		widthPx:  SurfaceWidth,
		heightPx: SurfaceHeight,
		cam:      newCamera(cfg.CameraZ, cfg.FOV),
		targets:  targets{seed: cfg.Seed, text: cfg.Text, width: cfg.TextWidth},
	}
	if cfg.Fluid {
		fs, err := fluid.New(cfg.FluidWidth, cfg.FluidHeight)
		if err != nil {
			return nil, fmt.Errorf("scene fluid: %w", err)
		}
		s.fluid = fs
	}
	s.particles = spawnParticles(cfg.Particles, s.rng)
	s.sched = make([]schedule, len(s.particles))
	for i, p := range s.particles {
		s.sched[i] = newSchedule(p)
	}
	return s, nil
}

func (s *System) Events() *EventBus       { return s.bus }
func (s *System) State() State            { return s.state }
func (s *System) Particles() []Particle   { return s.particles }
func (s *System) Camera() Camera          { return s.cam }
func (s *System) Globe() *Globe           { return s.globe }
func (s *System) Fluid() *fluid.Solver    { return s.fluid }
func (s *System) ScheduleEnd() float64    { return s.schedEnd }
func (s *System) Disposed() bool          { return s.disposed }
func (s *System) SurfaceLost() bool       { return s.disposed || s.surface.Lost() }
func (s *System) Bursted() bool           { return s.bursted }
func (s *System) emit(t EventType, i int) { s.bus.Emit(Event{Type: t, Time: s.now, Index: i}) }

// Special returns the index of the clickable star once the burst has assigned it.
func (s *System) Special() (int, bool) {
	return s.special, s.special >= 0
}

// Tick advances one frame. Scheduled attributes are evaluated at elapsed, so skipped or
// uneven frames land on the same values.
func (s *System) Tick(dt, elapsed float64) {
	if s.disposed {
		return
	}
	if dt < 0 || !finite(dt) {
		dt = 0
	}
	if !finite(elapsed) {
		elapsed = s.now
	}
	s.now = elapsed

	if s.state == StateIdle {
		s.integrate()
	} else {
		for i := range s.particles {
			s.sched[i].apply(elapsed, &s.particles[i])
		}
	}

	if s.state.busy() && elapsed >= s.schedEnd {
		s.finishTransition()
	}

	s.cam.UpdateShake(dt, s.cfg.Seed)
	if s.state != StateSpaceFormed {
		s.rotY = math.Sin(elapsed*0.1) * 0.1
	}
	if s.globe != nil {
		s.globe.update()
	}
	s.draw()
}

func (s *System) finishTransition() {
	switch s.state {
	case StateForming:
		s.state = StateTextFormed
		s.emit(EventTextFormed, -1)
	case StateBursting:
		s.state = StateSpaceFormed
		if s.globe == nil {
			s.globe = newGlobe(s.now)
		}
		s.emit(EventSpaceFormed, s.special)
	}
}

// FormText starts the text formation. It reports false, changing nothing, unless idle.
func (s *System) FormText() bool {
	if s.disposed || s.state != StateIdle {
		return false
	}
	s.scheduleText(s.now)
	s.state = StateForming
	s.schedEnd = s.scheduleEnd()
	s.emit(EventFormStarted, -1)
	return true
}

// Burst explodes the text into the star field. It reports false unless the text is formed.
func (s *System) Burst() bool {
	if s.disposed || s.state != StateTextFormed {
		return false
	}
	s.scheduleBurst(s.now)
	s.state = StateBursting
	s.schedEnd = s.scheduleEnd()
	s.emit(EventBurst, -1)
	return true
}

func (s *System) scheduleEnd() float64 {
	end := s.now
	for i := range s.sched {
		end = math.Max(end, s.sched[i].end())
	}
	return end
}

// OnPointerMove records the pointer in NDC. While idle it feeds the solver in fluid mode;
// repulsion is applied on the next tick otherwise. Dragging rotates the globe.
func (s *System) OnPointerMove(ndcX, ndcY float64) {
	if s.disposed || !finite(ndcX, ndcY) {
		return
	}
	ndcX, ndcY = clampF(ndcX, -1, 1), clampF(ndcY, -1, 1)
	prevX, prevY := s.pointerX, s.pointerY
	s.pointerX, s.pointerY = ndcX, ndcY

	if s.globe != nil && s.pointerDown {
		// NDC y points up, screen pixels grow downward
		dx := (ndcX - s.dragX) / 2 * s.widthPx
		dy := -(ndcY - s.dragY) / 2 * s.heightPx
		s.globe.drag(dx, dy)
		s.dragX, s.dragY = ndcX, ndcY
	}

	if s.state != StateIdle {
		return
	}
	if s.fluid != nil {
		c := &s.cfg
		_ = s.fluid.AddForce(ndcX*c.FluidPointerX, ndcY*c.FluidPointerY,
			(ndcX-prevX)*c.FluidPointerX*c.FluidForceGain, (ndcY-prevY)*c.FluidPointerY*c.FluidForceGain,
			c.FluidForceRadius)
		return
	}
	s.pointerMoved = true
}

func (s *System) OnPointerDown() {
	if s.disposed {
		return
	}
	s.pointerDown = true
	s.dragX, s.dragY = s.pointerX, s.pointerY
}

func (s *System) OnPointerUp() {
	if s.disposed {
		return
	}
	s.pointerDown = false
}

// OnClick forms the text when idle, bursts it once formed, and in the star field fires
// navigation when the click lands on the special star. Clicks during a transition are dropped.
func (s *System) OnClick(ndcX, ndcY float64) {
	if s.disposed || !finite(ndcX, ndcY) {
		return
	}
	s.pointerX, s.pointerY = clampF(ndcX, -1, 1), clampF(ndcY, -1, 1)
	switch s.state {
	case StateIdle:
		s.FormText()
	case StateTextFormed:
		s.Burst()
	case StateSpaceFormed:
		if s.hitSpecial(s.pointerX, s.pointerY) {
			s.emit(EventNavigate, s.special)
			if s.cfg.OnNavigate != nil {
				s.cfg.OnNavigate(s.cfg.NavigateURL)
			}
		}
	}
}

// OnScrollProgress bursts formed text once scrolling passes 10% of the page, and re-arms
// when the page returns to the top.
func (s *System) OnScrollProgress(f float64) {
	if s.disposed || !finite(f) {
		return
	}
	f = clampF(f, 0, 1)
	if f <= 0.1 {
		s.bursted = false
		return
	}
	if s.state == StateTextFormed && !s.bursted {
		s.bursted = s.Burst()
	}
}

// HoverSpecial reports whether the pointer rests on the special star.
func (s *System) HoverSpecial() bool {
	return !s.disposed && s.hitSpecial(s.pointerX, s.pointerY)
}

// hitSpecial compares NDC positions only; depth is ignored.
func (s *System) hitSpecial(x, y float64) bool {
	if s.state != StateSpaceFormed || s.special < 0 || s.special >= len(s.particles) {
		return false
	}
	p := r3.Rotate(s.particles[s.special].Pos, s.rotY, r3.Vec{Y: 1})
	px, py, ok := s.cam.Project(p)
	if !ok {
		return false
	}
	return math.Hypot(px-x, py-y) < s.cfg.HitRadius
}

// SpecialNDC is the projected position of the special star.
func (s *System) SpecialNDC() (x, y float64, ok bool) {
	if s.special < 0 || s.special >= len(s.particles) {
		return 0, 0, false
	}
	return s.cam.Project(r3.Rotate(s.particles[s.special].Pos, s.rotY, r3.Vec{Y: 1}))
}

// Resize updates the aspect ratio. Non-positive sizes are ignored.
func (s *System) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s.widthPx, s.heightPx = float64(w), float64(h)
	s.cam.Aspect = s.widthPx / s.heightPx
}

// Dispose releases the particle set, the solver and the surface. Later calls are no-ops.
func (s *System) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	if s.fluid != nil {
		s.fluid.Clear()
		s.fluid = nil
	}
	s.particles = nil
	s.sched = nil
	s.targets = targets{}
	s.frame = Frame{}
	s.surface.Release()
}

func (s *System) draw() {
	f := &s.frame
	f.Time = s.now
	f.State = s.state
	f.Vertices = appendVertices(f.Vertices[:0], s.particles, 1)
	f.Count = len(s.particles)
	f.RotationY = s.rotY
	f.Eye = s.cam.EffectivePos()
	f.FOV = s.cam.FOV
	f.Aspect = s.cam.Aspect
	f.Flash = s.flash(s.now)

	g := &f.Globe
	g.Visible = s.globe != nil
	g.Dots = g.Dots[:0]
	g.DotCount = 0
	if s.globe != nil {
		dots := s.targets.globeDots()
		g.Opacity = s.globe.opacity(s.now)
		g.Center = r3.Vec{Z: GlobeCenterZ}
		g.Radius = GlobeRadius
		g.RotX, g.RotY = s.globe.RotX, s.globe.RotY
		g.Dots = appendGlobeDots(g.Dots, dots, s.globe, s.globe.dotOpacity(s.now))
		g.DotCount = len(dots)
	}
	s.surface.Draw(f)
}
