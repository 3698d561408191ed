package scene

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

type recordSurface struct {
	frames   int
	last     Frame
	lost     bool
	released int
}

func (r *recordSurface) Draw(f *Frame) {
	r.frames++
	r.last = *f
}

func (r *recordSurface) Lost() bool { return r.lost }
func (r *recordSurface) Release()   { r.released++ }

// driver ticks a system at a fixed rate and keeps the clock.
type driver struct {
	t   *testing.T
	s   *System
	now float64
	k   int
}

const testHz = 60

func newDriver(t *testing.T, cfg Config) *driver {
	t.Helper()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &driver{t: t, s: s}
}

func (d *driver) tick() {
	d.k++
	now := float64(d.k) / testHz
	d.s.Tick(now-d.now, now)
	d.now = now
}

func (d *driver) until(want State, limit float64) {
	d.t.Helper()
	for d.s.State() != want {
		if d.now > limit {
			d.t.Fatalf("state=%v at t=%v, want %v", d.s.State(), d.now, want)
		}
		d.tick()
	}
}

func (d *driver) toSpace() {
	d.t.Helper()
	d.tick()
	d.s.OnClick(0, 0)
	d.until(StateTextFormed, 20)
	d.s.OnClick(0, 0)
	d.until(StateSpaceFormed, 40)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.Particles = 0 },
		func(c *Config) { c.Particles = 12 },
		func(c *Config) { c.HitRadius = 0 },
		func(c *Config) { c.Fluid = true; c.FluidWidth = 0 },
		func(c *Config) { c.FOV = 180 },
		func(c *Config) { c.Fluid = true; c.FluidHeight = 4 },
		func(c *Config) { c.DampingFast = 1.01 },
		func(c *Config) { c.DampingSlow = -0.1 },
		func(c *Config) { c.BoundStiffness = -0.001 },
		func(c *Config) { c.ZStiffness = -0.001 },
		func(c *Config) { c.JitterAmount = -1 },
	}
	for i, mut := range bad {
		cfg := DefaultConfig()
		mut(&cfg)
		if _, err := New(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: err=%v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestCountConservedAcrossCycle(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	want := d.s.cfg.Particles
	var seen []State
	d.s.Events().Subscribe(EventTextFormed, func(Event) { seen = append(seen, StateTextFormed) })
	d.s.Events().Subscribe(EventSpaceFormed, func(Event) { seen = append(seen, StateSpaceFormed) })

	check := func(stage string) {
		if n := len(d.s.Particles()); n != want {
			t.Fatalf("%s: particles=%d, want %d", stage, n, want)
		}
	}
	check("init")
	d.tick()
	d.s.OnClick(0, 0)
	if d.s.State() != StateForming {
		t.Fatalf("state=%v after click, want forming", d.s.State())
	}
	check("forming")
	d.until(StateTextFormed, 20)
	check("text")
	d.s.OnClick(0, 0)
	if d.s.State() != StateBursting {
		t.Fatalf("state=%v after second click, want bursting", d.s.State())
	}
	check("bursting")
	d.until(StateSpaceFormed, 40)
	check("space")
	if len(seen) != 2 || seen[0] != StateTextFormed || seen[1] != StateSpaceFormed {
		t.Fatalf("events=%v, want [text-formed space-formed]", seen)
	}
}

func TestFormStaggerMonotonic(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	if !d.s.FormText() {
		t.Fatalf("FormText refused from idle")
	}
	n := min(len(d.s.targets.textCloud()), len(d.s.sched))
	if n < 2 {
		t.Fatalf("text cloud has %d points", n)
	}
	prev := math.Inf(-1)
	for i := 0; i < n; i++ {
		start := d.s.sched[i].pos.firstStart()
		if start < prev {
			t.Fatalf("particle %d starts at %v, before particle %d at %v", i, start, i-1, prev)
		}
		prev = start
	}
	if a, b := d.s.sched[0].pos.firstStart(), d.s.sched[1].pos.firstStart(); a > b {
		t.Fatalf("particle 0 starts at %v, after particle 1 at %v", a, b)
	}
}

func TestSpecialParticleDeterministic(t *testing.T) {
	var got []int
	for _, seed := range []uint64{1, 1, 99} {
		cfg := DefaultConfig()
		cfg.Seed = seed
		d := newDriver(t, cfg)
		d.toSpace()
		idx, ok := d.s.Special()
		if !ok {
			t.Fatalf("seed %d: no special particle in space state", seed)
		}
		got = append(got, idx)

		want := spherical(specialRadius, specialTheta, specialPhi)
		want.Z -= 10
		if p := d.s.Particles()[idx].Pos; r3.Norm(r3.Sub(p, want)) > 1e-9 {
			t.Fatalf("seed %d: special at %v, want %v", seed, p, want)
		}
	}
	for _, idx := range got {
		if idx != DefaultConfig().SpecialIndex {
			t.Fatalf("special=%v, want %d every run", got, DefaultConfig().SpecialIndex)
		}
	}
}

func TestIdleDriftAwayFromPointer(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	p := &d.s.particles[0]
	p.Pos = r3.Vec{}
	p.Vel = r3.Vec{}
	q := &d.s.particles[1]
	q.Pos = r3.Vec{X: 5}
	q.Vel = r3.Vec{}

	d.s.OnPointerMove(0, 0)
	d.tick()

	if r3.Norm(p.Vel) == 0 {
		t.Fatalf("particle 0 velocity is zero after repulsion")
	}
	if r3.Dot(p.Vel, p.Pos) <= 0 {
		t.Fatalf("particle 0 vel=%v pos=%v, want velocity pointing away from the pointer", p.Vel, p.Pos)
	}
	if q.Vel.X <= 0 {
		t.Fatalf("particle 1 vel=%v, want +x away from the pointer", q.Vel)
	}
}

func TestRepelScalesInverselyWithSize(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	for i := range d.s.particles {
		d.s.particles[i].Pos = r3.Vec{X: 1000}
	}
	small, big := &d.s.particles[0], &d.s.particles[1]
	small.Pos, small.Vel, small.Size = r3.Vec{X: 4}, r3.Vec{}, 0.5
	big.Pos, big.Vel, big.Size = r3.Vec{X: 4}, r3.Vec{}, 2

	d.s.repel(r3.Vec{})
	if !(small.Vel.X > big.Vel.X && big.Vel.X > 0) {
		t.Fatalf("small=%v big=%v, want small > big > 0", small.Vel.X, big.Vel.X)
	}
	if far := d.s.particles[2].Vel; r3.Norm(far) > 0.1 {
		t.Fatalf("particle outside radius got vel=%v", far)
	}
}

func TestIdleStaysBounded(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	for i := 0; i < 600; i++ {
		d.tick()
	}
	for i, p := range d.s.Particles() {
		if math.Hypot(p.Pos.X, p.Pos.Y) > 200 || math.Abs(p.Pos.Z) > 100 {
			t.Fatalf("particle %d drifted to %v", i, p.Pos)
		}
	}
}

type trackSnapshot struct {
	pos  []segment[r3.Vec]
	size []segment[float64]
}

func snapshot(s *System) []trackSnapshot {
	out := make([]trackSnapshot, len(s.sched))
	for i, sc := range s.sched {
		out[i].pos = append([]segment[r3.Vec](nil), sc.pos.segs...)
		out[i].size = append([]segment[float64](nil), sc.size.segs...)
	}
	return out
}

func sameSegments[T comparable](a, b []segment[T]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].start != b[i].start || a[i].dur != b[i].dur || a[i].from != b[i].from || a[i].to != b[i].to {
			return false
		}
	}
	return true
}

func TestTriggerIgnoredWhileBursting(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.tick()
	d.s.OnClick(0, 0)
	d.until(StateTextFormed, 20)
	d.s.Burst()
	d.tick()
	if d.s.State() != StateBursting {
		t.Fatalf("state=%v, want bursting", d.s.State())
	}

	before := snapshot(d.s)
	text := d.s.targets.textPts
	end := d.s.ScheduleEnd()

	if d.s.FormText() {
		t.Fatalf("FormText accepted while bursting")
	}
	d.s.OnClick(0, 0)
	d.s.OnScrollProgress(0.9)

	if d.s.State() != StateBursting {
		t.Fatalf("state=%v after triggers, want bursting", d.s.State())
	}
	if d.s.ScheduleEnd() != end {
		t.Fatalf("schedule end moved from %v to %v", end, d.s.ScheduleEnd())
	}
	if len(d.s.targets.textPts) != len(text) || &d.s.targets.textPts[0] != &text[0] {
		t.Fatalf("text targets were rebuilt")
	}
	after := snapshot(d.s)
	for i := range before {
		if !sameSegments(before[i].pos, after[i].pos) || !sameSegments(before[i].size, after[i].size) {
			t.Fatalf("particle %d schedule changed by ignored trigger", i)
		}
	}
}

func TestClickIgnoredWhileForming(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.s.OnClick(0, 0)
	end := d.s.ScheduleEnd()
	d.tick()
	d.s.OnClick(0, 0)
	if d.s.State() != StateForming || d.s.ScheduleEnd() != end {
		t.Fatalf("state=%v end=%v, want forming with end %v", d.s.State(), d.s.ScheduleEnd(), end)
	}
}

func TestFormStartsFromDriftedPosition(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.s.OnPointerMove(0.1, 0.1)
	for i := 0; i < 30; i++ {
		d.tick()
	}
	last := len(d.s.Particles()) - 1
	before := d.s.Particles()[last].Pos
	if before == (r3.Vec{}) {
		t.Fatalf("particle %d at origin", last)
	}
	d.s.FormText()
	d.tick()
	if got := d.s.Particles()[last].Pos; got != before {
		t.Fatalf("particle %d jumped from %v to %v before its stagger", last, before, got)
	}
}

func TestScheduleFrameRateIndependent(t *testing.T) {
	a := newDriver(t, DefaultConfig())
	b := newDriver(t, DefaultConfig())
	a.s.FormText()
	b.s.FormText()

	for a.k < 2*testHz {
		a.tick()
	}
	prev := 0.0
	for _, now := range []float64{0.3, 0.31, 1.2, 1.95, 2.0} {
		b.s.Tick(now-prev, now)
		prev = now
	}

	pa, pb := a.s.Particles(), b.s.Particles()
	for i := range pa {
		if pa[i].Pos != pb[i].Pos || pa[i].Size != pb[i].Size || pa[i].Col != pb[i].Col {
			t.Fatalf("particle %d: 60Hz=%+v uneven=%+v", i, pa[i], pb[i])
		}
	}
}

func TestScrollBurstsAndRearms(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.s.OnScrollProgress(0.5)
	if d.s.State() != StateIdle {
		t.Fatalf("scroll in idle moved state to %v", d.s.State())
	}
	d.s.OnClick(0, 0)
	d.until(StateTextFormed, 20)

	d.s.OnScrollProgress(0.05)
	if d.s.State() != StateTextFormed {
		t.Fatalf("scroll below threshold burst the text")
	}
	d.s.OnScrollProgress(0.2)
	if d.s.State() != StateBursting || !d.s.Bursted() {
		t.Fatalf("state=%v bursted=%v, want bursting/true", d.s.State(), d.s.Bursted())
	}
	d.s.OnScrollProgress(0.0)
	if d.s.Bursted() {
		t.Fatalf("scrolling back to the top did not re-arm")
	}
}

func TestHoverAndNavigate(t *testing.T) {
	cfg := DefaultConfig()
	var urls []string
	cfg.OnNavigate = func(u string) { urls = append(urls, u) }
	d := newDriver(t, cfg)
	d.toSpace()

	x, y, ok := d.s.SpecialNDC()
	if !ok {
		t.Fatalf("special star behind the camera")
	}
	d.s.OnPointerMove(x, y)
	if !d.s.HoverSpecial() {
		t.Fatalf("pointer on special at (%v,%v) not hovering", x, y)
	}
	d.s.OnPointerMove(x+0.5, y)
	if d.s.HoverSpecial() {
		t.Fatalf("pointer 0.5 away still hovering")
	}

	d.s.OnClick(x+0.5, y)
	if len(urls) != 0 {
		t.Fatalf("miss navigated to %v", urls)
	}
	d.s.OnClick(x+0.05, y)
	if len(urls) != 1 || urls[0] != cfg.NavigateURL {
		t.Fatalf("urls=%v, want [%s]", urls, cfg.NavigateURL)
	}
	if d.s.State() != StateSpaceFormed {
		t.Fatalf("state=%v after navigate, want space-formed", d.s.State())
	}
}

func TestHoverOnlyInSpace(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.tick()
	if d.s.HoverSpecial() {
		t.Fatalf("hovering before the star field exists")
	}
}

func TestGlobeRevealAndDrag(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.toSpace()
	g := d.s.Globe()
	if g == nil {
		t.Fatalf("no globe after space formed")
	}
	born := d.now
	for d.now < born+3 {
		d.tick()
	}
	if o := g.opacity(d.now); o != 1 {
		t.Fatalf("globe opacity=%v after fade, want 1", o)
	}

	d.s.OnPointerMove(0, 0)
	d.s.OnPointerDown()
	d.s.OnPointerMove(1, -1)
	d.s.OnPointerUp()
	if g.VelY <= globeMaxVelocity {
		t.Fatalf("drag vel=%v, want above clamp before update", g.VelY)
	}
	d.tick()
	if g.VelY > globeMaxVelocity || g.VelX > globeMaxVelocity {
		t.Fatalf("vel=(%v,%v), want clamped to %v", g.VelX, g.VelY, globeMaxVelocity)
	}
}

func TestRenderProjection(t *testing.T) {
	rec := &recordSurface{}
	cfg := DefaultConfig()
	s, err := New(cfg, rec)
	if err != nil {
		t.Fatal(err)
	}
	s.Tick(1.0/60, 1.0/60)
	if rec.frames != 1 {
		t.Fatalf("frames=%d, want 1", rec.frames)
	}
	f := rec.last
	if f.Count != cfg.Particles || len(f.Vertices) != VertexStride*cfg.Particles {
		t.Fatalf("count=%d len=%d, want %d and %d", f.Count, len(f.Vertices), cfg.Particles, VertexStride*cfg.Particles)
	}
	p := s.Particles()[7]
	if got := f.Vertices[7*VertexStride]; got != float32(p.Pos.X) {
		t.Fatalf("vertex x=%v, want %v", got, p.Pos.X)
	}
	if f.Globe.Visible || f.Flash != 0 {
		t.Fatalf("idle frame shows globe=%v flash=%v", f.Globe.Visible, f.Flash)
	}
}

func TestFlashCurve(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.s.burstAt = 10
	for _, c := range []struct{ t, want float64 }{{9, 0}, {10, 0}, {10.1, flashPeak}, {10.6, 0}, {12, 0}} {
		if got := d.s.flash(c.t); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("flash(%v)=%v, want %v", c.t, got, c.want)
		}
	}
	if mid := d.s.flash(10.35); mid <= 0 || mid >= flashPeak {
		t.Fatalf("flash mid-fall=%v, want in (0,%v)", mid, flashPeak)
	}
}

func TestDispose(t *testing.T) {
	rec := &recordSurface{}
	s, err := New(DefaultConfig(), rec)
	if err != nil {
		t.Fatal(err)
	}
	s.Tick(0.016, 0.016)
	s.Dispose()
	s.Dispose()
	if rec.released != 1 {
		t.Fatalf("released=%d, want 1", rec.released)
	}
	s.Tick(0.016, 0.032)
	s.OnClick(0, 0)
	if rec.frames != 1 || s.State() != StateIdle {
		t.Fatalf("frames=%d state=%v after dispose, want 1/idle", rec.frames, s.State())
	}
	if !s.SurfaceLost() || s.Particles() != nil {
		t.Fatalf("disposed system still holds resources")
	}
}

func TestSurfaceLost(t *testing.T) {
	rec := &recordSurface{}
	s, _ := New(DefaultConfig(), rec)
	if s.SurfaceLost() {
		t.Fatalf("fresh surface reported lost")
	}
	rec.lost = true
	if !s.SurfaceLost() {
		t.Fatalf("lost surface not reported")
	}
}

func TestOverflowParticlesLeave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Text = "I"
	d := newDriver(t, cfg)
	n := len(d.s.targets.textCloud())
	if n == 0 || n >= cfg.Particles {
		t.Fatalf("text cloud for %q has %d points, want between 0 and %d", cfg.Text, n, cfg.Particles)
	}
	d.s.OnClick(0, 0)
	d.until(StateTextFormed, 20)

	last := d.s.Particles()[cfg.Particles-1]
	if last.Pos.Z > -50 || math.Hypot(last.Pos.X, last.Pos.Y) < 100 {
		t.Fatalf("overflow particle at %v, want ring beyond radius 100 and z <= -50", last.Pos)
	}
	if !last.Col.AlmostEqualRgb(overflowColor) {
		t.Fatalf("overflow colour=%v, want %v", last.Col, overflowColor)
	}
	first := d.s.Particles()[0]
	if first.Pos.Z != 0 {
		t.Fatalf("text particle z=%v, want 0", first.Pos.Z)
	}
}

func TestFluidModeDrivesParticles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fluid = true
	d := newDriver(t, cfg)
	d.s.OnPointerMove(0, 0)
	d.s.OnPointerMove(0.2, 0.1)
	if d.s.Fluid().Energy() == 0 {
		t.Fatalf("pointer motion left the fluid at rest")
	}
	d.tick()
	if e := d.s.Fluid().Energy(); e == 0 {
		t.Fatalf("fluid energy=%v after a step, want > 0", e)
	}

	d.s.OnClick(0, 0)
	e := d.s.Fluid().Energy()
	d.s.OnPointerMove(-0.5, 0.5)
	if d.s.Fluid().Energy() != e {
		t.Fatalf("pointer fed the fluid outside idle")
	}
}

func TestFluidAdvectionBlendsSampledVelocity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fluid = true
	cfg.DampingFast, cfg.DampingSlow = 1, 1
	cfg.JitterAmount = 0
	d := newDriver(t, cfg)
	p := &d.s.particles[0]
	p.Pos, p.Vel = r3.Vec{}, r3.Vec{}
	if err := d.s.Fluid().AddForce(0, 0, 5, -3, 5); err != nil {
		t.Fatal(err)
	}
	d.tick()

	// the solver is not touched again after particles sample it
	fs := d.s.Fluid()
	vx, vy := fs.SampleVelocity(fs.WorldToGrid(0, 0))
	if vx <= 0 || vy >= 0 {
		t.Fatalf("sampled velocity=(%v,%v), want +x and -y", vx, vy)
	}
	want := r3.Vec{X: vx * cfg.FluidBlend, Y: vy * cfg.FluidBlend}
	if math.Abs(p.Vel.X-want.X) > 1e-12 || math.Abs(p.Vel.Y-want.Y) > 1e-12 || p.Vel.Z != 0 {
		t.Fatalf("vel=%v, want %v", p.Vel, want)
	}
	if p.Pos != p.Vel {
		t.Fatalf("pos=%v, want one step of %v from the origin", p.Pos, p.Vel)
	}
}

func TestNonFiniteInputIgnored(t *testing.T) {
	for _, fluidMode := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Fluid = fluidMode
		d := newDriver(t, cfg)
		d.tick()
		d.s.OnPointerMove(math.NaN(), 0)
		d.s.OnPointerMove(0, math.Inf(1))
		d.s.OnClick(math.NaN(), math.NaN())
		d.s.OnScrollProgress(math.NaN())
		if d.s.State() != StateIdle {
			t.Fatalf("fluid=%v: state=%v after NaN click, want idle", fluidMode, d.s.State())
		}
		d.s.Tick(math.NaN(), math.Inf(1))
		for i := 0; i < 10; i++ {
			d.tick()
		}
		for i, p := range d.s.Particles() {
			if !finite(p.Pos.X, p.Pos.Y, p.Pos.Z, p.Vel.X, p.Vel.Y, p.Vel.Z) {
				t.Fatalf("fluid=%v: particle %d pos=%v vel=%v", fluidMode, i, p.Pos, p.Vel)
			}
		}
		if fs := d.s.Fluid(); fs != nil && !finite(fs.Energy()) {
			t.Fatalf("fluid energy=%v", fs.Energy())
		}
		if !finite(d.s.now, d.s.pointerX, d.s.pointerY) {
			t.Fatalf("fluid=%v: clock=%v pointer=(%v,%v)", fluidMode, d.s.now, d.s.pointerX, d.s.pointerY)
		}
	}
}

func TestPointerButtonIgnoredAfterDispose(t *testing.T) {
	d := newDriver(t, DefaultConfig())
	d.s.OnPointerDown()
	d.s.Dispose()
	d.s.OnPointerUp()
	if !d.s.pointerDown {
		t.Fatalf("pointer released after dispose")
	}
	d.s.pointerDown = false
	d.s.OnPointerDown()
	if d.s.pointerDown {
		t.Fatalf("pointer pressed after dispose")
	}
}
