// Package audio plays short procedural cues for scene transitions.
package audio

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"stardust/internal/scene"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)
)

// Cue identifies a sound.
type Cue int

const (
	CueForm Cue = iota
	CueTextFormed
	CueBurst
	CueSpaceFormed
	CueNavigate
	cueCount
)

var ErrNotReady = errors.New("audio: device not ready")

// Player owns the oto context. Cue buffers are generated once and shared read-only by
// the playback goroutines.
type Player struct {
	ctx    *oto.Context
	ready  chan struct{}
	volume float64

	once    sync.Once
	buffers [cueCount][]byte
	active  int32
}

// maxVoices limits overlapping cues to avoid clipping.
const maxVoices = 3

// New opens the default output device. The device finishes initialising asynchronously;
// cues requested before then are dropped.
func New(volume float64) (*Player, error) {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, BitDepth)
	if err != nil {
		return nil, err
	}
	return &Player{ctx: ctx, ready: ready, volume: clampF(volume, 0, 1)}, nil
}

// Attach subscribes cues to scene events.
func (p *Player) Attach(bus *scene.EventBus) {
	bind := func(t scene.EventType, c Cue) {
		bus.Subscribe(t, func(scene.Event) { _ = p.Play(c) })
	}
	bind(scene.EventFormStarted, CueForm)
	bind(scene.EventTextFormed, CueTextFormed)
	bind(scene.EventBurst, CueBurst)
	bind(scene.EventSpaceFormed, CueSpaceFormed)
	bind(scene.EventNavigate, CueNavigate)
}

// Play starts c on its own goroutine and returns immediately.
func (p *Player) Play(c Cue) error {
	if c < 0 || c >= cueCount {
		return nil
	}
	select {
	case <-p.ready:
	default:
		return ErrNotReady
	}
	p.once.Do(func() {
		for i := range p.buffers {
			p.buffers[i] = Generate(Cue(i))
		}
	})
	if atomic.AddInt32(&p.active, 1) > maxVoices {
		atomic.AddInt32(&p.active, -1)
		return nil
	}
	samples := p.buffers[c]
	go func() {
		defer atomic.AddInt32(&p.active, -1)
		player := p.ctx.NewPlayer(&soundReader{data: samples})
		player.SetVolume(p.volume)
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
	return nil
}

type soundReader struct {
	data []byte
	pos  int
}

func (r *soundReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	for ch := 0; ch < ChannelCount; ch++ {
		o := i*8 + ch*4
		buf[o] = byte(v)
		buf[o+1] = byte(v >> 8)
		buf[o+2] = byte(v >> 16)
		buf[o+3] = byte(v >> 24)
	}
}

// softSat applies gentle saturation without hard clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/x
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// adsr returns an envelope at normalized progress [0,1].
// attack/decay/release are fractions of the total duration.
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

func fm(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}

func makeBuf(n int) []byte { return make([]byte, n*8) }

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Generate renders the stereo float32 samples for c.
func Generate(c Cue) []byte {
	switch c {
	case CueForm:
		return genShimmer()
	case CueTextFormed:
		return genChime()
	case CueBurst:
		return genBurst()
	case CueSpaceFormed:
		return genPad()
	case CueNavigate:
		return genSelect()
	}
	return nil
}

// genShimmer: rising FM bell arpeggio that gathers with the text.
func genShimmer() []byte {
	freqs := []float64{392, 523.25, 659.25, 783.99, 1046.5}
	noteLen := SampleRate * 120 / 1000
	tail := int(0.6 * SampleRate)
	total := len(freqs)*noteLen + tail
	mix := make([]float64, total)
	for fi, freq := range freqs {
		start := fi * noteLen
		dur := total - start
		for j := 0; j < dur; j++ {
			t := float64(start+j) / SampleRate
			env := adsr(float64(j)/float64(dur), 0.01, 0.5, 0.08, 0.4)
			mix[start+j] += fm(t, freq, 3.01, 2.5*env) * env * 0.2
		}
	}
	return render(mix)
}

// genChime: a single soft bell.
func genChime() []byte {
	n := int(0.8 * SampleRate)
	mix := make([]float64, n)
	for i := range mix {
		t := float64(i) / SampleRate
		env := adsr(float64(i)/float64(n), 0.005, 0.6, 0.1, 0.35)
		mix[i] = fm(t, 880, 2.0, 1.8*env)*env*0.3 + math.Sin(2*math.Pi*1760*t)*env*0.06
	}
	return render(mix)
}

// genBurst: sub drop under a filtered noise whoosh.
func genBurst() []byte {
	n := int(1.2 * SampleRate)
	mix := make([]float64, n)
	seed := uint64(0xB0057)
	lp := 0.0
	phase := 0.0
	for i := range mix {
		p := float64(i) / float64(n)
		raw := lcg(&seed)
		cut := 0.05 + 0.6*(1-p)*(1-p)
		lp += (raw - lp) * cut
		freq := 90 - 55*p
		phase += 2 * math.Pi * freq / SampleRate
		sub := math.Sin(phase) * adsr(p, 0.01, 0.4, 0.3, 0.5) * 0.7
		noise := lp * adsr(p, 0.02, 0.3, 0.4, 0.6) * 0.8
		mix[i] = sub + noise
	}
	return render(mix)
}

// genPad: slow open fifth settling under the star field.
func genPad() []byte {
	n := int(2.5 * SampleRate)
	chord := []float64{146.83, 220, 293.66, 440}
	mix := make([]float64, n)
	for i := range mix {
		t := float64(i) / SampleRate
		env := adsr(float64(i)/float64(n), 0.3, 0.2, 0.7, 0.45)
		var s float64
		for k, f := range chord {
			detune := 1 + 0.002*float64(k)
			s += fm(t, f*detune, 1.0, 0.4) * 0.09
		}
		mix[i] = s * env
	}
	return render(mix)
}

// genSelect: crisp click + brief high tone.
func genSelect() []byte {
	n := SampleRate * 65 / 1000
	mix := make([]float64, n)
	for i := range mix {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.004, 0.55, 0.0, 0.1)
		mix[i] = fm(t, 1400-700*p, 1.0, 0.6) * env * 0.38
	}
	return render(mix)
}

func render(mix []float64) []byte {
	buf := makeBuf(len(mix))
	for i, s := range mix {
		putStereoF32(buf, i, softSat(s))
	}
	return buf
}
