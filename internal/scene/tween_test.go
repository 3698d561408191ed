package scene

import (
	"math"
	"testing"
)

func newFloatTrack(base float64) track[float64] {
	return track[float64]{base: base, mix: lerp}
}

func TestTrackBeforeAndAfter(t *testing.T) {
	tr := newFloatTrack(2)
	tr.add(segment[float64]{start: 1, dur: 2, to: 6})

	for _, c := range []struct{ t, want float64 }{{0, 2}, {1, 2}, {2, 4}, {3, 6}, {10, 6}} {
		if got := tr.at(c.t); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("at(%v)=%v, want %v", c.t, got, c.want)
		}
	}
	if e := tr.end(); e != 3 {
		t.Fatalf("end=%v, want 3", e)
	}
}

func TestTrackChainsFromScheduledValue(t *testing.T) {
	tr := newFloatTrack(1)
	tr.add(segment[float64]{start: 0, dur: 1, to: 4})
	tr.add(segment[float64]{start: 0.5, dur: 1, to: 0})

	if from := tr.segs[1].from; from != 2.5 {
		t.Fatalf("second segment from=%v, want value of first at 0.5 (2.5)", from)
	}
	if got := tr.at(0.5); got != 2.5 {
		t.Fatalf("at(0.5)=%v, want continuous 2.5", got)
	}
	if got := tr.at(1.5); got != 0 {
		t.Fatalf("at(1.5)=%v, want 0", got)
	}
}

func TestTrackOrderIndependentOfInsertion(t *testing.T) {
	tr := newFloatTrack(0)
	tr.add(segment[float64]{start: 5, dur: 1, to: 10})
	tr.add(segment[float64]{start: 1, dur: 1, to: 3})
	if got := tr.at(2); got != 3 {
		t.Fatalf("at(2)=%v, want 3", got)
	}
	if got := tr.firstStart(); got != 1 {
		t.Fatalf("firstStart=%v, want 1", got)
	}
}

func TestYoyoRepeats(t *testing.T) {
	tr := newFloatTrack(1.5)
	tr.add(segment[float64]{start: 0, dur: 3, to: 2, ease: sineInOut, yoyo: true})

	checks := []struct{ t, want float64 }{{0, 1.5}, {1.5, 1.75}, {3, 2}, {4.5, 1.75}, {6, 1.5}, {9, 2}}
	for _, c := range checks {
		if got := tr.at(c.t); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("at(%v)=%v, want %v", c.t, got, c.want)
		}
	}
	if e := tr.end(); !math.IsInf(e, -1) {
		t.Fatalf("end=%v, want -Inf for a repeating track", e)
	}
}

func TestRebase(t *testing.T) {
	tr := newFloatTrack(0)
	tr.add(segment[float64]{start: 0, dur: 2, to: 8})
	tr.rebase(1)
	if len(tr.segs) != 0 || tr.base != 4 {
		t.Fatalf("after rebase segs=%d base=%v, want 0 and 4", len(tr.segs), tr.base)
	}
}

func TestEasingEndpoints(t *testing.T) {
	for name, e := range map[string]Ease{
		"power2.out":   easePower2Out,
		"power2.inOut": easePower2InOut,
		"power3.inOut": easePower3InOut,
		"sine.inOut":   sineInOut,
	} {
		if e(0) != 0 || math.Abs(e(1)-1) > 1e-12 {
			t.Fatalf("%s: e(0)=%v e(1)=%v, want 0 and 1", name, e(0), e(1))
		}
		if math.Abs(e(0.25)+e(0.75)-1) > 1e-12 && name != "power2.out" {
			t.Fatalf("%s not symmetric: e(.25)=%v e(.75)=%v", name, e(0.25), e(0.75))
		}
	}
	if easePower2Out(0.5) <= 0.5 {
		t.Fatalf("power2.out(0.5)=%v, want front-loaded", easePower2Out(0.5))
	}
}
