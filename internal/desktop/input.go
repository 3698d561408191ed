package desktop

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// scrollStep is the page fraction one wheel notch scrolls.
const scrollStep = 0.05

// Pointer is the subset of the scene's input hooks the window feeds.
type Pointer interface {
	OnPointerMove(ndcX, ndcY float64)
	OnPointerDown()
	OnPointerUp()
	OnClick(ndcX, ndcY float64)
	OnScrollProgress(f float64)
	HoverSpecial() bool
}

// Input turns polled window state into pointer events. Scrolling arrives through a
// callback and is applied on the next poll.
type Input struct {
	prevMouse   map[glfw.MouseButton]bool
	prevCursorX float64
	prevCursorY float64
	seenCursor  bool

	scrollDelta float64
	progress    float64

	hand    *glfw.Cursor
	hovered bool
}

func NewInput(window *glfw.Window) *Input {
	in := &Input{
		prevMouse: make(map[glfw.MouseButton]bool),
		hand:      glfw.CreateStandardCursor(glfw.HandCursor),
	}
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		in.scrollDelta += yoff
	})
	return in
}

func (in *Input) Destroy() {
	if in.hand != nil {
		in.hand.Destroy()
		in.hand = nil
	}
}

// JustPressed reports a press edge for btn.
func (in *Input) JustPressed(window *glfw.Window, btn glfw.MouseButton) bool {
	down := window.GetMouseButton(btn) == glfw.Press
	jp := down && !in.prevMouse[btn]
	in.prevMouse[btn] = down
	return jp
}

// Poll forwards cursor motion, left button edges, scrolling and the hover cursor.
func (in *Input) Poll(window *glfw.Window, p Pointer) {
	winW, winH := window.GetSize()
	cx, cy := window.GetCursorPos()
	x, y := cursorNDC(cx, cy, winW, winH)

	if !in.seenCursor || math.Hypot(cx-in.prevCursorX, cy-in.prevCursorY) > 0.5 {
		in.seenCursor = true
		in.prevCursorX, in.prevCursorY = cx, cy
		p.OnPointerMove(x, y)
	}

	wasDown := in.prevMouse[glfw.MouseButtonLeft]
	if in.JustPressed(window, glfw.MouseButtonLeft) {
		p.OnPointerDown()
	} else if wasDown && !in.prevMouse[glfw.MouseButtonLeft] {
		p.OnPointerUp()
		p.OnClick(x, y)
	}

	if in.scrollDelta != 0 {
		in.progress = scrollProgress(in.progress, in.scrollDelta)
		in.scrollDelta = 0
		p.OnScrollProgress(in.progress)
	}

	if hover := p.HoverSpecial(); hover != in.hovered {
		in.hovered = hover
		if hover {
			window.SetCursor(in.hand)
		} else {
			window.SetCursor(nil)
		}
	}
}

// cursorNDC maps window pixels to NDC with +y up.
func cursorNDC(cx, cy float64, winW, winH int) (x, y float64) {
	if winW <= 0 || winH <= 0 {
		return 0, 0
	}
	x = cx/float64(winW)*2 - 1
	y = 1 - cy/float64(winH)*2
	return x, y
}

// scrollProgress applies wheel notches to a page progress in [0,1]. Wheel up (positive)
// scrolls back toward the top.
func scrollProgress(progress, notches float64) float64 {
	return math.Max(0, math.Min(1, progress-notches*scrollStep))
}
