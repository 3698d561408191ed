package scene

type State int

const (
	StateIdle       State = iota
	StateForming          // particles travelling to the text cloud
	StateTextFormed       // holding the text
	StateBursting         // explosion, then retarget onto the star field
	StateSpaceFormed      // static stars and globe; terminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateForming:
		return "forming"
	case StateTextFormed:
		return "text-formed"
	case StateBursting:
		return "bursting"
	case StateSpaceFormed:
		return "space-formed"
	}
	return "unknown"
}

// busy reports whether a scripted transition is in flight. Triggers are dropped while busy.
func (s State) busy() bool {
	return s == StateForming || s == StateBursting
}
