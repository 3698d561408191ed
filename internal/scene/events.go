package scene

type EventType int

const (
	EventFormStarted EventType = iota
	EventTextFormed
	EventBurst
	EventSpaceFormed
	EventNavigate
)

type Event struct {
	Type  EventType
	Time  float64 // elapsed seconds when emitted
	Index int     // particle index for EventNavigate, -1 otherwise
}

type EventHandler func(Event)

// EventBus dispatches synchronously on the tick goroutine.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
