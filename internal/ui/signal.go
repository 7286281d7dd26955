// Package ui provides a headless widget model for settings panels.
//
// Widgets hold state and expose signals that handlers connect to, mirroring
// the signal/slot wiring of a desktop toolkit without depending on one. All
// widgets are owned by a single goroutine, normally the one running a Loop.
package ui

// Signal delivers values of type T to connected handlers in connection order.
type Signal[T any] struct {
	nextID   int
	handlers []handler[T]
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Connect registers fn and returns an id usable with Disconnect.
func (s *Signal[T]) Connect(fn func(T)) int {
	s.nextID++
	s.handlers = append(s.handlers, handler[T]{id: s.nextID, fn: fn})
	return s.nextID
}

// Disconnect removes the handler with the given id.
func (s *Signal[T]) Disconnect(id int) {
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of connected handlers.
func (s *Signal[T]) Len() int {
	return len(s.handlers)
}

func (s *Signal[T]) emit(v T) {
	// Copy so handlers may connect or disconnect while being called.
	hs := make([]handler[T], len(s.handlers))
	copy(hs, s.handlers)
	for _, h := range hs {
		h.fn(v)
	}
}
