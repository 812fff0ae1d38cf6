package buffer

import (
	"fmt"

	"github.com/kyco-project/kyco/pkg/event"
)

// Names of the two buffers every controller must have. Additional buffers
// (msg_in, msg_out) are optional and configured by name.
const (
	Raw = "raw"
	App = "app"
)

// BufferSet owns the named buffers a controller dispatches over. It is
// constructed once at startup with a fixed set of names; buffers cannot be
// added or removed afterwards.
type BufferSet struct {
	buffers map[string]*Buffer
	order   []string
}

// NewSet creates a BufferSet containing exactly the given buffer names.
// Raw and App are typically always present; callers that want msg_in/
// msg_out pipelines pass them explicitly.
func NewSet(names ...string) *BufferSet {
	s := &BufferSet{
		buffers: make(map[string]*Buffer, len(names)),
		order:   append([]string(nil), names...),
	}
	for _, name := range names {
		s.buffers[name] = New()
	}
	return s
}

// Names returns the buffer names in the order they were declared.
func (s *BufferSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Buffer returns the named buffer, or nil if no such buffer exists.
func (s *BufferSet) Buffer(name string) *Buffer {
	return s.buffers[name]
}

// Put enqueues an event on the named buffer. Returns an error if the
// buffer does not exist.
func (s *BufferSet) Put(name string, e event.Event) error {
	b, ok := s.buffers[name]
	if !ok {
		return fmt.Errorf("buffer: unknown buffer %q", name)
	}
	b.Put(e)
	return nil
}

// SendStopSignal enqueues the shutdown sentinel onto every buffer exactly
// once, so that every dispatcher loop observes it and terminates.
func (s *BufferSet) SendStopSignal() {
	sentinel := event.Shutdown()
	for _, b := range s.buffers {
		b.Put(sentinel)
	}
}
