// Package buffer implements the named event queues that sit between the
// acceptor/NApps and the dispatcher loops.
package buffer

import (
	"sync"

	"github.com/kyco-project/kyco/pkg/event"
)

// Buffer is an unbounded FIFO of events with a blocking Get and a
// non-blocking Put. It has a single conceptual consumer: the dispatcher
// loop that owns it.
type Buffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []event.Event
}

// New returns an empty Buffer.
func New() *Buffer {
	b := &Buffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Put appends an event and wakes a blocked Get. It never blocks.
func (b *Buffer) Put(e event.Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
	b.cond.Signal()
}

// Get blocks until an event is available, then returns it in FIFO order.
func (b *Buffer) Get() event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.events) == 0 {
		b.cond.Wait()
	}

	e := b.events[0]
	b.events[0] = event.Event{}
	b.events = b.events[1:]
	return e
}

// Len returns the number of events currently queued. Used by metrics; not
// a synchronization primitive.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
