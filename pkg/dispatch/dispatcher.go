// Package dispatch implements the per-buffer loops that drain events and
// notify matching listeners, and the shared SendTo destination-resolution
// error taxonomy.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/internal/telemetry"
	"github.com/kyco-project/kyco/pkg/buffer"
	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/metrics"
)

// Loop drains one named buffer, notifying the shared listener table for
// every event it pulls, until it observes the shutdown sentinel.
type Loop struct {
	name   string
	buf    *buffer.Buffer
	table  *listener.Table
	done   chan struct{}
	doneWG sync.WaitGroup
}

// NewLoop constructs a dispatcher loop over buf, notifying against table.
// Call Start to launch its goroutine.
func NewLoop(name string, buf *buffer.Buffer, table *listener.Table) *Loop {
	return &Loop{name: name, buf: buf, table: table, done: make(chan struct{})}
}

// Start launches the loop's goroutine. ctx cancellation does not by itself
// stop the loop — only the shutdown sentinel does. It parents the dispatch
// spans and log lines; listeners receive only the event, not ctx.
func (l *Loop) Start(ctx context.Context) {
	l.doneWG.Add(1)
	go l.run(ctx)
}

// Wait blocks until the loop has observed the shutdown sentinel and
// returned.
func (l *Loop) Wait() {
	l.doneWG.Wait()
}

// Done returns a channel closed once the loop has terminated.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run(ctx context.Context) {
	defer l.doneWG.Done()
	defer close(l.done)

	for {
		e := l.buf.Get()
		metrics.SetBufferDepth(l.name, l.buf.Len())
		metrics.RecordDispatch(l.name, e.Name())

		l.notify(ctx, e)

		if e.IsShutdown() {
			logger.InfoCtx(ctx, "dispatcher terminated", logger.Buffer(l.name))
			return
		}
	}
}

func (l *Loop) notify(ctx context.Context, e event.Event) {
	spanCtx, span := telemetry.StartDispatchSpan(ctx, e.Name(), telemetry.BufferName(l.name))
	defer span.End()

	started := time.Now()
	matched := l.table.Match(e.Name())
	for _, fn := range matched {
		invoke(spanCtx, l.name, e, fn)
	}
	metrics.ObserveDispatchDuration(l.name, float64(time.Since(started).Microseconds())/1000.0)
}

// invoke runs a single listener, recovering panics and logging errors so
// that one faulty listener never poisons the dispatcher's buffer.
func invoke(ctx context.Context, bufferName string, e event.Event, fn listener.Func) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordListenerError(e.Name())
			logger.ErrorCtx(ctx, "listener panicked",
				logger.EventName(e.Name()),
				logger.Buffer(bufferName),
				logger.Err(fmt.Errorf("%v", r)),
			)
		}
	}()

	fn(e)
}
