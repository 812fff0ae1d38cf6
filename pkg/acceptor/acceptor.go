// Package acceptor owns the listening socket and spawns a per-connection
// reader for every accepted switch, feeding the raw buffer with
// connection.new, decoded frame, and connection.lost events.
package acceptor

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kyco-project/kyco/internal/bytesize"
	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/internal/telemetry"
	"github.com/kyco-project/kyco/pkg/buffer"
	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/connection"
	"github.com/kyco-project/kyco/pkg/event"
)

// Config holds the acceptor's own configuration, separate from the
// controller-wide Config so the acceptor package has no dependency on
// pkg/config.
type Config struct {
	// BindAddress is the address to listen on, "" or "0.0.0.0" for all
	// interfaces.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// ShutdownTimeout bounds how long Stop waits for in-flight readers to
	// finish their current iteration before force-closing.
	ShutdownTimeout time.Duration

	// MaxFrameSize bounds how many unconsumed bytes a connection's reader
	// may accumulate while waiting for the codec to decode a complete
	// frame. Zero disables the cap.
	MaxFrameSize bytesize.ByteSize
}

// Acceptor binds a listening socket and spawns a reader goroutine per
// accepted connection. Accepted connections are registered into raw via
// kyco/core.connection.new; decoded frames and connection.lost events
// follow from each reader.
type Acceptor struct {
	cfg   Config
	codec codec.Codec
	raw   *buffer.Buffer

	listenerMu sync.RWMutex
	listener   net.Listener

	shutdownOnce sync.Once
	shutdown     chan struct{}
	ready        chan struct{}

	activeReaders sync.WaitGroup
	active        sync.Map // connection id -> *connection.Connection
}

// New constructs an Acceptor that enqueues onto raw and frames bytes with
// c.
func New(cfg Config, c codec.Codec, raw *buffer.Buffer) *Acceptor {
	return &Acceptor{
		cfg:      cfg,
		codec:    c,
		raw:      raw,
		shutdown: make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Start binds the listening socket and runs the accept loop until ctx is
// cancelled or Stop is called. A bind failure is returned immediately and
// is fatal to the controller's Start.
func (a *Acceptor) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.cfg.BindAddress, a.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("acceptor: listen on %s: %w", addr, err)
	}

	a.listenerMu.Lock()
	a.listener = ln
	a.listenerMu.Unlock()
	close(a.ready)

	logger.InfoCtx(ctx, "acceptor listening", "addr", addr)

	go func() {
		<-ctx.Done()
		a.initiateShutdown()
	}()

	for {
		tcpConn, err := ln.Accept()
		if err != nil {
			select {
			case <-a.shutdown:
				return nil
			default:
				logger.WarnCtx(ctx, "acceptor: accept error", logger.Err(err))
				continue
			}
		}

		if tcp, ok := tcpConn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		a.handleAccepted(ctx, tcpConn)
	}
}

func (a *Acceptor) handleAccepted(ctx context.Context, tcpConn net.Conn) {
	id := tcpConn.RemoteAddr().String()
	conn := connection.New(id, tcpConn)

	a.active.Store(id, conn)

	spanCtx, span := telemetry.StartConnectionSpan(ctx, telemetry.SpanAcceptConnection, id)
	logger.InfoCtx(spanCtx, "connection accepted", logger.ConnectionID(id))

	a.raw.Put(event.New(event.NameConnectionNew, event.Content{"connection": conn}).WithConnectionID(id))
	span.End()

	a.activeReaders.Add(1)
	go a.readLoop(ctx, conn)
}

// readLoop repeatedly reads bytes, delegates framing to the codec, and
// enqueues one event per decoded message onto raw. On EOF or a read error
// it emits connection.lost and returns.
func (a *Acceptor) readLoop(ctx context.Context, conn *connection.Connection) {
	defer a.activeReaders.Done()
	defer a.active.Delete(conn.ID())

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			a.emitConnectionLost(ctx, conn, err)
			return
		}

		if a.cfg.MaxFrameSize > 0 && bytesize.ByteSize(len(buf)) > a.cfg.MaxFrameSize {
			err := fmt.Errorf("acceptor: frame exceeds max size %s", a.cfg.MaxFrameSize)
			logger.ErrorCtx(ctx, "oversized frame", logger.ConnectionID(conn.ID()), logger.Err(err))
			a.emitConnectionLost(ctx, conn, err)
			return
		}

		for {
			msg, consumed, decodeErr := a.codec.Decode(buf)
			if decodeErr != nil {
				logger.ErrorCtx(ctx, "codec decode error", logger.ConnectionID(conn.ID()), logger.Err(decodeErr))
				a.emitConnectionLost(ctx, conn, decodeErr)
				return
			}
			if consumed == 0 {
				break
			}

			name := a.codec.EventNameFor(msg)
			e := event.New(name, event.Content{"message": msg}).WithConnectionID(conn.ID())
			if dpid := conn.DPID(); dpid != "" {
				e = e.WithDPID(dpid)
			}
			a.raw.Put(e)

			buf = buf[consumed:]
		}
	}
}

func (a *Acceptor) emitConnectionLost(ctx context.Context, conn *connection.Connection, reason error) {
	logger.InfoCtx(ctx, "connection lost", logger.ConnectionID(conn.ID()), logger.Err(reason))
	a.raw.Put(event.New(event.NameConnectionLost, event.Content{
		"connection_id": conn.ID(),
		"reason":        reason,
	}).WithConnectionID(conn.ID()))
}

// initiateShutdown closes the listener and sets a short read deadline on
// every active connection so blocked readers unblock promptly. Safe to
// call more than once.
func (a *Acceptor) initiateShutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdown)

		a.listenerMu.RLock()
		if a.listener != nil {
			_ = a.listener.Close()
		}
		a.listenerMu.RUnlock()

		deadline := time.Now().Add(100 * time.Millisecond)
		a.active.Range(func(_, v any) bool {
			if conn, ok := v.(*connection.Connection); ok {
				_ = conn.SetReadDeadline(deadline)
			}
			return true
		})
	})
}

// Stop initiates shutdown and waits for in-flight readers to finish their
// current iteration, up to ShutdownTimeout, after which remaining
// connections are force-closed.
func (a *Acceptor) Stop(ctx context.Context) error {
	a.initiateShutdown()

	done := make(chan struct{})
	go func() {
		a.activeReaders.Wait()
		close(done)
	}()

	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		a.active.Range(func(_, v any) bool {
			if conn, ok := v.(*connection.Connection); ok {
				_ = conn.Close()
			}
			return true
		})
		return fmt.Errorf("acceptor: shutdown timeout exceeded, connections force-closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr blocks until the listener is ready and returns its address. Used
// by tests to discover the ephemeral port when Port is configured as 0.
func (a *Acceptor) Addr() string {
	<-a.ready
	a.listenerMu.RLock()
	defer a.listenerMu.RUnlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
