// Package controller implements the facade that owns the buffer set, the
// listener table, the connection and switch registries, and the NApp
// manager, exposing Start, Stop, SendTo and the lookup/registration
// operations described in the dispatch-core design.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kyco-project/kyco/internal/bytesize"
	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/pkg/acceptor"
	"github.com/kyco-project/kyco/pkg/buffer"
	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/connection"
	"github.com/kyco-project/kyco/pkg/dispatch"
	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/metrics"
	"github.com/kyco-project/kyco/pkg/napp"
	"github.com/kyco-project/kyco/pkg/ofswitch"
)

// Config is the subset of the daemon's configuration the controller needs
// directly; everything else (logging, telemetry, CLI) is wired by the
// caller before Start is invoked.
type Config struct {
	BindAddress     string
	Port            int
	ShutdownTimeout time.Duration
	MaxFrameSize    bytesize.ByteSize // per-connection read buffer cap before a frame is decoded
	Buffers         []string          // additional buffers beyond raw/app, e.g. msg_in, msg_out
	NApps           []string          // author/napp names to load at Start
}

// Controller is the dispatch core's public facade.
type Controller struct {
	cfg Config

	buffers  *buffer.BufferSet
	listen   *listener.Table
	conns    *connection.Registry
	switches *ofswitch.Registry
	napps    *napp.Manager

	codec    codec.Codec
	accept   *acceptor.Acceptor
	loops    []*dispatch.Loop

	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// New constructs a Controller wired against c, which frames and classifies
// bytes read from accepted switches.
func New(cfg Config, c codec.Codec) *Controller {
	names := append([]string{buffer.Raw, buffer.App}, cfg.Buffers...)

	ctrl := &Controller{
		cfg:      cfg,
		buffers:  buffer.NewSet(names...),
		listen:   listener.New(),
		conns:    connection.NewRegistry(),
		switches: ofswitch.NewRegistry(),
		codec:    c,
	}
	ctrl.napps = napp.NewManager(ctrl.listen, ctrl)

	ctrl.listen.Subscribe(event.NameConnectionNew, ctrl.onConnectionNew, "")

	return ctrl
}

// Start launches the acceptor and every dispatcher loop, then loads the
// configured NApps. A bind failure is fatal and aborts Start, leaving
// nothing further started.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.accept = acceptor.New(acceptor.Config{
		BindAddress:     c.cfg.BindAddress,
		Port:            c.cfg.Port,
		ShutdownTimeout: c.cfg.ShutdownTimeout,
		MaxFrameSize:    c.cfg.MaxFrameSize,
	}, c.codec, c.buffers.Buffer(buffer.Raw))

	bindErr := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.accept.Start(c.ctx); err != nil {
			select {
			case bindErr <- err:
			default:
			}
		}
	}()

	// Give the acceptor a moment to either bind or fail; Addr() blocks
	// until bind succeeds, so race it against the error channel.
	bound := make(chan struct{})
	go func() { c.accept.Addr(); close(bound) }()
	select {
	case err := <-bindErr:
		return fmt.Errorf("controller: start failed: %w", err)
	case <-bound:
	}

	for _, name := range c.buffers.Names() {
		loop := dispatch.NewLoop(name, c.buffers.Buffer(name), c.listen)
		loop.Start(c.ctx)
		c.loops = append(c.loops, loop)
	}

	c.napps.LoadNApps(c.cfg.NApps...)

	logger.InfoCtx(c.ctx, "controller started", "addr", c.accept.Addr())
	return nil
}

// Stop closes the acceptor socket, enqueues the shutdown sentinel on every
// buffer, unloads all non-core then core NApps, and waits for every
// goroutine to terminate. ShutdownTimeout bounds only the acceptor's wait
// for its connection readers; the wait for the dispatcher loops has no
// timeout.
func (c *Controller) Stop() error {
	logger.InfoCtx(c.ctx, "controller stopping")

	var acceptErr error
	if c.accept != nil {
		stopCtx := c.ctx
		if stopCtx == nil {
			stopCtx = context.Background()
		}
		acceptErr = c.accept.Stop(stopCtx)
	}

	c.buffers.SendStopSignal()

	c.napps.UnloadNApps()
	c.napps.UnloadCoreNApps()

	for _, loop := range c.loops {
		loop.Wait()
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	logger.InfoCtx(context.Background(), "controller stopped")
	return acceptErr
}

// SendTo writes b to dest, which is either a connection id ("ip:port") or
// a switch dpid. See the dispatch package's error taxonomy for failure
// kinds.
func (c *Controller) SendTo(dest string, b []byte) error {
	if conn := c.conns.Get(dest); conn != nil {
		if err := conn.Send(b); err != nil {
			return &dispatch.DestinationError{Destination: dest, Err: err}
		}
		return nil
	}

	if sw := c.switches.Get(dest); sw != nil {
		conn := c.conns.Get(sw.CurrentConnectionID())
		if conn == nil || conn.State() != connection.StateEstablished {
			return &dispatch.DestinationError{Destination: dest, Err: dispatch.ErrSwitchOffline}
		}
		if err := conn.Send(b); err != nil {
			return &dispatch.DestinationError{Destination: dest, Err: err}
		}
		return nil
	}

	return &dispatch.DestinationError{Destination: dest, Err: dispatch.ErrUnknownDestination}
}

// Addr blocks until the listening socket is bound and returns its address.
// Used by callers that configured Port: 0 and need to discover the
// ephemeral port actually chosen.
func (c *Controller) Addr() string {
	return c.accept.Addr()
}

// GetSwitchByDPID returns the Switch at dpid, or nil if absent.
func (c *Controller) GetSwitchByDPID(dpid string) *ofswitch.Switch {
	return c.switches.Get(dpid)
}

// GetConnectionByID returns the Connection at id, or nil if absent.
func (c *Controller) GetConnectionByID(id string) *connection.Connection {
	return c.conns.Get(id)
}

// RemoveConnection removes the connection at id and reports whether one
// was present.
func (c *Controller) RemoveConnection(id string) bool {
	removed := c.conns.Remove(id)
	metrics.SetConnectionsActive(c.conns.Len())
	return removed
}

// RemoveSwitch removes the switch at dpid and reports whether one was
// present.
func (c *Controller) RemoveSwitch(dpid string) bool {
	removed := c.switches.Remove(dpid)
	metrics.SetSwitchesActive(c.switches.Len())
	return removed
}

// RegisterSwitch associates dpid with the connection identified by
// connectionID, creating or superseding that switch's registry entry. The
// acceptor never knows a connection's dpid at accept time, so this is the
// facade entry point a handshake collaborator (e.g. the built-in
// handshake NApp, once it has classified a switch's hello message) calls
// after learning one. Superseding a dpid that already has a current
// connection closes the previous one, matching onConnectionNew's own
// supersede behavior.
func (c *Controller) RegisterSwitch(connectionID, dpid string) error {
	conn := c.conns.Get(connectionID)
	if conn == nil {
		return fmt.Errorf("controller: register switch: unknown connection %q", connectionID)
	}

	conn.SetDPID(dpid)
	c.supersedeSwitch(dpid, conn.ID())
	return nil
}

// NotifyListeners dispatches e to every listener whose pattern matches
// e.Name(), in the order listener.Table.Match returns them. Exposed on the facade so NApps and
// tests can drive the listener table directly without a buffer round
// trip.
func (c *Controller) NotifyListeners(e event.Event) {
	for _, fn := range c.listen.Match(e.Name()) {
		fn(e)
	}
}

// Subscribe registers fn under pattern on behalf of napp (empty string for
// core registrations) and returns a handle usable with Unsubscribe.
func (c *Controller) Subscribe(pattern string, fn listener.Func, owner string) listener.Handle {
	return c.listen.Subscribe(pattern, fn, owner)
}

// Unsubscribe removes the registration identified by h.
func (c *Controller) Unsubscribe(h listener.Handle) {
	c.listen.Unsubscribe(h)
}

// Put enqueues e onto the named buffer.
func (c *Controller) Put(bufferName string, e event.Event) error {
	return c.buffers.Put(bufferName, e)
}

// onConnectionNew is the built-in listener for kyco/core.connection.new:
// it replaces any prior Connection at the same id, closing it first, and
// if the new Connection already carries a known dpid, supersedes that
// switch's current connection too.
func (c *Controller) onConnectionNew(e event.Event) {
	conn, ok := e.Content()["connection"].(*connection.Connection)
	if !ok || conn == nil {
		return
	}

	c.conns.Replace(conn.ID(), conn)
	metrics.SetConnectionsActive(c.conns.Len())

	if dpid := conn.DPID(); dpid != "" {
		c.supersedeSwitch(dpid, conn.ID())
	}
}

// supersedeSwitch registers connID as dpid's current connection, closing
// whatever connection it previously pointed at (if different).
func (c *Controller) supersedeSwitch(dpid, connID string) {
	previousConnID := c.switches.Supersede(dpid, connID)
	metrics.SetSwitchesActive(c.switches.Len())

	if previousConnID != "" && previousConnID != connID {
		if previous := c.conns.Get(previousConnID); previous != nil {
			_ = previous.Close()
		}
	}
}
