// Package connection models one live TCP peer and its lifecycle state.
package connection

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// State is a Connection's position in its lifecycle.
type State int32

const (
	StateNew State = iota
	StateHandshaking
	StateEstablished
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateEstablished:
		return "ESTABLISHED"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection is one TCP peer: its identity, its socket, and its lifecycle
// state. A Connection exclusively owns its socket for the duration of its
// lifetime; replacing the registry entry for an id always closes the
// previous Connection first.
type Connection struct {
	id    string
	conn  net.Conn
	state atomic.Int32

	dpidMu sync.RWMutex
	dpid   string
}

// New wraps an accepted net.Conn. id is conventionally conn.RemoteAddr().
func New(id string, conn net.Conn) *Connection {
	c := &Connection{id: id, conn: conn}
	c.state.Store(int32(StateNew))
	return c
}

// ID returns the connection identifier, "ip:port" of the remote peer.
func (c *Connection) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// SetState transitions the connection to a new lifecycle state.
func (c *Connection) SetState(s State) { c.state.Store(int32(s)) }

// DPID returns the switch datapath id reported over this connection, or ""
// if the switch has not yet identified itself.
func (c *Connection) DPID() string {
	c.dpidMu.RLock()
	defer c.dpidMu.RUnlock()
	return c.dpid
}

// SetDPID records the datapath id a switch reported over this connection.
func (c *Connection) SetDPID(dpid string) {
	c.dpidMu.Lock()
	c.dpid = dpid
	c.dpidMu.Unlock()
}

// Read reads into b via the connection's receive half. Only the acceptor's
// reader goroutine for this connection may call Read.
func (c *Connection) Read(b []byte) (int, error) {
	return c.conn.Read(b)
}

// Send writes bytes to the peer via the connection's send half. It performs
// a blocking write and returns any socket error encountered.
func (c *Connection) Send(b []byte) error {
	if c.State() != StateEstablished && c.State() != StateHandshaking {
		return fmt.Errorf("connection %s: not writable in state %s", c.id, c.State())
	}
	_, err := c.conn.Write(b)
	return err
}

// Close marks the connection CLOSING and closes its socket. Safe to call
// more than once.
func (c *Connection) Close() error {
	c.SetState(StateClosing)
	err := c.conn.Close()
	c.SetState(StateClosed)
	return err
}

// SetReadDeadline forwards to the underlying socket, used by the acceptor
// to interrupt a blocked reader during shutdown.
func (c *Connection) SetReadDeadline(deadline time.Time) error {
	return c.conn.SetReadDeadline(deadline)
}

// RemoteAddr returns the raw remote socket address string.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
