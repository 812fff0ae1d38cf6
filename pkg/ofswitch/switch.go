// Package ofswitch models the logical switch entity keyed by datapath id,
// as distinct from the (possibly several, successive) Connections that
// have served it.
package ofswitch

import "sync"

// Switch is the entity identified by a dpid. It does not own its current
// Connection — the connection registry does — it only remembers which
// connection id is current, reconciled through the controller on use.
type Switch struct {
	dpid string

	mu           sync.RWMutex
	connectionID string
}

// New creates a Switch for dpid, currently served by the connection at
// connectionID.
func New(dpid, connectionID string) *Switch {
	return &Switch{dpid: dpid, connectionID: connectionID}
}

// DPID returns the switch's datapath id.
func (s *Switch) DPID() string { return s.dpid }

// CurrentConnectionID returns the id of the connection currently serving
// this switch.
func (s *Switch) CurrentConnectionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionID
}

// SetCurrentConnectionID updates which connection currently serves this
// switch, used when a new Connection reports the same dpid.
func (s *Switch) SetCurrentConnectionID(id string) {
	s.mu.Lock()
	s.connectionID = id
	s.mu.Unlock()
}
