// Package builtin provides the core NApps loaded by every controller
// instance: topology bookkeeping (kyco/topology) and the hello handshake
// that registers switches (kyco/handshake), under the same compile-time
// registry NApp authors use.
package builtin

import (
	"fmt"

	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/napp"
)

// TopologyName is the registry key this NApp registers itself under.
const TopologyName = "kyco/topology"

func init() {
	napp.Register(TopologyName, newTopology)
}

// topologyController is the slice of the controller facade this NApp
// needs. Declared locally to avoid importing pkg/controller directly;
// pkg/controller.Controller satisfies it structurally.
type topologyController interface {
	RemoveConnection(id string) bool
}

// topology is a core NApp that keeps the connection registry consistent
// with connection.lost notifications. A switch's entry persists across the
// loss of its current connection — only a new connection reporting the
// same dpid supersedes it, per the switch registry's own contract — so
// this NApp only ever drops the dead Connection, never the Switch.
type topology struct {
	ctrl topologyController
}

func newTopology(controller any) napp.NApp {
	ctrl, ok := controller.(topologyController)
	if !ok {
		panic(fmt.Sprintf("napp %s: controller does not satisfy topologyController", TopologyName))
	}
	return &topology{ctrl: ctrl}
}

func (t *topology) Start() error {
	logger.Info("topology napp started")
	return nil
}

func (t *topology) Shutdown() error {
	logger.Info("topology napp stopped")
	return nil
}

func (t *topology) Listeners() napp.ListenerSet {
	return napp.ListenerSet{
		event.NameConnectionLost: {t.onConnectionLost},
	}
}

func (t *topology) IsCore() bool { return true }

func (t *topology) onConnectionLost(e event.Event) {
	id := e.ConnectionID()
	if id == "" {
		return
	}

	t.ctrl.RemoveConnection(id)
	logger.Info("connection removed after loss", logger.ConnectionID(id))
}

var _ listener.Func = (*topology)(nil).onConnectionLost
