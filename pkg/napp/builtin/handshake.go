package builtin

import (
	"fmt"
	"strings"

	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/napp"
)

// HandshakeName is the registry key this NApp registers itself under.
const HandshakeName = "kyco/handshake"

func init() {
	napp.Register(HandshakeName, newHandshake)
}

// handshakeController is the slice of the controller facade this NApp
// needs. Declared locally to avoid importing pkg/controller directly;
// pkg/controller.Controller satisfies it structurally.
type handshakeController interface {
	RegisterSwitch(connectionID, dpid string) error
}

// handshake is a core NApp that learns a connection's dpid from its hello
// frame and registers it with the switch registry. The acceptor itself
// never knows a dpid at accept time; this NApp is the collaborator that
// closes that gap once a switch identifies itself. It only understands
// the bundled line-delimited codec's "hello <dpid>" framing — a real
// OpenFlow deployment would register an equivalent NApp that decodes the
// actual OFPT_HELLO/Features Request exchange instead.
type handshake struct {
	ctrl handshakeController
}

func newHandshake(controller any) napp.NApp {
	ctrl, ok := controller.(handshakeController)
	if !ok {
		panic(fmt.Sprintf("napp %s: controller does not satisfy handshakeController", HandshakeName))
	}
	return &handshake{ctrl: ctrl}
}

func (h *handshake) Start() error {
	logger.Info("handshake napp started")
	return nil
}

func (h *handshake) Shutdown() error {
	logger.Info("handshake napp stopped")
	return nil
}

func (h *handshake) Listeners() napp.ListenerSet {
	return napp.ListenerSet{
		"kyco/of.hello": {h.onHello},
	}
}

func (h *handshake) IsCore() bool { return true }

func (h *handshake) onHello(e event.Event) {
	connID := e.ConnectionID()
	if connID == "" {
		return
	}

	msg, ok := e.Content()["message"].(codec.LineMessage)
	if !ok {
		return
	}

	fields := strings.Fields(string(msg.Payload))
	if len(fields) < 2 {
		logger.Warn("hello frame missing dpid", logger.ConnectionID(connID))
		return
	}

	dpid := fields[1]
	if err := h.ctrl.RegisterSwitch(connID, dpid); err != nil {
		logger.Error("register switch failed", logger.ConnectionID(connID), logger.DPID(dpid), logger.Err(err))
	}
}

var _ listener.Func = (*handshake)(nil).onHello
