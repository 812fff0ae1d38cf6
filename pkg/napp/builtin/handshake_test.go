package builtin_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/napp"

	_ "github.com/kyco-project/kyco/pkg/napp/builtin"
)

type fakeHandshakeController struct {
	registered map[string]string // connID -> dpid
	failDPID   string
}

func (f *fakeHandshakeController) RegisterSwitch(connectionID, dpid string) error {
	if dpid == f.failDPID {
		return fmt.Errorf("register switch: boom")
	}
	if f.registered == nil {
		f.registered = map[string]string{}
	}
	f.registered[connectionID] = dpid
	return nil
}

func newLoadedHandshake(t *testing.T, ctrl *fakeHandshakeController) *listener.Table {
	t.Helper()
	table := listener.New()
	mgr := napp.NewManager(table, ctrl)
	require.NoError(t, mgr.LoadNApp("kyco/handshake"))
	return table
}

func TestHandshakeIsRegisteredAsCore(t *testing.T) {
	assert.Contains(t, napp.Available(), "kyco/handshake")
}

func TestHandshakeRegistersSwitchFromHelloPayload(t *testing.T) {
	ctrl := &fakeHandshakeController{}
	table := newLoadedHandshake(t, ctrl)

	msg := codec.LineMessage{EventName: "kyco/of.hello", Payload: []byte("hello dpid-1")}
	for _, fn := range table.Match("kyco/of.hello") {
		fn(event.New("kyco/of.hello", event.Content{"message": msg}).WithConnectionID("conn-a"))
	}

	assert.Equal(t, "dpid-1", ctrl.registered["conn-a"])
}

func TestHandshakeIgnoresEventsWithoutConnectionID(t *testing.T) {
	ctrl := &fakeHandshakeController{}
	table := newLoadedHandshake(t, ctrl)

	msg := codec.LineMessage{EventName: "kyco/of.hello", Payload: []byte("hello dpid-1")}
	for _, fn := range table.Match("kyco/of.hello") {
		fn(event.New("kyco/of.hello", event.Content{"message": msg}))
	}

	assert.Empty(t, ctrl.registered)
}

func TestHandshakeIgnoresMalformedHelloPayload(t *testing.T) {
	ctrl := &fakeHandshakeController{}
	table := newLoadedHandshake(t, ctrl)

	msg := codec.LineMessage{EventName: "kyco/of.hello", Payload: []byte("hello")}
	for _, fn := range table.Match("kyco/of.hello") {
		fn(event.New("kyco/of.hello", event.Content{"message": msg}).WithConnectionID("conn-a"))
	}

	assert.Empty(t, ctrl.registered)
}

func TestHandshakeIgnoresEventsWithoutLineMessage(t *testing.T) {
	ctrl := &fakeHandshakeController{}
	table := newLoadedHandshake(t, ctrl)

	for _, fn := range table.Match("kyco/of.hello") {
		fn(event.New("kyco/of.hello", nil).WithConnectionID("conn-a"))
	}

	assert.Empty(t, ctrl.registered)
}

func TestHandshakeSurvivesRegisterSwitchError(t *testing.T) {
	ctrl := &fakeHandshakeController{failDPID: "dpid-1"}
	table := newLoadedHandshake(t, ctrl)

	msg := codec.LineMessage{EventName: "kyco/of.hello", Payload: []byte("hello dpid-1")}
	assert.NotPanics(t, func() {
		for _, fn := range table.Match("kyco/of.hello") {
			fn(event.New("kyco/of.hello", event.Content{"message": msg}).WithConnectionID("conn-a"))
		}
	})
	assert.Empty(t, ctrl.registered)
}

func TestNewHandshakePanicsOnUnsatisfyingController(t *testing.T) {
	factory, ok := napp.Lookup("kyco/handshake")
	require.True(t, ok)

	assert.Panics(t, func() {
		factory("not a controller")
	})
}
