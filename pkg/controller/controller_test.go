package controller_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyco-project/kyco/pkg/buffer"
	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/connection"
	"github.com/kyco-project/kyco/pkg/controller"
	"github.com/kyco-project/kyco/pkg/dispatch"
	"github.com/kyco-project/kyco/pkg/event"

	_ "github.com/kyco-project/kyco/pkg/napp/builtin"
)

func newTestController(t *testing.T, napps ...string) (*controller.Controller, func()) {
	t.Helper()
	ctrl := controller.New(controller.Config{
		BindAddress:     "127.0.0.1",
		Port:            0,
		ShutdownTimeout: time.Second,
		NApps:           napps,
	}, codec.NewLineCodec())

	require.NoError(t, ctrl.Start(context.Background()))
	return ctrl, func() { require.NoError(t, ctrl.Stop()) }
}

func TestSendToUnknownDestination(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	err := ctrl.SendTo("nobody-here", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrUnknownDestination)
}

func TestSendToSwitchOffline(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := connection.New("10.0.0.9:6653", client)
	conn.SetDPID("dpid-offline")

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": conn}).WithConnectionID(conn.ID())))

	require.Eventually(t, func() bool {
		return ctrl.GetSwitchByDPID("dpid-offline") != nil
	}, time.Second, 10*time.Millisecond)

	err := ctrl.SendTo("dpid-offline", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrSwitchOffline)
}

func TestReconnectSupersedesSwitchAndClosesPreviousConnection(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	firstClient, firstServer := net.Pipe()
	defer firstServer.Close()
	first := connection.New("10.0.0.1:1", firstClient)
	first.SetDPID("dpid-1")

	secondClient, secondServer := net.Pipe()
	defer secondServer.Close()
	second := connection.New("10.0.0.1:2", secondClient)
	second.SetDPID("dpid-1")

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": first}).WithConnectionID(first.ID())))
	require.Eventually(t, func() bool {
		sw := ctrl.GetSwitchByDPID("dpid-1")
		return sw != nil && sw.CurrentConnectionID() == first.ID()
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": second}).WithConnectionID(second.ID())))
	require.Eventually(t, func() bool {
		sw := ctrl.GetSwitchByDPID("dpid-1")
		return sw != nil && sw.CurrentConnectionID() == second.ID()
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return first.State() == connection.StateClosed
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterSwitchPopulatesRegistryForDplessConnection(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	// The acceptor never knows a dpid at accept time: the connection
	// enters the registry with none set, matching production behavior.
	client, server := net.Pipe()
	defer server.Close()
	conn := connection.New("10.0.0.7:1", client)

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": conn}).WithConnectionID(conn.ID())))
	require.Eventually(t, func() bool {
		return ctrl.GetConnectionByID(conn.ID()) != nil
	}, time.Second, 10*time.Millisecond)

	require.Nil(t, ctrl.GetSwitchByDPID("dpid-7"))

	require.NoError(t, ctrl.RegisterSwitch(conn.ID(), "dpid-7"))

	sw := ctrl.GetSwitchByDPID("dpid-7")
	require.NotNil(t, sw)
	assert.Equal(t, conn.ID(), sw.CurrentConnectionID())
	assert.Equal(t, "dpid-7", conn.DPID())
}

func TestRegisterSwitchSupersedesAndClosesPreviousConnection(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	firstClient, firstServer := net.Pipe()
	defer firstServer.Close()
	first := connection.New("10.0.0.8:1", firstClient)
	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": first}).WithConnectionID(first.ID())))
	require.Eventually(t, func() bool {
		return ctrl.GetConnectionByID(first.ID()) != nil
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, ctrl.RegisterSwitch(first.ID(), "dpid-8"))

	secondClient, secondServer := net.Pipe()
	defer secondServer.Close()
	second := connection.New("10.0.0.8:2", secondClient)
	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": second}).WithConnectionID(second.ID())))
	require.Eventually(t, func() bool {
		return ctrl.GetConnectionByID(second.ID()) != nil
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, ctrl.RegisterSwitch(second.ID(), "dpid-8"))

	sw := ctrl.GetSwitchByDPID("dpid-8")
	require.NotNil(t, sw)
	assert.Equal(t, second.ID(), sw.CurrentConnectionID())

	require.Eventually(t, func() bool {
		return first.State() == connection.StateClosed
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterSwitchUnknownConnection(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	err := ctrl.RegisterSwitch("nobody-here", "dpid-9")
	require.Error(t, err)
	assert.Nil(t, ctrl.GetSwitchByDPID("dpid-9"))
}

func TestHandshakeNAppRegistersSwitchFromHelloOverTCP(t *testing.T) {
	ctrl, cleanup := newTestController(t, "kyco/handshake")
	defer cleanup()

	conn, err := net.Dial("tcp", ctrl.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello dpid-hs\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sw := ctrl.GetSwitchByDPID("dpid-hs")
		return sw != nil
	}, time.Second, 10*time.Millisecond)
}

func TestTopologyNAppReconcilesConnectionRegistryOnLoss(t *testing.T) {
	ctrl, cleanup := newTestController(t, "kyco/topology")
	defer cleanup()

	client, server := net.Pipe()
	defer server.Close()
	conn := connection.New("10.0.0.5:1", client)
	conn.SetDPID("dpid-5")

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionNew, event.Content{"connection": conn}).WithConnectionID(conn.ID())))
	require.Eventually(t, func() bool {
		return ctrl.GetSwitchByDPID("dpid-5") != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, ctrl.Put(buffer.App, event.New(event.NameConnectionLost, event.Content{"connection_id": conn.ID()}).WithConnectionID(conn.ID()).WithDPID("dpid-5")))

	require.Eventually(t, func() bool {
		return ctrl.GetConnectionByID(conn.ID()) == nil
	}, time.Second, 10*time.Millisecond)

	// The switch entry persists across the loss of its current connection;
	// only a new connection for the same dpid supersedes it.
	sw := ctrl.GetSwitchByDPID("dpid-5")
	require.NotNil(t, sw)
	assert.Equal(t, conn.ID(), sw.CurrentConnectionID())
}

func TestEndToEndTCPRoundTrip(t *testing.T) {
	ctrl, cleanup := newTestController(t)
	defer cleanup()

	var received []string
	done := make(chan struct{}, 1)
	ctrl.Subscribe("kyco/of.hello", func(e event.Event) {
		received = append(received, e.Name())
		done <- struct{}{}
	}, "")

	conn, err := net.Dial("tcp", ctrl.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello switch\n"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hello frame was never dispatched")
	}

	assert.Equal(t, []string{"kyco/of.hello"}, received)
}
