package ofswitch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyco-project/kyco/pkg/ofswitch"
)

func TestSupersedeCreatesSwitchOnFirstSight(t *testing.T) {
	r := ofswitch.NewRegistry()

	previous := r.Supersede("00:00:00:00:00:00:00:01", "10.0.0.1:6653")

	assert.Empty(t, previous)
	sw := r.Get("00:00:00:00:00:00:00:01")
	assert.Equal(t, "10.0.0.1:6653", sw.CurrentConnectionID())
}

func TestSupersedeReturnsPreviousConnectionID(t *testing.T) {
	r := ofswitch.NewRegistry()
	r.Supersede("dpid-1", "conn-a")

	previous := r.Supersede("dpid-1", "conn-b")

	assert.Equal(t, "conn-a", previous)
	assert.Equal(t, "conn-b", r.Get("dpid-1").CurrentConnectionID())
}

func TestRegistryRemove(t *testing.T) {
	r := ofswitch.NewRegistry()
	assert.False(t, r.Remove("dpid-1"))

	r.Supersede("dpid-1", "conn-a")
	assert.True(t, r.Remove("dpid-1"))
	assert.Nil(t, r.Get("dpid-1"))
	assert.Equal(t, 0, r.Len())
}
