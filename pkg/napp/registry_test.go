package napp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyco-project/kyco/pkg/napp"
)

func TestRegisterAndLookup(t *testing.T) {
	name := fmt.Sprintf("test/registry-%p", t)
	napp.Register(name, func(any) napp.NApp { return &fakeNApp{} })

	factory, ok := napp.Lookup(name)
	require.True(t, ok)
	require.NotNil(t, factory)

	assert.Contains(t, napp.Available(), name)
}

func TestLookupUnknownName(t *testing.T) {
	_, ok := napp.Lookup("test/does-not-exist")
	assert.False(t, ok)
}

func TestRegisterTwicePanics(t *testing.T) {
	name := fmt.Sprintf("test/duplicate-%p", t)
	napp.Register(name, func(any) napp.NApp { return &fakeNApp{} })

	assert.Panics(t, func() {
		napp.Register(name, func(any) napp.NApp { return &fakeNApp{} })
	})
}
