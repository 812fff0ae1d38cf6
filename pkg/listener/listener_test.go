package listener_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyco-project/kyco/pkg/event"
	"github.com/kyco-project/kyco/pkg/listener"
)

func TestMatchLiteralPatternIsPrefixAnchored(t *testing.T) {
	tbl := listener.New()
	var called bool
	tbl.Subscribe("kyco/core.connection", func(event.Event) { called = true }, "")

	matched := tbl.Match("kyco/core.connection.new")
	assert.Len(t, matched, 1)
	matched[0](event.Event{})
	assert.True(t, called)

	assert.Empty(t, tbl.Match("kyco/core.other"))
}

func TestMatchRegexPattern(t *testing.T) {
	tbl := listener.New()
	tbl.Subscribe("kyco/core\\.connection\\.(new|lost)", func(event.Event) {}, "")

	assert.Len(t, tbl.Match("kyco/core.connection.new"), 1)
	assert.Len(t, tbl.Match("kyco/core.connection.lost"), 1)
	assert.Empty(t, tbl.Match("kyco/core.shutdown"))
}

func TestMatchPreservesRegistrationOrder(t *testing.T) {
	tbl := listener.New()
	var order []int

	tbl.Subscribe("kyco/core", func(event.Event) { order = append(order, 1) }, "")
	tbl.Subscribe("kyco/core", func(event.Event) { order = append(order, 2) }, "")
	tbl.Subscribe("kyco/core", func(event.Event) { order = append(order, 3) }, "")

	for _, fn := range tbl.Match("kyco/core.connection.new") {
		fn(event.Event{})
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeRemovesOnlyThatHandle(t *testing.T) {
	tbl := listener.New()
	h1 := tbl.Subscribe("kyco/core", func(event.Event) {}, "")
	tbl.Subscribe("kyco/core", func(event.Event) {}, "")

	assert.Equal(t, 2, tbl.Len("kyco/core"))
	tbl.Unsubscribe(h1)
	assert.Equal(t, 1, tbl.Len("kyco/core"))
}

func TestUnsubscribeNAppRemovesAllItsListeners(t *testing.T) {
	tbl := listener.New()
	tbl.Subscribe("kyco/core", func(event.Event) {}, "topology")
	tbl.Subscribe("kyco/core", func(event.Event) {}, "topology")
	tbl.Subscribe("kyco/core", func(event.Event) {}, "other")

	tbl.UnsubscribeNApp("topology")

	assert.Equal(t, 1, tbl.Len("kyco/core"))
}

func TestUnsubscribeNAppRemovesRegexEntries(t *testing.T) {
	tbl := listener.New()
	tbl.Subscribe("kyco/core\\..*", func(event.Event) {}, "topology")

	tbl.UnsubscribeNApp("topology")

	assert.Empty(t, tbl.Match("kyco/core.connection.new"))
	assert.Empty(t, tbl.Patterns())
}
