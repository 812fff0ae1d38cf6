package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyco-project/kyco/pkg/codec"
)

func TestLineCodecDecodeIncompleteFrame(t *testing.T) {
	c := codec.NewLineCodec()

	msg, consumed, err := c.Decode([]byte("partial"))
	require.NoError(t, err)
	assert.Equal(t, 0, consumed)
	assert.Nil(t, msg)
}

func TestLineCodecDecodeClassifiesHello(t *testing.T) {
	c := codec.NewLineCodec()

	msg, consumed, err := c.Decode([]byte("hello switch 1\nrest"))
	require.NoError(t, err)
	assert.Equal(t, len("hello switch 1\n"), consumed)

	lm, ok := msg.(codec.LineMessage)
	require.True(t, ok)
	assert.Equal(t, "kyco/of.hello", lm.EventName)
	assert.Equal(t, "kyco/of.hello", c.EventNameFor(msg))
}

func TestLineCodecDecodeClassifiesOrdinaryMessage(t *testing.T) {
	c := codec.NewLineCodec()

	msg, _, err := c.Decode([]byte("flow_mod foo\n"))
	require.NoError(t, err)
	assert.Equal(t, "kyco/of.message", c.EventNameFor(msg))
}

func TestLineCodecEncodeRoundTrip(t *testing.T) {
	c := codec.NewLineCodec()

	encoded, err := c.Encode(codec.LineMessage{Payload: []byte("flow_mod foo")})
	require.NoError(t, err)
	assert.Equal(t, "flow_mod foo\n", string(encoded))
}

func TestLineCodecEncodeRejectsWrongType(t *testing.T) {
	c := codec.NewLineCodec()

	_, err := c.Encode("not a line message")
	require.Error(t, err)
}
