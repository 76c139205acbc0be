package codec

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New("s3cr3t")
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newCodec(t)

	inputs := []string{
		"",
		"hello",
		"see you at the library at 7?",
		"ሰላም 👋 café",
		"a string that is considerably longer than the key so the key wraps around several times",
		"\x00\x01 control bytes",
		"\xff\xfe invalid utf-8",
	}
	for _, in := range inputs {
		encoded := c.Encode(in)
		assert.Equal(t, in, c.Decode(encoded), "input %q", in)
	}
}

func TestEncodeDoesNotStorePlaintext(t *testing.T) {
	c := newCodec(t)

	encoded := c.Encode("meet me at the cafeteria")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "cafeteria")
}

func TestDecodeGarbageReturnsPlaceholder(t *testing.T) {
	c := newCodec(t)

	for _, in := range []string{"%%%not-base64%%%", "abc", "====", "\xff\xfe"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, Placeholder, c.Decode(in), "input %q", in)
		})
	}
}

func TestDecodeWithWrongKeyFailsSoft(t *testing.T) {
	c := newCodec(t)
	other, err := New("another-key")
	require.NoError(t, err)

	encoded := c.Encode("ሰላም")
	assert.NotPanics(t, func() { other.Decode(encoded) })
}

func TestNewRejectsEmptyKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
