// Package codec obfuscates message text at rest.
//
// The transform is a repeating-key XOR over the UTF-8 bytes followed by
// standard base64. It keeps plaintext out of the database and nothing more:
// the key is short and fixed, and there is no nonce or authentication.
package codec

import (
	"encoding/base64"
	"errors"
)

// Placeholder is returned by Decode for content that cannot be recovered.
const Placeholder = "[message unavailable]"

var ErrEmptyKey = errors.New("codec: key must not be empty")

type Codec struct {
	key []byte
}

func New(key string) (*Codec, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &Codec{key: []byte(key)}, nil
}

// Encode works on raw bytes, so Decode(Encode(s)) == s for any string s.
// Callers reject text that is not valid UTF-8 before it gets here.
func (c *Codec) Encode(text string) string {
	return base64.StdEncoding.EncodeToString(c.xor([]byte(text)))
}

// Decode reverses Encode. Input that is not valid base64 yields Placeholder.
func (c *Codec) Decode(stored string) string {
	text, err := c.DecodeStrict(stored)
	if err != nil {
		return Placeholder
	}
	return text
}

// DecodeStrict is Decode with the failure reported.
func (c *Codec) DecodeStrict(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return string(c.xor(raw)), nil
}

func (c *Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
