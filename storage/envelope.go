package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Sealed values are stored as text so every backend can hold them:
// "sealed.v1." followed by unpadded base64url of nonce || ciphertext.
const sealedPrefix = "sealed.v1."

var errNotSealed = errors.New("value is not a sealed envelope")

func encodeSealed(b []byte) string {
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(b)
}

func decodeSealed(s string) ([]byte, error) {
	body, ok := strings.CutPrefix(s, sealedPrefix)
	if !ok {
		return nil, errNotSealed
	}
	return base64.RawURLEncoding.DecodeString(body)
}
