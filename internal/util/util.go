// Package util holds the small primitives behind sealed session storage and
// username handling.
package util

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC, the same normalization the remote API applies to
// usernames, so "ｊｏｈｎ" and "john" address the same account.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
