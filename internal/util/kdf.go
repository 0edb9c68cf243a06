package util

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every derived key: AES-256.
const KeySize = 32

// KDFParams are the Argon2id costs used to stretch a passphrase.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// PassphraseKey stretches passphrase with Argon2id, then binds the result
// to info with HKDF-SHA256. The passphrase is NFKC-normalized first, so the
// same key comes out whichever way the terminal composed it.
func PassphraseKey(passphrase string, salt []byte, params KDFParams, info string) ([]byte, error) {
	if params.Time == 0 || params.MemoryKiB == 0 || params.Threads == 0 {
		return nil, errors.New("argon2id parameters must be non-zero")
	}
	master := argon2.IDKey([]byte(Normalize(passphrase)), salt, params.Time, params.MemoryKiB, params.Threads, KeySize)
	defer Wipe(master)
	return ExpandKey(master, salt, info)
}

// ExpandKey derives a purpose-bound subkey from secret with HKDF-SHA256.
// Distinct info strings yield independent keys from the same secret.
func ExpandKey(secret, salt []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("expanding key %q: %w", info, err)
	}
	return key, nil
}
