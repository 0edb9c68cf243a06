package storage

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/examflow/internal/util"
)

const (
	sealSaltKey   = "__seal_salt"
	sealSaltLen   = 16
	sealAADPrefix = "examflow:persist:"
	sealKeyInfo   = "examflow:session-store:v1"
)

// SealedStore encrypts every value with AES-256-GCM before handing it to
// the wrapped Store. The value key is derived from a passphrase with
// Argon2id followed by HKDF and kept in a memguard Enclave, so it is never
// resident in plaintext memory between operations.
//
// The derivation salt is stored unsealed in the wrapped Store under a
// reserved key. Each value is bound to its key through the AAD, so a value
// copied to another key does not open.
type SealedStore struct {
	inner Store
	key   *memguard.Enclave
}

var _ Store = (*SealedStore)(nil)

// SealOption configures a SealedStore.
type SealOption func(*sealOptions)

type sealOptions struct {
	kdf util.KDFParams
}

// WithKDFParams overrides the Argon2id costs used to derive the value key.
func WithKDFParams(params util.KDFParams) SealOption {
	return func(o *sealOptions) {
		o.kdf = params
	}
}

// NewSealedStore wraps inner so that values are sealed at rest.
func NewSealedStore(inner Store, passphrase string, opts ...SealOption) (*SealedStore, error) {
	o := sealOptions{kdf: util.DefaultKDFParams()}
	for _, opt := range opts {
		opt(&o)
	}
	if passphrase == "" {
		return nil, errors.New("sealed store: passphrase must not be empty")
	}
	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}
	key, err := util.PassphraseKey(passphrase, salt, o.kdf, sealKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}
	// NewEnclave wipes key.
	return &SealedStore{inner: inner, key: memguard.NewEnclave(key)}, nil
}

func loadOrCreateSalt(inner Store) ([]byte, error) {
	encoded, err := inner.Get(sealSaltKey)
	if err == nil {
		salt, err := base64.RawStdEncoding.DecodeString(encoded)
		if err != nil || len(salt) != sealSaltLen {
			return nil, errors.New("sealed store: corrupt salt")
		}
		return salt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading seal salt: %w", err)
	}
	salt, err := util.RandomBytes(sealSaltLen)
	if err != nil {
		return nil, err
	}
	if err := inner.Put(sealSaltKey, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("persisting seal salt: %w", err)
	}
	return salt, nil
}

func (s *SealedStore) seal(key, value string) (string, error) {
	lb, err := s.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening seal key: %w", err)
	}
	defer lb.Destroy()

	sealed, err := util.Seal(lb.Bytes(), []byte(value), []byte(sealAADPrefix+key))
	if err != nil {
		return "", fmt.Errorf("sealing %s: %w", key, err)
	}
	return encodeSealed(sealed), nil
}

func (s *SealedStore) open(key, raw string) (string, error) {
	sealed, err := decodeSealed(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, ErrSealed)
	}
	lb, err := s.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening seal key: %w", err)
	}
	defer lb.Destroy()

	plain, err := util.Open(lb.Bytes(), sealed, []byte(sealAADPrefix+key))
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, ErrSealed)
	}
	defer util.Wipe(plain)
	return string(plain), nil
}

func (s *SealedStore) Get(key string) (string, error) {
	raw, err := s.inner.Get(key)
	if err != nil {
		return "", err
	}
	return s.open(key, raw)
}

func (s *SealedStore) Put(key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Put(key, sealed)
}

func (s *SealedStore) Delete(keys ...string) error {
	return s.inner.Delete(keys...)
}

func (s *SealedStore) Batch(fn func(tx BatchTx) error) error {
	return s.inner.Batch(func(tx BatchTx) error {
		return fn(&sealedBatchTx{store: s, tx: tx})
	})
}

type sealedBatchTx struct {
	store *SealedStore
	tx    BatchTx
}

func (t *sealedBatchTx) Put(key, value string) error {
	sealed, err := t.store.seal(key, value)
	if err != nil {
		return err
	}
	return t.tx.Put(key, sealed)
}

func (t *sealedBatchTx) Delete(key string) error {
	return t.tx.Delete(key)
}
