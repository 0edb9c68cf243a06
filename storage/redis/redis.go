// Package redis provides a Redis-backed storage.Store, for deployments where
// several client processes share one signed-in session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jmcleod/examflow/storage"
)

const (
	// DefaultPrefix namespaces every key written by the Store.
	DefaultPrefix = "examflow:"
	opTimeout     = 5 * time.Second
)

// Store implements storage.Store on top of a go-redis client.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an existing client. An empty prefix selects DefaultPrefix.
func NewStore(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewStore(client, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *Store) Put(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.client.Del(ctx, full...).Err()
}

// Batch queues writes into a MULTI/EXEC pipeline. If fn fails nothing is sent.
func (s *Store) Batch(fn func(tx storage.BatchTx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		return fn(&redisBatchTx{ctx: ctx, store: s, pipe: pipe})
	})
	return err
}

type redisBatchTx struct {
	ctx   context.Context
	store *Store
	pipe  goredis.Pipeliner
}

func (tx *redisBatchTx) Put(key, value string) error {
	tx.pipe.Set(tx.ctx, tx.store.key(key), value, 0)
	return nil
}

func (tx *redisBatchTx) Delete(key string) error {
	tx.pipe.Del(tx.ctx, tx.store.key(key))
	return nil
}
