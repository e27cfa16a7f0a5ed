// Package kv is the durable key-value medium behind the record store. Every
// value is an opaque byte slice (JSON text in practice) addressed by a fixed
// string key.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable is returned when no persistent medium exists.
	ErrUnavailable = errors.New("kv: storage unavailable")
)

// Store is a flat key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	SQLitePath string
	SQLiteWAL  bool
	SQLiteSync string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		store, err := OpenSQLite(ctx, opts.SQLitePath, opts.SQLiteWAL, opts.SQLiteSync)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := OpenRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendNone:
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}
}

// Unavailable models a context without persistent storage: reads and writes
// all fail with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Get(context.Context, string) ([]byte, error) { return nil, ErrUnavailable }
func (Unavailable) Set(context.Context, string, []byte) error   { return ErrUnavailable }
func (Unavailable) Delete(context.Context, string) error        { return ErrUnavailable }
func (Unavailable) Close() error                                { return nil }
