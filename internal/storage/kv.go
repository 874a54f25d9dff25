// Package storage provides the key-value persistence collaborator. The
// application serializes one JSON document per session under a fixed key;
// which backend holds it is a deployment choice.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// ErrUnavailable is returned when the backend cannot be reached. The caller
// degrades to in-memory-only mode and warns the user.
var ErrUnavailable = errors.New("storage backend unavailable")

// KV is the persistence contract: get/set/remove plus an availability check.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Available(ctx context.Context) bool
}

// Connect selects a backend from STORAGE_BACKEND (postgres, redis, memory).
// An empty value defaults to postgres, matching the rest of the deployment.
func Connect(ctx context.Context) (KV, error) {
	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = "postgres"
	}

	switch backend {
	case "postgres":
		return ConnectPostgres(ctx)
	case "redis":
		return ConnectRedis(ctx)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
