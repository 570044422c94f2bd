// Package storage defines the embedded key-value store that persists the shop
// collections. Each collection lives under one fixed key as a whole JSON array;
// drivers only move raw bytes.
package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Collection keys of the authoritative schema. The legacy prefixed scheme is
// handled separately by the migrate package and is never written to.
const (
	KeyProducts = "products"
	KeySales    = "sales"
	KeyExpenses = "expenses"
	KeySettings = "settings"
)

// CollectionKeys lists the keys initialized to an empty array at startup.
// Settings is a single object defaulted on read, so it is not pre-created.
var CollectionKeys = []string{KeyProducts, KeySales, KeyExpenses}

// ErrUnavailable signals that the underlying store cannot be used at all.
// It is fatal at initialization time.
var ErrUnavailable = errors.New("storage unavailable")

// Driver is the minimal contract every storage backend implements.
type Driver interface {
	// Get returns the raw value for key. The boolean reports whether the key
	// is present.
	Get(key string) ([]byte, bool, error)

	// Set stores the raw value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases the driver's resources.
	Close() error
}

// Probe verifies the driver is usable by writing, reading back and deleting a
// disposable key. Returns ErrUnavailable (wrapped) on any failure.
func Probe(d Driver) error {
	key := "_probe_" + uuid.NewString()
	// Values must be valid JSON; the file driver embeds them verbatim in its
	// on-disk document.
	want := []byte(`"ok"`)
	if err := d.Set(key, want); err != nil {
		return fmt.Errorf("%w: probe write failed: %v", ErrUnavailable, err)
	}
	got, ok, err := d.Get(key)
	if err != nil || !ok || !bytes.Equal(got, want) {
		return fmt.Errorf("%w: probe read failed", ErrUnavailable)
	}
	if err := d.Remove(key); err != nil {
		return fmt.Errorf("%w: probe delete failed: %v", ErrUnavailable, err)
	}
	return nil
}

// EnsureKeys initializes each absent key to an empty JSON array. Keys that
// already hold data are left untouched, so startup is idempotent and never
// destructive.
func EnsureKeys(d Driver, keys ...string) error {
	for _, key := range keys {
		_, ok, err := d.Get(key)
		if err != nil {
			return fmt.Errorf("failed to check key %q: %w", key, err)
		}
		if !ok {
			if err := d.Set(key, []byte("[]")); err != nil {
				return fmt.Errorf("failed to initialize key %q: %w", key, err)
			}
		}
	}
	return nil
}
