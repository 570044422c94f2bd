// Package filedriver persists the key-value map as a single JSON document on
// disk, rewritten atomically on every mutation. This is the default backend
// and mirrors the flat local-storage layout the data model was designed for.
package filedriver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Driver struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the document at path, creating the parent directory if needed.
// A missing file starts an empty store; a corrupt file is an open error rather
// than a silent reset, since it may hold recoverable data.
func Open(path string) (*Driver, error) {
	d := &Driver{path: path, data: make(map[string]json.RawMessage)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(raw) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d.data); err != nil {
		return nil, fmt.Errorf("store file %s is not a valid JSON document: %w", path, err)
	}
	return d, nil
}

func (d *Driver) Get(key string) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok := d.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (d *Driver) Set(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	d.data[key] = stored
	return d.flush()
}

func (d *Driver) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.data[key]; !ok {
		return nil
	}
	delete(d.data, key)
	return d.flush()
}

func (d *Driver) Close() error {
	return nil
}

// flush rewrites the whole document via a temp file and rename so a crash
// mid-write never leaves a truncated store. Caller holds the lock.
func (d *Driver) flush() error {
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(d.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return os.Rename(tmp, d.path)
}
