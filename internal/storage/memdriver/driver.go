// Package memdriver keeps the key-value map in process memory. Used by tests
// and ephemeral runs; nothing survives a restart.
package memdriver

import "sync"

type Driver struct {
	mu   sync.Mutex
	data map[string][]byte
}

func New() *Driver {
	return &Driver{data: make(map[string][]byte)}
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
	stored := make([]byte, len(value))
	copy(stored, value)
	d.data[key] = stored
	return nil
}

func (d *Driver) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, key)
	return nil
}

func (d *Driver) Close() error {
	return nil
}
