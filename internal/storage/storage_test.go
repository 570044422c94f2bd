package storage_test

import (
	"errors"
	"testing"

	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/storage/memdriver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingDriver rejects every operation.
type failingDriver struct{}

func (failingDriver) Get(string) ([]byte, bool, error) { return nil, false, errors.New("boom") }
func (failingDriver) Set(string, []byte) error         { return errors.New("boom") }
func (failingDriver) Remove(string) error              { return errors.New("boom") }
func (failingDriver) Close() error                     { return nil }

func Test_Probe(t *testing.T) {
	t.Run("Success - healthy driver", func(t *testing.T) {
		assert.NoError(t, storage.Probe(memdriver.New()))
	})

	t.Run("Error - broken driver reports unavailable", func(t *testing.T) {
		err := storage.Probe(failingDriver{})
		assert.ErrorIs(t, err, storage.ErrUnavailable)
	})
}

func Test_Probe_LeavesNoResidue(t *testing.T) {
	drv := memdriver.New()
	require.NoError(t, storage.Probe(drv))

	// the probe key was deleted; the store holds only what EnsureKeys adds
	require.NoError(t, storage.EnsureKeys(drv, storage.CollectionKeys...))
	for _, key := range storage.CollectionKeys {
		raw, ok, err := drv.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, "[]", string(raw))
	}
}

func Test_EnsureKeys_Idempotent(t *testing.T) {
	drv := memdriver.New()
	require.NoError(t, drv.Set(storage.KeyProducts, []byte(`[{"id":"1"}]`)))

	// when: run twice
	require.NoError(t, storage.EnsureKeys(drv, storage.CollectionKeys...))
	require.NoError(t, storage.EnsureKeys(drv, storage.CollectionKeys...))

	// then: existing data survives, absent keys are initialized
	raw, ok, err := drv.Get(storage.KeyProducts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(raw))

	raw, ok, err = drv.Get(storage.KeySales)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, "[]", string(raw))
}
