package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContract checks that s behaves like a Store. Delete and Keys are
// exercised when s implements them.
func RunContract(t *testing.T, s Store) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		err := s.Save(ctx, key, []byte(`{"count":42}`))
		require.NoError(t, err, "Save should not return error")

		got, err := s.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.JSONEq(t, `{"count":42}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, key, []byte(`1`)))
		require.NoError(t, s.Save(ctx, key, []byte(`2`)))

		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "2", string(got))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := s.Load(ctx, "missing-"+key)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Returned bytes are not aliased", func(t *testing.T) {
		value := []byte(`"abc"`)
		require.NoError(t, s.Save(ctx, key, value))
		value[1] = 'z'

		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `"abc"`, string(got))
	})

	if d, ok := s.(Deleter); ok {
		t.Run("Delete", func(t *testing.T) {
			require.NoError(t, s.Save(ctx, key, []byte(`true`)))
			require.NoError(t, d.Delete(ctx, key), "Delete should not return error")

			_, err := s.Load(ctx, key)
			assert.ErrorIs(t, err, ErrNotFound, "Load after Delete should return ErrNotFound")
		})
	}

	if l, ok := s.(Lister); ok {
		t.Run("Keys", func(t *testing.T) {
			k1, k2 := key+"-1", key+"-2"
			require.NoError(t, s.Save(ctx, k1, []byte(`1`)))
			require.NoError(t, s.Save(ctx, k2, []byte(`2`)))
			defer func() {
				if d, ok := s.(Deleter); ok {
					_ = d.Delete(ctx, k1)
					_ = d.Delete(ctx, k2)
				}
			}()

			keys, err := l.Keys(ctx)
			require.NoError(t, err)
			assert.Contains(t, keys, k1)
			assert.Contains(t, keys, k2)
		})
	}
}
