package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/pkg/store/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store.RunContract(t, file.New(t.TempDir()))
}

func TestFileStore_KeysAreHashed(t *testing.T) {
	dir := t.TempDir()
	s := file.New(dir)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "../../etc/passwd", []byte(`"nope"`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))

	got, err := s.Load(ctx, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, `"nope"`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"../../etc/passwd"}, keys)
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s := file.New(t.TempDir())
	assert.Error(t, s.Save(context.Background(), "k", []byte("{")))
	assert.Error(t, s.Save(context.Background(), "", []byte("1")))
}

func TestFileStore_MissingDirectory(t *testing.T) {
	s := file.New(filepath.Join(t.TempDir(), "absent"))
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = s.Load(context.Background(), "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := file.New(dir)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte(`1`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("garbage"), 0o644))

	_, err = s.Load(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}
