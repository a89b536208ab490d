package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_Roundtrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "garage.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("foo")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put("foo", "bar"))
	require.NoError(t, store.Put("foo", "baz"))
	require.NoError(t, store.Put("empty", ""))

	v, ok, err := store.Get("foo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "baz", v)

	v, ok, err = store.Get("empty")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "", v)

	all, err := store.List()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"foo": "baz", "empty": ""}, all)

	require.NoError(t, store.Delete("foo"))
	require.NoError(t, store.Delete("foo"))

	require.NoError(t, store.Clear())
	all, err = store.List()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}
