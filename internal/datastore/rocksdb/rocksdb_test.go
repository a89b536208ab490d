package rocksdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRocksDB_Roundtrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "kvdb"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put("foo", "bar"))
	require.NoError(t, db.Put("baz", `{"a":1}`))

	v, ok, err := db.Get("foo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bar", v)

	all, err := db.List()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"foo": "bar", "baz": `{"a":1}`}, all)

	require.NoError(t, db.Delete("foo"))
	require.NoError(t, db.Delete("foo"))
	_, ok, err = db.Get("foo")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Clear())
	all, err = db.List()
	require.NoError(t, err)
	require.Empty(t, all)
}
