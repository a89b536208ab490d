package datastore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_PutGetDelete(t *testing.T) {
	m := NewMemory(0)

	_, ok, err := m.Get("foo")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Put("foo", "bar"))
	v, ok, err := m.Get("foo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bar", v)

	require.NoError(t, m.Delete("foo"))
	_, ok, _ = m.Get("foo")
	require.False(t, ok)

	// deleting again is fine
	require.NoError(t, m.Delete("foo"))
	require.Equal(t, 0, m.Size())
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.Put("a", "1"))
	require.NoError(t, m.Put("b", "2"))

	require.NoError(t, m.Clear())

	all, err := m.List()
	require.NoError(t, err)
	require.Empty(t, all)
	require.Equal(t, 0, m.Size())
}

func TestMemory_Quota(t *testing.T) {
	m := NewMemory(8)
	require.NoError(t, m.Put("ab", "cdef")) // 6 bytes

	err := m.Put("xy", "z") // would be 9
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrQuotaExceeded))

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	require.Equal(t, "xy", werr.Key)

	_, ok, _ := m.Get("xy")
	require.False(t, ok)

	// overwriting only counts the difference
	require.NoError(t, m.Put("ab", "cdefgh"))
	require.Equal(t, 8, m.Size())
}

func TestMemory_ListIsCopy(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.Put("a", "1"))

	all, err := m.List()
	require.NoError(t, err)
	all["b"] = "2"

	_, ok, _ := m.Get("b")
	require.False(t, ok)
}
