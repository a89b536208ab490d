package main

import (
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/UltraSive/garage/internal/datastore/bolt"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GARAGE_STORE", "nope")
	require.ErrorContains(t, run(log.NewNopLogger()), "load config")
}

func TestRun_ClosesStoreOnStartupFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "garage.db")
	t.Setenv("GARAGE_STORE", "bolt")
	t.Setenv("GARAGE_PATH", dbPath)
	t.Setenv("GARAGE_HTTP_ADDR", "")
	t.Setenv("GARAGE_SOCKET", filepath.Join(dir, "missing", "garage.sock"))

	require.ErrorContains(t, run(log.NewNopLogger()), "listen on socket")

	// bbolt holds an exclusive file lock until Close.
	store, err := bolt.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
