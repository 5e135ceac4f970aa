package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	key := []byte("token/balance:alice")
	value := []byte("1000")

	has, err := db.Has(key)
	require.NoError(t, err)
	require.False(t, has)

	_, err = db.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Put(key, value))
	has, err = db.Has(key)
	require.NoError(t, err)
	require.True(t, has)

	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	key := []byte("k")
	value := []byte("original")
	require.NoError(t, db.Put(key, value))

	// Mutating the caller's slice after Put must not leak into the store,
	// and mutating a returned slice must not corrupt later reads.
	value[0] = 'X'
	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	key := []byte("staking/total")
	value := []byte("500000000000000000000")
	require.NoError(t, db1.Put(key, value))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)

	has, err := db2.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, has)

	_, err = db2.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}
