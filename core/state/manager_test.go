package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"uniart/storage"
)

type record struct {
	Name  string
	Count uint64
}

func TestKVRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	var out record
	ok, err := m.KVGet([]byte("k"), &out)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.KVPut([]byte("k"), &record{Name: "x", Count: 7}))
	ok, err = m.KVGet([]byte("k"), &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record{Name: "x", Count: 7}, out)

	require.NoError(t, m.KVDelete([]byte("k")))
	ok, err = m.KVGet([]byte("k"), &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVDeletePrefix(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	require.NoError(t, m.KVPut([]byte("row/1"), uint64(1)))
	require.NoError(t, m.KVPut([]byte("row/2"), uint64(2)))
	require.NoError(t, m.KVPut([]byte("other/1"), uint64(3)))

	require.NoError(t, m.KVDeletePrefix([]byte("row/")))

	var v uint64
	ok, err := m.KVGet([]byte("row/1"), &v)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = m.KVGet([]byte("other/1"), &v)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), v)
}
