package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory()

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "v2"))

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	require.NoError(t, s.Delete("k"))
	_, ok, err = s.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Get("guest_cart_v1:abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("guest_cart_v1:abc", `[{"quantity":2}]`))

	v, ok, err := s.Get("guest_cart_v1:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"quantity":2}]`, v)

	require.NoError(t, s.Delete("guest_cart_v1:abc"))
	require.NoError(t, s.Delete("guest_cart_v1:abc"))

	_, ok, err = s.Get("guest_cart_v1:abc")
	require.NoError(t, err)
	require.False(t, ok)
}
