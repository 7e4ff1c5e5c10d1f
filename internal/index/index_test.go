package index

import (
	"fmt"
	"testing"

	"github.com/arloliu/seiskit/errs"
	"github.com/stretchr/testify/require"
)

func TestIndex_InsertGet(t *testing.T) {
	x := New[int]()

	require.NoError(t, x.Insert("UW.ELK..EHZ", 1))
	require.NoError(t, x.Insert("UW.ELK..EHN", 2))
	require.Equal(t, 2, x.Len())

	v, ok := x.Get("UW.ELK..EHN")
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = x.Get("UW.ELK..EHE")
	require.False(t, ok)

	require.ErrorIs(t, x.Insert("UW.ELK..EHZ", 3), errs.ErrDuplicateID)
	require.ErrorIs(t, x.Insert("", 3), errs.ErrInvalidChannelID)
	require.Zero(t, x.Collisions())
}

func TestIndex_Order(t *testing.T) {
	x := New[string]()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, x.Insert(id, id))
	}
	require.Equal(t, []string{"c", "a", "b"}, x.IDs())

	require.True(t, x.Delete("a"))
	require.False(t, x.Delete("a"))
	require.Equal(t, []string{"c", "b"}, x.IDs())

	require.NoError(t, x.Insert("a", "a"))
	require.Equal(t, []string{"c", "b", "a"}, x.IDs())

	var seen []string
	for id, v := range x.All() {
		require.Equal(t, id, v)
		seen = append(seen, id)
	}
	require.Equal(t, x.IDs(), seen)
}

func TestIndex_Rename(t *testing.T) {
	x := New[int]()
	require.NoError(t, x.Insert("a", 1))
	require.NoError(t, x.Insert("b", 2))

	require.NoError(t, x.Rename("a", "z"))
	require.Equal(t, []string{"z", "b"}, x.IDs())
	require.False(t, x.Has("a"))

	v, ok := x.Get("z")
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.ErrorIs(t, x.Rename("z", "b"), errs.ErrDuplicateID)
	require.ErrorIs(t, x.Rename("missing", "c"), errs.ErrChannelNotFound)
	require.ErrorIs(t, x.Rename("z", ""), errs.ErrInvalidChannelID)
	require.NoError(t, x.Rename("z", "z"))
}

func TestIndex_SetAndCompact(t *testing.T) {
	x := New[int]()
	for i := range 100 {
		require.NoError(t, x.Insert(fmt.Sprintf("XX.S%03d..BHZ", i), i))
	}
	for i := range 80 {
		require.True(t, x.Delete(fmt.Sprintf("XX.S%03d..BHZ", i)))
	}
	require.Equal(t, 20, x.Len())
	require.Len(t, x.IDs(), 20)
	require.Equal(t, "XX.S080..BHZ", x.IDs()[0])

	require.True(t, x.Set("XX.S099..BHZ", -1))
	require.False(t, x.Set("XX.S000..BHZ", -1))
	v, _ := x.Get("XX.S099..BHZ")
	require.Equal(t, -1, v)

	x.Reset()
	require.Zero(t, x.Len())
	require.Empty(t, x.IDs())
}
