package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryValidate(t *testing.T) {
	valid := Entry{Path: "/objects/crate", Kind: KindObject, Name: "Crate"}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		entry Entry
	}{
		{"empty path", Entry{Kind: KindObject, Name: "Crate"}},
		{"bad kind", Entry{Path: "/x", Kind: "blob", Name: "Crate"}},
		{"empty name", Entry{Path: "/x", Kind: KindClass}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.entry.Validate())
		})
	}
}

func TestMapSourceResolve(t *testing.T) {
	src := NewMapSource(
		Entry{Path: "/objects/crate", Kind: KindObject, Name: "Crate"},
		Entry{Path: "/classes/pawn", Kind: KindClass, Name: "Pawn"},
		Entry{Kind: KindObject, Name: "dropped"}, // invalid, silently dropped
	)

	e, err := src.Resolve(context.Background(), "/objects/crate")
	require.NoError(t, err)
	require.Equal(t, "Crate", e.Name)

	_, err = src.Resolve(context.Background(), "/missing")
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "/classes/pawn", entries[0].Path.String(), "list is ordered by path")
}

func TestMapSourcePutRemove(t *testing.T) {
	src := NewMapSource()

	require.ErrorIs(t, src.Put(Entry{Path: "/x", Kind: "bad", Name: "X"}), ErrInvalidEntry)

	require.NoError(t, src.Put(Entry{Path: "/objects/crate", Kind: KindObject, Name: "Crate"}))
	_, err := src.Resolve(context.Background(), "/objects/crate")
	require.NoError(t, err)

	src.Remove("/objects/crate")
	_, err = src.Resolve(context.Background(), "/objects/crate")
	require.ErrorIs(t, err, ErrNotFound)
}
