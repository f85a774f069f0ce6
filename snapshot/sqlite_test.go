package snapshot

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	s := sampleSnapshot()

	require.NoError(t, st.Save(ctx, "after-mint", s))

	got, err := st.Load(ctx, "after-mint")
	require.NoError(t, err)
	assert.Equal(t, s.Ledger, got.Ledger)
	require.Len(t, got.Entries, len(s.Entries))
	for i, want := range s.Entries {
		e := got.Entries[i]
		assert.Equal(t, want.Contract, e.Contract)
		assert.Equal(t, want.Durability, e.Durability)
		assert.Equal(t, want.LiveUntil, e.LiveUntil)
		assert.True(t, val.Equal(want.Key, e.Key))
		assert.True(t, val.Equal(want.Value, e.Value))
	}
}

func TestSQLiteStore_Replace(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Save(ctx, "s", sampleSnapshot()))

	smaller := New()
	smaller.Entries = []Entry{{Contract: contractAddr(3), Key: val.Symbol("only"), Value: val.Bool(true)}}
	require.NoError(t, st.Save(ctx, "s", smaller))

	got, err := st.Load(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, contractAddr(3), got.Entries[0].Contract)
}

func TestSQLiteStore_NamesDelete(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Save(ctx, "b", New()))
	require.NoError(t, st.Save(ctx, "a", sampleSnapshot()))

	names, err := st.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, st.Delete(ctx, "a"))
	require.NoError(t, st.Delete(ctx, "never-saved"))

	names, err = st.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	_, err = st.Load(ctx, "a")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestSQLiteStore_InvalidSnapshot(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	s := New()
	s.Entries = []Entry{
		{Contract: contractAddr(1), Key: val.Symbol("k"), Value: val.U32(1)},
		{Contract: contractAddr(1), Key: val.Symbol("k"), Value: val.U32(2)},
	}
	err := st.Save(ctx, "dup", s)
	assert.True(t, stderrors.Is(err, errors.ErrSnapshotCorrupt))

	names, err := st.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
