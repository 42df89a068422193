package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagenine/pkg/logx"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	st, err := Open(context.Background(), Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "history.db")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteAppendRecent(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.Append(ctx, Entry{Kind: KindObservation, At: base, Board: "vg", ThreadID: 42, Title: "general", Page: 8, Position: 3, PageLength: 15}))
	require.NoError(t, st.Append(ctx, Entry{Kind: KindObservation, At: base.Add(time.Minute), Board: "vg", ThreadID: 42, Title: "general", Page: 9, Position: 1, PageLength: 15, BumpLimit: true}))
	require.NoError(t, st.Append(ctx, Entry{Kind: KindAlert, At: base.Add(time.Minute), Board: "vg", ThreadID: 42, Title: "general", Page: 9, Message: ">page 9", Delivered: true}))
	require.NoError(t, st.Append(ctx, Entry{Kind: KindObservation, At: base.Add(2 * time.Minute), Board: "a", ThreadID: 7, Title: "other", Page: 1, Position: 1, PageLength: 15}))

	all, err := st.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "a", all[0].Board, "newest first")
	for _, e := range all {
		require.NotEmpty(t, e.ID)
	}

	vg, err := st.Recent(ctx, Query{Board: "vg", Kind: KindObservation})
	require.NoError(t, err)
	require.Len(t, vg, 2)
	require.Equal(t, 9, vg[0].Page)
	require.True(t, vg[0].BumpLimit)
	require.True(t, vg[0].At.Equal(base.Add(time.Minute)))

	alerts, err := st.Recent(ctx, Query{Kind: KindAlert})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, ">page 9", alerts[0].Message)
	require.True(t, alerts[0].Delivered)
	require.Empty(t, alerts[0].Error)

	limited, err := st.Recent(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSQLiteReopenKeepsHistory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	st, err := Open(ctx, Config{Driver: "sqlite3", Path: path}, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Append(ctx, Entry{Kind: KindAlert, Board: "vg", Page: 10, Message: ">page 10", Error: "503 Service Unavailable"}))
	require.NoError(t, st.Close())

	st, err = Open(ctx, Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	got, err := st.Recent(ctx, Query{Board: "vg"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "503 Service Unavailable", got[0].Error)
	require.False(t, got[0].Delivered)
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(context.Background(), Config{Driver: driver}, logx.Nop())
		require.Nil(t, st)
		require.True(t, errors.Is(err, ErrDisabled), "driver %q: %v", driver, err)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{Driver: "mongo"}, logx.Nop())
	require.Error(t, err)
	_, err = Open(context.Background(), Config{Driver: "sqlite"}, logx.Nop())
	require.Error(t, err)
	_, err = Open(context.Background(), Config{Driver: "postgres"}, logx.Nop())
	require.Error(t, err)
}

func TestDriver(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":           "none",
		"None":       "none",
		"sqlite3":    "sqlite",
		"PostgreSQL": "postgres",
		"pg":         "postgres",
		"mysql":      "mysql",
	}
	for in, want := range tests {
		if got := Driver(in); got != want {
			t.Fatalf("Driver(%q) = %q, want %q", in, got, want)
		}
	}
}

// Not parallel: other tests share the monotonic entropy source.
func TestNewIDSortsByCreation(t *testing.T) {
	now := time.Now()
	prev := NewID(now)
	for i := 0; i < 100; i++ {
		id := NewID(now)
		require.Len(t, id, 26)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestQueryLimit(t *testing.T) {
	t.Parallel()
	require.Equal(t, DefaultLimit, Query{}.limit())
	require.Equal(t, 10, Query{Limit: 10}.limit())
	require.Equal(t, MaxLimit, Query{Limit: MaxLimit + 1}.limit())
}
