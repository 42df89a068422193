package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagenine/pkg/logx"
)

// Runs only against a real server: PAGENINE_TEST_POSTGRES_DSN=postgres://...
func TestPostgresAppendRecent(t *testing.T) {
	dsn := os.Getenv("PAGENINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PAGENINE_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := Open(ctx, Config{Driver: "postgres", DSN: dsn}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	board := "test_" + NewID(time.Now())
	require.NoError(t, st.Append(ctx, Entry{Kind: KindObservation, Board: board, ThreadID: 1, Title: "t", Page: 9, Position: 2, PageLength: 10}))
	require.NoError(t, st.Append(ctx, Entry{Kind: KindAlert, Board: board, ThreadID: 1, Title: "t", Page: 9, Message: ">page 9", Delivered: true}))

	got, err := st.Recent(ctx, Query{Board: board})
	require.NoError(t, err)
	require.Len(t, got, 2)

	alerts, err := st.Recent(ctx, Query{Board: board, Kind: KindAlert, Limit: 5})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, ">page 9", alerts[0].Message)
}
