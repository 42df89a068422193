package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagenine/internal/catalog"
	"pagenine/internal/config"
	"pagenine/internal/notifier"
	"pagenine/internal/storage"
	"pagenine/pkg/logx"
)

const page9Catalog = `[
  {"page":8,"threads":[{"no":100,"sub":"unrelated","bumplimit":0,"replies":1}]},
  {"page":9,"threads":[{"no":200,"sub":"other","bumplimit":0,"replies":1},{"no":301,"sub":"/agdg/ Amateur Game Dev General","bumplimit":0,"replies":250}]}
]`

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Notify(_ context.Context, message, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message+"|"+title)
	return nil
}

func (r *recordingNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func catalogServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vg/catalog.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAppEndToEnd(t *testing.T) {
	srv := catalogServer(t, page9Catalog)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	n := &recordingNotifier{}

	a, err := New(context.Background(), Options{
		Notifier: n,
		Overlay: func(c *config.Config) {
			c.Board = "/vg/"
			c.Title = "/agdg/"
			c.Poll.Interval = "20ms"
			c.Catalog.BaseURL = srv.URL
			c.Catalog.RatePerSec = 1000
			c.Logging.Level = "ERROR"
			c.Storage.Driver = "sqlite"
			c.Storage.Path = dbPath
		},
	})
	require.NoError(t, err)
	require.Equal(t, "vg", a.Config().Board)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	require.Eventually(t, func() bool {
		entries, err := a.store.Recent(context.Background(), storage.Query{Kind: storage.KindObservation})
		return err == nil && len(entries) >= 3
	}, 5*time.Second, 20*time.Millisecond)

	alerts, err := a.store.Recent(context.Background(), storage.Query{Kind: storage.KindAlert})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, ">page 9", alerts[0].Message)
	require.True(t, alerts[0].Delivered)
	require.Equal(t, []string{">page 9|/agdg/ Amateur Game Dev General"}, n.Messages())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))
	require.NoError(t, a.Err())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Options{Overlay: func(c *config.Config) { c.Board = "vg" }})
	require.Error(t, err)
}

func TestApplyConfigSwapsNotifier(t *testing.T) {
	a, err := New(context.Background(), Options{Overlay: func(c *config.Config) {
		c.Board = "vg"
		c.Title = "x"
		c.Logging.Level = "ERROR"
	}})
	require.NoError(t, err)
	require.Equal(t, notifier.KindDesktop, a.NotifierKind())

	next := a.Config().Clone()
	next.Pushover = config.PushoverConfig{ApplicationAPIToken: "app", UserKey: "user"}
	next.Title = "ignored until restart"
	a.applyConfig(a.Config(), next)
	require.Equal(t, notifier.KindPushover, a.NotifierKind())
}

func TestApplyConfigKeepsCustomNotifier(t *testing.T) {
	a, err := New(context.Background(), Options{
		Notifier: &recordingNotifier{},
		Overlay: func(c *config.Config) {
			c.Board = "vg"
			c.Title = "x"
			c.Logging.Level = "ERROR"
		},
	})
	require.NoError(t, err)
	next := a.Config().Clone()
	next.Pushover = config.PushoverConfig{ApplicationAPIToken: "app", UserKey: "user"}
	a.applyConfig(a.Config(), next)
	require.Equal(t, notifier.Kind("custom"), a.NotifierKind())
}

func TestCheck(t *testing.T) {
	t.Parallel()
	srv := catalogServer(t, page9Catalog)
	cfg := config.Default()
	cfg.Board = "/vg/"
	cfg.Catalog.BaseURL = srv.URL
	cfg.Catalog.RatePerSec = 1000

	cfg.Title = "Amateur Game Dev"
	res, err := Check(context.Background(), cfg, nil, logx.Nop())
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 9, res.Observation.Page)
	require.Equal(t, 2, res.Observation.Position)
	require.Equal(t, 2, res.Observation.PageLength)
	require.True(t, res.Threshold.Always)
	require.Equal(t, ">page 9 /agdg/ Amateur Game Dev General", res.Alert)

	cfg.Title = "amateur game dev"
	res, err = Check(context.Background(), cfg, nil, logx.Nop())
	require.NoError(t, err)
	require.False(t, res.Found, "matching is case-sensitive")
}

func TestCheckFetchError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	cfg := config.Default()
	cfg.Board = "vg"
	cfg.Title = "x"
	cfg.Catalog.BaseURL = srv.URL
	_, err := Check(context.Background(), cfg, nil, logx.Nop())
	require.True(t, catalog.IsKind(err, catalog.KindHTTP), "%v", err)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	_, err := History(context.Background(), cfg, storage.Query{}, logx.Nop())
	require.True(t, errors.Is(err, storage.ErrDisabled))

	cfg.Storage = config.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "h.db")}
	st, err := storage.Open(context.Background(), mapStorage(cfg), logx.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Append(context.Background(), storage.Entry{Kind: storage.KindAlert, Board: "vg", Page: 9, Message: ">page 9"}))
	require.NoError(t, st.Close())

	entries, err := History(context.Background(), cfg, storage.Query{Board: "vg"}, logx.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
