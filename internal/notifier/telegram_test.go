package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type botAPI struct {
	mu     sync.Mutex
	path   string
	params map[string]any
}

func (b *botAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.path = r.URL.Path
		b.params = map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&b.params); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":1700000000,"chat":{"id":-100123,"type":"supergroup"}}}`))
	}
}

func TestTelegramNotify(t *testing.T) {
	t.Parallel()
	api := &botAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	n, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: -100123, ThreadID: 5, APIURL: srv.URL}, testLogger())
	require.NoError(t, err)
	require.NoError(t, n.Notify(context.Background(), ">page 9", "/vg/ general"))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.True(t, strings.HasSuffix(api.path, "/bot123:abc/sendMessage"), api.path)
	require.Equal(t, "-100123", api.params["chat_id"])
	require.Equal(t, ">page 9\n/vg/ general", api.params["text"])
	require.Equal(t, "5", api.params["message_thread_id"])
}

func TestTelegramAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: 1, APIURL: srv.URL}, testLogger())
	require.NoError(t, err)
	require.Error(t, n.Notify(context.Background(), ">page 9", ""))
}

func TestNewTelegramRequiresCredentials(t *testing.T) {
	t.Parallel()
	_, err := NewTelegram(TelegramConfig{ChatID: 1}, testLogger())
	require.Error(t, err)
	_, err = NewTelegram(TelegramConfig{Token: "x"}, testLogger())
	require.Error(t, err)
}
