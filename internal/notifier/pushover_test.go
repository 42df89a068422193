package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushoverNotify(t *testing.T) {
	t.Parallel()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":1,"request":"5042853c-402d-4a18-abcb-168734a801de"}`))
	}))
	defer srv.Close()

	p := NewPushover(PushoverConfig{AppToken: "app", UserKey: "user", URL: srv.URL}, testLogger())
	require.NoError(t, p.Notify(context.Background(), ">page 9", "/vg/ general"))
	require.Equal(t, "app", got.Get("token"))
	require.Equal(t, "user", got.Get("user"))
	require.Equal(t, ">page 9", got.Get("message"))
	require.Equal(t, "/vg/ general", got.Get("title"))
}

func TestPushoverOmitsEmptyTitle(t *testing.T) {
	t.Parallel()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r.PostForm
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	p := NewPushover(PushoverConfig{AppToken: "app", UserKey: "user", URL: srv.URL}, testLogger())
	require.NoError(t, p.Notify(context.Background(), ">page 10", ""))
	_, ok := got["title"]
	require.False(t, ok, "empty title must not be sent")
}

func TestPushoverErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"rejected", http.StatusBadRequest, `{"status":0,"errors":["user identifier is invalid"]}`, "user identifier is invalid"},
		{"server error", http.StatusInternalServerError, `oops`, "500"},
		{"status zero", http.StatusOK, `{"status":0}`, "200"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewPushover(PushoverConfig{AppToken: "app", UserKey: "user", URL: srv.URL}, testLogger())
			err := p.Notify(context.Background(), ">page 9", "t")
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestPushoverCancelled(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPushover(PushoverConfig{AppToken: "app", UserKey: "user", URL: srv.URL}, testLogger())
	require.Error(t, p.Notify(ctx, ">page 9", ""))
}
