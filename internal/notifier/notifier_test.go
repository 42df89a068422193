package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"

	"pagenine/pkg/logx"
)

func testLogger() logx.Logger { return logx.Nop() }

func TestConfigKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
		want Kind
	}{
		{"nothing", Config{}, KindDesktop},
		{"partial pushover", Config{Pushover: PushoverConfig{AppToken: "a"}}, KindDesktop},
		{"pushover", Config{Pushover: PushoverConfig{AppToken: "a", UserKey: "u"}}, KindPushover},
		{"telegram", Config{Telegram: TelegramConfig{Token: "t", ChatID: 1}}, KindTelegram},
		{"telegram without chat", Config{Telegram: TelegramConfig{Token: "t"}}, KindDesktop},
		{"both", Config{
			Pushover: PushoverConfig{AppToken: "a", UserKey: "u"},
			Telegram: TelegramConfig{Token: "t", ChatID: 1},
		}, KindPushover},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.Kind(); got != tt.want {
				t.Fatalf("Kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()
	n, kind, err := Select(Config{Pushover: PushoverConfig{AppToken: "a", UserKey: "u"}}, testLogger())
	if err != nil || kind != KindPushover {
		t.Fatalf("Select pushover: %v %s", err, kind)
	}
	if _, ok := n.(*Pushover); !ok {
		t.Fatalf("got %T", n)
	}

	n, kind, err = Select(Config{}, testLogger())
	if err != nil || kind != KindDesktop {
		t.Fatalf("Select desktop: %v %s", err, kind)
	}
	if d, ok := n.(*Desktop); !ok || d.cfg.AppName != DefaultAppName {
		t.Fatalf("got %T %+v", n, n)
	}
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, string, string) error {
	r.calls++
	return r.err
}

func TestSwitch(t *testing.T) {
	t.Parallel()
	var s Switch
	if err := s.Notify(context.Background(), "m", "t"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("zero Switch: %v", err)
	}
	if s.Kind() != "" {
		t.Fatalf("zero Kind = %q", s.Kind())
	}

	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("down")}
	s.Store(a, KindDesktop)
	if err := s.Notify(context.Background(), "m", "t"); err != nil {
		t.Fatal(err)
	}
	s.Store(b, KindPushover)
	if err := s.Notify(context.Background(), "m", "t"); err == nil {
		t.Fatal("expected error from swapped notifier")
	}
	if a.calls != 1 || b.calls != 1 || s.Kind() != KindPushover {
		t.Fatalf("calls a=%d b=%d kind=%s", a.calls, b.calls, s.Kind())
	}
}

func TestDesktopArgs(t *testing.T) {
	t.Parallel()
	d := NewDesktop(DesktopConfig{AppName: "pn", Icon: "dialog-information"}, testLogger())
	args := d.args(">page 9", "general")
	if len(args) != 8 {
		t.Fatalf("len(args) = %d", len(args))
	}
	if args[0] != "pn" || args[2] != "dialog-information" || args[3] != ">page 9" || args[4] != "general" {
		t.Fatalf("args = %#v", args)
	}
	if _, ok := args[6].(map[string]dbus.Variant); !ok {
		t.Fatalf("hints = %T", args[6])
	}
	if args[7] != int32(-1) {
		t.Fatalf("timeout = %#v", args[7])
	}
}

func TestDesktopNoSessionBus(t *testing.T) {
	t.Parallel()
	d := NewDesktop(DesktopConfig{}, testLogger())
	d.connect = func(context.Context) (*dbus.Conn, error) { return nil, errors.New("no session bus") }
	if err := d.Notify(context.Background(), ">page 9", ""); err == nil {
		t.Fatal("expected error without a session bus")
	}
}

func TestJoinText(t *testing.T) {
	t.Parallel()
	if got := joinText(">page 9", ""); got != ">page 9" {
		t.Fatalf("got %q", got)
	}
	if got := joinText(">page 9", "general"); got != ">page 9\ngeneral" {
		t.Fatalf("got %q", got)
	}
}
