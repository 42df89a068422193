package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"pagenine/pkg/logx"
)

// ErrNotConfigured is returned by Switch before a transport has been stored.
var ErrNotConfigured = errors.New("notifier not configured")

// Notifier dispatches one alert. title may be empty.
type Notifier interface {
	Notify(ctx context.Context, message, title string) error
}

type Kind string

const (
	KindDesktop  Kind = "desktop"
	KindPushover Kind = "pushover"
	KindTelegram Kind = "telegram"
)

type Config struct {
	Pushover PushoverConfig
	Telegram TelegramConfig
	Desktop  DesktopConfig
}

// Kind reports which transport cfg selects. Push services win over the
// desktop fallback; when several are set Pushover is preferred, then Telegram.
func (c Config) Kind() Kind {
	switch {
	case c.Pushover.configured():
		return KindPushover
	case c.Telegram.configured():
		return KindTelegram
	default:
		return KindDesktop
	}
}

// Select builds the transport chosen by cfg.Kind.
func Select(cfg Config, log logx.Logger) (Notifier, Kind, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	kind := cfg.Kind()
	switch kind {
	case KindPushover:
		return NewPushover(cfg.Pushover, log), kind, nil
	case KindTelegram:
		n, err := NewTelegram(cfg.Telegram, log)
		if err != nil {
			return nil, kind, fmt.Errorf("telegram: %w", err)
		}
		return n, kind, nil
	default:
		return NewDesktop(cfg.Desktop, log), kind, nil
	}
}

// Switch is a Notifier whose transport can be replaced at runtime.
// The zero value is ready to use and fails with ErrNotConfigured.
type Switch struct {
	cur atomic.Pointer[active]
}

type active struct {
	n    Notifier
	kind Kind
}

func (s *Switch) Store(n Notifier, kind Kind) {
	s.cur.Store(&active{n: n, kind: kind})
}

// Kind returns the active transport kind, or "" when none is stored.
func (s *Switch) Kind() Kind {
	if a := s.cur.Load(); a != nil {
		return a.kind
	}
	return ""
}

func (s *Switch) Notify(ctx context.Context, message, title string) error {
	a := s.cur.Load()
	if a == nil || a.n == nil {
		return ErrNotConfigured
	}
	return a.n.Notify(ctx, message, title)
}

func joinText(message, title string) string {
	if strings.TrimSpace(title) == "" {
		return message
	}
	return message + "\n" + title
}
