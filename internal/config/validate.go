package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

// FieldError names the offending config key.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(path, format string, args ...any) error {
	return &FieldError{Path: path, Err: fmt.Errorf(format, args...)}
}

// Validate checks cfg and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if NormalizeBoard(c.Board) == "" {
		add(fieldErr("board", "required"))
	} else if strings.Contains(NormalizeBoard(c.Board), "/") {
		add(fieldErr("board", "must be a single board name, got %q", c.Board))
	}
	if c.Title == "" {
		add(fieldErr("title", "required"))
	}

	if _, err := tracker.ParseSchedule(c.Poll.Interval); err != nil {
		add(&FieldError{Path: "poll.interval", Err: err})
	}

	if v := strings.TrimSpace(c.Catalog.BaseURL); v != "" {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(fieldErr("catalog.base_url", "must be an http(s) URL, got %q", v))
		}
	}
	_, err := ParseDurationField("catalog.timeout", c.Catalog.Timeout)
	add(err)
	if c.Catalog.RatePerSec < 0 {
		add(fieldErr("catalog.rate_per_sec", "must be >= 0"))
	}

	add(c.validateNotifiers())

	if c.Logging.Level != "" {
		if _, ok := logx.ParseLevel(c.Logging.Level); !ok {
			add(fieldErr("logging.level", "unknown level %q", c.Logging.Level))
		}
	}

	switch storage.Driver(c.Storage.Driver) {
	case "none":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			add(fieldErr("storage.path", "required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add(fieldErr("storage.dsn", "required for postgres"))
		}
	default:
		add(fieldErr("storage.driver", "unknown driver %q (none, sqlite, postgres)", c.Storage.Driver))
	}
	_, err = ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	add(err)

	return errors.Join(errs...)
}

func (c *Config) validateNotifiers() error {
	var errs []error
	services := 0

	if c.Pushover.set() {
		services++
		if c.Pushover.ApplicationAPIToken == "" {
			errs = append(errs, fieldErr("pushover.application_api_token", "required with pushover.user_key"))
		}
		if c.Pushover.UserKey == "" {
			errs = append(errs, fieldErr("pushover.user_key", "required with pushover.application_api_token"))
		}
	}
	if c.Telegram.set() {
		services++
		if strings.TrimSpace(c.Telegram.Token) == "" {
			errs = append(errs, fieldErr("telegram.token", "required with telegram.chat_id"))
		}
		if c.Telegram.ChatID == 0 {
			errs = append(errs, fieldErr("telegram.chat_id", "required with telegram.token"))
		}
	}
	if services > 1 {
		errs = append(errs, fieldErr("pushover", "only one push service may be configured (pushover or telegram)"))
	}
	return errors.Join(errs...)
}
