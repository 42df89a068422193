package config

import (
	"strings"
)

// Config is the on-disk configuration. Durations are Go duration strings
// ("15s", "1m"); the poll interval also accepts HH:MM and cron expressions.
type Config struct {
	// Board is the board short name; surrounding slashes are trimmed ("/vg/" -> "vg").
	Board string `json:"board"`
	// Title is matched as a case-sensitive substring of thread subjects.
	Title string `json:"title"`
	// NoBumpLimit suppresses alerts for threads that reached the bump limit.
	NoBumpLimit bool `json:"no_bump_limit"`

	Poll     PollConfig     `json:"poll"`
	Catalog  CatalogConfig  `json:"catalog"`
	Pushover PushoverConfig `json:"pushover"`
	Telegram TelegramConfig `json:"telegram"`
	Desktop  DesktopConfig  `json:"desktop"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Status   StatusConfig   `json:"status"`
}

type PollConfig struct {
	Interval string `json:"interval,omitempty"`
}

type CatalogConfig struct {
	BaseURL    string  `json:"base_url,omitempty"`
	Timeout    string  `json:"timeout,omitempty"`
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
	UserAgent  string  `json:"user_agent,omitempty"`
}

type PushoverConfig struct {
	ApplicationAPIToken string `json:"application_api_token,omitempty"`
	UserKey             string `json:"user_key,omitempty"`
}

func (p PushoverConfig) set() bool {
	return strings.TrimSpace(p.ApplicationAPIToken) != "" || strings.TrimSpace(p.UserKey) != ""
}

type TelegramConfig struct {
	Token    string `json:"token,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
}

func (t TelegramConfig) set() bool {
	return strings.TrimSpace(t.Token) != "" || t.ChatID != 0
}

type DesktopConfig struct {
	AppName string `json:"app_name,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	// Driver is "none" (default), "sqlite" or "postgres".
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	DSN         string `json:"dsn,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type StatusConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Token   string `json:"token,omitempty"`
	Pprof   bool   `json:"pprof,omitempty"`
}

const (
	DefaultPollInterval   = "30s"
	DefaultCatalogTimeout = "15s"
	DefaultStoragePath    = "pagenine.db"
)

// Default returns the configuration used for every key a file or flag leaves unset.
func Default() *Config {
	return &Config{
		Poll:    PollConfig{Interval: DefaultPollInterval},
		Catalog: CatalogConfig{Timeout: DefaultCatalogTimeout, RatePerSec: 1},
		Logging: LoggingConfig{Level: "INFO", Console: true},
		Storage: StorageConfig{Driver: "none"},
	}
}

// NormalizeBoard trims whitespace and surrounding slashes.
func NormalizeBoard(s string) string {
	return strings.Trim(strings.TrimSpace(s), "/")
}

// Normalize cleans user-entered values in place.
func (c *Config) Normalize() {
	c.Board = NormalizeBoard(c.Board)
	c.Pushover.ApplicationAPIToken = strings.TrimSpace(c.Pushover.ApplicationAPIToken)
	c.Pushover.UserKey = strings.TrimSpace(c.Pushover.UserKey)
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "sqlite" && strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = DefaultStoragePath
	}
}

// Clone returns a copy; Config holds no shared references.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
