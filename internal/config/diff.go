package config

import (
	"strings"

	"pagenine/pkg/logx"
)

// Change summarizes a reload.
type Change struct {
	// Applied lists sections that take effect immediately.
	Applied []string
	// Ignored lists sections that only change on restart.
	Ignored []string
	// Fields are safe log attributes; secrets are reported as set/unset only.
	Fields []logx.Field
}

func (c Change) Empty() bool { return len(c.Applied) == 0 && len(c.Ignored) == 0 }

// SummarizeChange compares two configs.
func SummarizeChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change

	if oldCfg.Logging != newCfg.Logging {
		ch.Applied = append(ch.Applied, "logging")
		ch.Fields = append(ch.Fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if oldCfg.Pushover != newCfg.Pushover || oldCfg.Telegram != newCfg.Telegram || oldCfg.Desktop != newCfg.Desktop {
		ch.Applied = append(ch.Applied, "notifier")
		ch.Fields = append(ch.Fields,
			logx.Bool("pushover.set", newCfg.Pushover.set()),
			logx.Bool("telegram.set", newCfg.Telegram.set()),
			logx.Int("telegram.thread_id", newCfg.Telegram.ThreadID),
			logx.String("desktop.app_name", newCfg.Desktop.AppName),
		)
	}

	if NormalizeBoard(oldCfg.Board) != NormalizeBoard(newCfg.Board) || oldCfg.Title != newCfg.Title || oldCfg.NoBumpLimit != newCfg.NoBumpLimit {
		ch.Ignored = append(ch.Ignored, "tracking")
	}
	if strings.TrimSpace(oldCfg.Poll.Interval) != strings.TrimSpace(newCfg.Poll.Interval) {
		ch.Ignored = append(ch.Ignored, "poll")
	}
	if oldCfg.Catalog != newCfg.Catalog {
		ch.Ignored = append(ch.Ignored, "catalog")
	}
	if oldCfg.Storage != newCfg.Storage {
		ch.Ignored = append(ch.Ignored, "storage")
	}
	if oldCfg.Status != newCfg.Status {
		ch.Ignored = append(ch.Ignored, "status")
	}
	return ch
}
