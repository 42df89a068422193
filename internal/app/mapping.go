package app

import (
	"pagenine/internal/catalog"
	"pagenine/internal/config"
	"pagenine/internal/notifier"
	"pagenine/internal/status"
	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapCatalog(cfg *config.Config) catalog.Config {
	return catalog.Config{
		BaseURL:    cfg.Catalog.BaseURL,
		Timeout:    cfg.Catalog.TimeoutDuration(),
		UserAgent:  cfg.Catalog.UserAgent,
		RatePerSec: cfg.Catalog.RatePerSec,
	}
}

func mapNotifier(cfg *config.Config) notifier.Config {
	return notifier.Config{
		Pushover: notifier.PushoverConfig{
			AppToken: cfg.Pushover.ApplicationAPIToken,
			UserKey:  cfg.Pushover.UserKey,
		},
		Telegram: notifier.TelegramConfig{
			Token:    cfg.Telegram.Token,
			ChatID:   cfg.Telegram.ChatID,
			ThreadID: cfg.Telegram.ThreadID,
		},
		Desktop: notifier.DesktopConfig{
			AppName: cfg.Desktop.AppName,
			Icon:    cfg.Desktop.Icon,
		},
	}
}

func mapTracker(cfg *config.Config) tracker.Config {
	return tracker.Config{
		Board:               config.NormalizeBoard(cfg.Board),
		Title:               cfg.Title,
		SuppressOnBumpLimit: cfg.NoBumpLimit,
	}
}

func mapStorage(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		DSN:         cfg.Storage.DSN,
		BusyTimeout: cfg.Storage.BusyTimeoutDuration(),
	}
}

func mapStatus(cfg *config.Config) status.Config {
	return status.Config{
		Addr:  cfg.Status.Addr,
		Token: cfg.Status.Token,
		Pprof: cfg.Status.Pprof,
	}
}
