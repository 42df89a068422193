package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"pagenine/internal/app"
	"pagenine/internal/catalog"
	"pagenine/internal/config"
	"pagenine/internal/storage"
	"pagenine/pkg/logx"
)

const stopTimeout = 20 * time.Second

func newCLIApp() *cli.App {
	a := &cli.App{
		Name:      "pagenine",
		Usage:     "Alert when a catalog thread reaches page 9",
		Version:   Version,
		ArgsUsage: "[board] [title]",
		Flags:     trackingFlags(),
		Action:    runAction,
		Commands: []*cli.Command{
			runCmd(),
			checkCmd(),
			historyCmd(),
		},
	}
	// Errors are returned to main (and tests) instead of exiting in place.
	a.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return a
}

func trackingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"PAGENINE_CONFIG"}, Usage: "Config file (.yaml, .yml or .json)"},
		&cli.StringFlag{Name: "board", Aliases: []string{"b"}, EnvVars: []string{"PAGENINE_BOARD"}, Usage: "Board short name, e.g. vg or /vg/"},
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, EnvVars: []string{"PAGENINE_TITLE"}, Usage: "Case-sensitive subject fragment to track"},
		&cli.BoolFlag{Name: "no-bump-limit", EnvVars: []string{"PAGENINE_NO_BUMP_LIMIT"}, Usage: "Do not alert for threads past the bump limit"},
		&cli.StringFlag{Name: "poll", EnvVars: []string{"PAGENINE_POLL"}, Usage: "Tick schedule: duration, HH:MM, @every or cron:<expr>"},
		&cli.StringFlag{Name: "catalog-url", EnvVars: []string{"PAGENINE_CATALOG_URL"}, Usage: "Catalog API base URL"},
		&cli.StringFlag{Name: "pushover-token", EnvVars: []string{"PAGENINE_PUSHOVER_APPLICATION_API_TOKEN", "PAGENINE_PUSHOVER_TOKEN"}, Usage: "Pushover application API token"},
		&cli.StringFlag{Name: "pushover-user", EnvVars: []string{"PAGENINE_PUSHOVER_USER_KEY", "PAGENINE_PUSHOVER_USER"}, Usage: "Pushover user key"},
		&cli.StringFlag{Name: "telegram-token", EnvVars: []string{"PAGENINE_TELEGRAM_TOKEN"}, Usage: "Telegram bot token"},
		&cli.Int64Flag{Name: "telegram-chat", EnvVars: []string{"PAGENINE_TELEGRAM_CHAT"}, Usage: "Telegram chat ID"},
		&cli.IntFlag{Name: "telegram-thread", EnvVars: []string{"PAGENINE_TELEGRAM_THREAD"}, Usage: "Telegram forum topic ID"},
		&cli.StringFlag{Name: "log-level", EnvVars: []string{"PAGENINE_LOG_LEVEL"}, Usage: "TRACE, DEBUG, INFO, WARN or ERROR"},
		&cli.StringFlag{Name: "storage", EnvVars: []string{"PAGENINE_STORAGE"}, Usage: "History driver: none, sqlite or postgres"},
		&cli.StringFlag{Name: "storage-path", EnvVars: []string{"PAGENINE_STORAGE_PATH"}, Usage: "sqlite database file"},
		&cli.StringFlag{Name: "storage-dsn", EnvVars: []string{"PAGENINE_STORAGE_DSN"}, Usage: "postgres connection string"},
		&cli.BoolFlag{Name: "status", EnvVars: []string{"PAGENINE_STATUS"}, Usage: "Serve the status API"},
		&cli.StringFlag{Name: "status-addr", EnvVars: []string{"PAGENINE_STATUS_ADDR"}, Usage: "Status API listen address"},
		&cli.StringFlag{Name: "status-token", EnvVars: []string{"PAGENINE_STATUS_TOKEN"}, Usage: "Bearer token required by the status API"},
		&cli.BoolFlag{Name: "pprof", EnvVars: []string{"PAGENINE_PPROF"}, Usage: "Mount pprof under /debug on the status API"},
	}
}

// overlay maps set flags, their environment variables and positional
// arguments onto a parsed config. Positional arguments win over --board and
// --title.
func overlay(c *cli.Context) func(*config.Config) {
	return func(cfg *config.Config) {
		str := func(name string, dst *string) {
			if c.IsSet(name) {
				*dst = c.String(name)
			}
		}
		flag := func(name string, dst *bool) {
			if c.IsSet(name) {
				*dst = c.Bool(name)
			}
		}

		str("board", &cfg.Board)
		str("title", &cfg.Title)
		flag("no-bump-limit", &cfg.NoBumpLimit)
		str("poll", &cfg.Poll.Interval)
		str("catalog-url", &cfg.Catalog.BaseURL)
		str("pushover-token", &cfg.Pushover.ApplicationAPIToken)
		str("pushover-user", &cfg.Pushover.UserKey)
		str("telegram-token", &cfg.Telegram.Token)
		if c.IsSet("telegram-chat") {
			cfg.Telegram.ChatID = c.Int64("telegram-chat")
		}
		if c.IsSet("telegram-thread") {
			cfg.Telegram.ThreadID = c.Int("telegram-thread")
		}
		str("log-level", &cfg.Logging.Level)
		str("storage", &cfg.Storage.Driver)
		str("storage-path", &cfg.Storage.Path)
		str("storage-dsn", &cfg.Storage.DSN)
		flag("status", &cfg.Status.Enabled)
		str("status-addr", &cfg.Status.Addr)
		str("status-token", &cfg.Status.Token)
		flag("pprof", &cfg.Status.Pprof)

		args := c.Args()
		if args.Len() > 0 {
			cfg.Board = args.Get(0)
		}
		if args.Len() > 1 {
			cfg.Title = args.Get(1)
		}
	}
}

// loadConfig parses and validates the layered config without starting anything.
func loadConfig(c *cli.Context) (*config.Config, error) {
	m := config.NewManager(c.String("config"))
	m.SetOverlay(overlay(c))
	return m.Load(c.Context)
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Track the thread until interrupted (default)",
		ArgsUsage: "[board] [title]",
		Flags:     trackingFlags(),
		Action:    runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.Args().Len() > 2 {
		return cli.Exit("too many arguments; expected [board] [title]", 2)
	}
	a, err := app.New(c.Context, app.Options{
		ConfigPath: c.String("config"),
		Overlay:    overlay(c),
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return a.Run(c.Context, stopTimeout)
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Fetch the catalog once and print where the thread is (exit 1 when absent)",
		ArgsUsage: "[board] [title]",
		Flags:     trackingFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			log := logx.NewConsole(cfg.Logging.Level)

			res, err := app.Check(c.Context, cfg, nil, log)
			if err != nil {
				var fe *catalog.FetchError
				if errors.As(err, &fe) {
					return cli.Exit(fmt.Sprintf("fetch %s: %v", fe.Board, err), 3)
				}
				return cli.Exit(err.Error(), 3)
			}
			if err := outputJSON(c.App.Writer, res); err != nil {
				return err
			}
			if !res.Found {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func historyCmd() *cli.Command {
	flags := append(trackingFlags(),
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: storage.DefaultLimit, Usage: "Maximum records to list"},
		&cli.StringFlag{Name: "kind", Usage: "Only list observation or alert records"},
		&cli.BoolFlag{Name: "all-boards", Usage: "Do not filter by the configured board"},
	)
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded observations and alerts, newest first",
		Flags: flags,
		Action: func(c *cli.Context) error {
			m := config.NewManager(c.String("config"))
			m.SetOverlay(overlay(c))
			// history only needs the storage section; board and title may be unset.
			cfg, err := m.Parse()
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			q := storage.Query{Limit: c.Int("limit")}
			if !c.Bool("all-boards") {
				q.Board = cfg.Board
			}
			switch k := storage.Kind(c.String("kind")); k {
			case "":
			case storage.KindObservation, storage.KindAlert:
				q.Kind = k
			default:
				return cli.Exit(fmt.Sprintf("unknown kind %q", k), 2)
			}

			entries, err := app.History(c.Context, cfg, q, logx.NewConsole(cfg.Logging.Level))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if entries == nil {
				entries = []storage.Entry{}
			}
			return outputJSON(c.App.Writer, entries)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

