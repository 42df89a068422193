package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pagenine/internal/catalog"
	"pagenine/internal/config"
	"pagenine/internal/eventbus"
	"pagenine/internal/notifier"
	"pagenine/internal/recorder"
	"pagenine/internal/runtime/supervisor"
	"pagenine/internal/status"
	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

type Options struct {
	// ConfigPath is optional; without it only defaults and Overlay apply.
	ConfigPath string
	// Overlay applies environment and command-line overrides after every
	// config parse, including reloads.
	Overlay func(*config.Config)
	// Notifier replaces the configured transport. Config reloads then leave
	// it alone.
	Notifier tracker.Notifier
	// Source replaces the HTTP catalog client.
	Source tracker.Source
}

// App wires the tracker and its supporting services and owns their lifecycle.
type App struct {
	opts Options

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	bus   eventbus.Bus
	store storage.Store
	notif *notifier.Switch

	tracker  *tracker.Tracker
	schedule tracker.ParsedSpec
	status   *status.Server

	sup       *supervisor.Supervisor
	trackSup  *supervisor.Supervisor
	recSup    *supervisor.Supervisor
	statusSup *supervisor.Supervisor
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	cfgm.SetOverlay(opts.Overlay)
	cfg, err := cfgm.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logs, log := logx.New(mapLogging(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	spec, err := tracker.ParseSchedule(cfg.Poll.Interval)
	if err != nil {
		return nil, fmt.Errorf("poll.interval: %w", err)
	}

	a := &App{
		opts:     opts,
		cfgm:     cfgm,
		log:      log.With(logx.String("comp", "app")),
		logs:     logs,
		bus:      eventbus.New(),
		notif:    &notifier.Switch{},
		schedule: spec,
	}

	if opts.Notifier != nil {
		a.notif.Store(opts.Notifier, "custom")
	} else {
		n, kind, err := notifier.Select(mapNotifier(cfg), log.With(logx.String("comp", "notifier")))
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
		a.notif.Store(n, kind)
	}

	st, err := storage.Open(ctx, mapStorage(cfg), log.With(logx.String("comp", "storage")))
	switch {
	case errors.Is(err, storage.ErrDisabled):
	case err != nil:
		return nil, fmt.Errorf("storage: %w", err)
	default:
		a.store = st
	}

	src := opts.Source
	if src == nil {
		src = catalog.NewClient(mapCatalog(cfg), log.With(logx.String("comp", "catalog")))
	}
	a.tracker = tracker.New(mapTracker(cfg), src, a.notif,
		tracker.WithLogger(log.With(logx.String("comp", "tracker"))),
		tracker.WithBus(a.bus),
	)

	if cfg.Status.Enabled {
		a.status = status.New(mapStatus(cfg), status.Deps{
			Bus:     a.bus,
			Store:   a.store,
			Workers: func() supervisor.Counters {
				return supervisor.Sum(a.sup, a.trackSup, a.recSup, a.statusSup)
			},
			Notifier: func() string { return string(a.notif.Kind()) },
		}, log.With(logx.String("comp", "status")))
	}
	return a, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config { return a.cfgm.Get() }

// NotifierKind reports the active notifier transport.
func (a *App) NotifierKind() notifier.Kind { return a.notif.Kind() }

// Done is closed once the app context is cancelled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	sched, err := a.schedule.Schedule()
	if err != nil {
		return fmt.Errorf("poll.interval: %w", err)
	}

	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	base := a.sup.Context()
	a.trackSup = supervisor.New(base, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.recSup = supervisor.New(base, supervisor.WithLogger(a.log))
	a.statusSup = supervisor.New(base, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	if a.store != nil {
		rec := recorder.New(a.bus, a.store, a.log.With(logx.String("comp", "recorder")))
		a.recSup.GoRestart("recorder", time.Second, 30*time.Second, rec.Run)
	}
	if a.status != nil {
		a.statusSup.Go("status.watch", a.status.Watch)
		a.statusSup.Go("status.http", func(c context.Context) error {
			if err := a.status.Run(c); err != nil {
				// A dead status server should not take the tracker down with it.
				a.log.Error("status server failed", logx.Err(err))
			}
			return nil
		})
	}
	a.trackSup.Go("tracker", func(c context.Context) error {
		return a.tracker.Run(c, sched)
	})
	// A crashed tracker takes the whole app down.
	a.sup.Go("tracker.watch", func(c context.Context) error {
		select {
		case <-c.Done():
			return nil
		case <-a.trackSup.Context().Done():
			return a.trackSup.Err()
		}
	})

	a.startReload()
	a.startSystemd()

	a.log.Info("started",
		logx.String("board", a.Config().Board),
		logx.String("title", a.Config().Title),
		logx.String("poll", a.schedule.String()),
		logx.String("notifier", string(a.notif.Kind())),
		logx.Bool("history", a.store != nil),
		logx.Bool("status", a.status != nil),
	)
	return nil
}

// Run starts the app and blocks until ctx is cancelled or a component fails,
// then stops it within stopTimeout.
func (a *App) Run(ctx context.Context, stopTimeout time.Duration) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	<-a.Done()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := a.Stop(sctx); err != nil {
		return err
	}
	return a.Err()
}

func (a *App) startReload() {
	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		applied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(applied, next)
				applied = next
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
}

// applyConfig hot-applies logging and notifier settings. Tracking settings
// need a restart; the tracking state is never reset by a reload.
func (a *App) applyConfig(prev, next *config.Config) {
	ch := config.SummarizeChange(prev, next)
	if ch.Empty() {
		a.log.Debug("config reload received, no effective changes")
		return
	}

	for _, s := range ch.Applied {
		switch s {
		case "logging":
			a.logs.Apply(mapLogging(next))
		case "notifier":
			if a.opts.Notifier != nil {
				continue
			}
			n, kind, err := notifier.Select(mapNotifier(next), a.log.With(logx.String("comp", "notifier")))
			if err != nil {
				a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
				continue
			}
			a.notif.Store(n, kind)
		}
	}
	if len(ch.Ignored) > 0 {
		a.log.Warn("config changes require restart", logx.String("sections", strings.Join(ch.Ignored, ",")))
	}
	fields := append([]logx.Field{
		logx.String("applied", strings.Join(ch.Applied, ",")),
		logx.String("notifier", string(a.notif.Kind())),
	}, ch.Fields...)
	a.log.Info("config reloaded", fields...)
}

// Stop shuts components down in dependency order: the tracker stops
// producing events, the recorder flushes what it has, the status server
// drains requests and storage closes last.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	notifyStopping()
	a.log.Info("stopping")

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("tracker", 3*time.Second, a.trackSup.Stop)
	step("recorder", 3*time.Second, a.recSup.Stop)
	step("status", 6*time.Second, a.statusSup.Stop)
	step("storage", time.Second, func(context.Context) error {
		if a.store == nil {
			return nil
		}
		return a.store.Close()
	})
	step("supervisor", 2*time.Second, a.sup.Stop)

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
