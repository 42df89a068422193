package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"pagenine/internal/catalog"
	"pagenine/internal/eventbus"
	"pagenine/pkg/logx"
)

// Source provides catalogs. A zero ifModifiedSince means "unconditional".
type Source interface {
	Fetch(ctx context.Context, board string, ifModifiedSince time.Time) (catalog.Catalog, error)
}

// Notifier dispatches one alert. title may be empty.
type Notifier interface {
	Notify(ctx context.Context, message, title string) error
}

type Config struct {
	Board string
	// Title is matched as a case-sensitive substring of thread subjects.
	Title string
	// SuppressOnBumpLimit skips alerts for threads that can no longer be bumped.
	SuppressOnBumpLimit bool
}

// Tracker runs the poll loop for a single thread.
type Tracker struct {
	cfg      Config
	source   Source
	notifier Notifier

	bus eventbus.Bus
	log logx.Logger
	now func() time.Time

	ticks uint64
	held  heldAlert
}

type Option func(*Tracker)

func WithLogger(log logx.Logger) Option { return func(t *Tracker) { t.log = log } }

// WithBus publishes observation, alert and state events to b.
func WithBus(b eventbus.Bus) Option { return func(t *Tracker) { t.bus = b } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

func New(cfg Config, src Source, n Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:      cfg,
		source:   src,
		notifier: n,
		log:      logx.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	if t.log.IsZero() {
		t.log = logx.Nop()
	}
	return t
}

// Run ticks once immediately and then on every activation of sched until ctx
// is cancelled. Cancellation is only observed between ticks; a tick in flight
// sees the cancelled context through its fetch or dispatch and returns the
// state it was given.
func (t *Tracker) Run(ctx context.Context, sched cron.Schedule) error {
	t.log.Info("tracking started",
		logx.String("board", t.cfg.Board),
		logx.String("title", t.cfg.Title),
		logx.Bool("no_bump_limit", t.cfg.SuppressOnBumpLimit),
	)

	var st State
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			t.log.Info("tracking stopped", logx.String("phase", string(st.Phase())))
			return nil
		case <-timer.C:
		}

		st = t.Tick(ctx, st)

		now := time.Now()
		timer.Reset(sched.Next(now).Sub(now))
	}
}

// Tick advances st by one poll step and returns the next state.
//
//   - refresh not needed: the previous observation goes through Decide again;
//   - fetch failed: st is returned unchanged;
//   - thread not in the catalog: the zero State is returned;
//   - otherwise the fresh observation goes through Decide.
func (t *Tracker) Tick(ctx context.Context, st State) State {
	t.ticks++
	next, refreshed := t.tick(ctx, st)
	t.publish(eventbus.TypeState, StateEvent{
		Board:     t.cfg.Board,
		Title:     t.cfg.Title,
		Tick:      t.ticks,
		Refreshed: refreshed,
		Phase:     next.Phase(),
		State:     next,
	})
	return next
}

func (t *Tracker) tick(ctx context.Context, st State) (State, bool) {
	now := t.now()
	if !NeedsRefresh(st.LastObservation, now) {
		obs := *st.LastObservation
		t.log.Trace("refresh not needed",
			logx.Int("page", obs.Page),
			logx.Int("elapsed_min", ElapsedMinutes(obs, now)),
		)
		return t.decide(ctx, st, obs), false
	}

	var since time.Time
	if st.LastObservation != nil {
		since = st.LastObservation.ObservedAt
	}
	cat, err := t.source.Fetch(ctx, t.cfg.Board, since)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotModified) && st.LastObservation != nil:
			// Nothing moved upstream, so the last observation is still current.
			t.log.Debug("catalog not modified", logx.String("board", t.cfg.Board))
			return t.decide(ctx, st, *st.LastObservation), false
		case errors.Is(err, catalog.ErrNotModified):
			t.log.Debug("catalog not modified", logx.String("board", t.cfg.Board))
		case ctx.Err() != nil:
			t.log.Debug("fetch abandoned", logx.Err(err))
		default:
			t.log.Warn("error fetching catalog", logx.String("board", t.cfg.Board), logx.Err(err))
		}
		return st, false
	}

	obs, ok := FindThread(cat, t.cfg.Title, t.now())
	if !ok {
		if st.LastObservation != nil {
			t.log.Info("thread no longer in catalog",
				logx.String("title", t.cfg.Title),
				logx.Int("last_page", st.LastObservation.Page),
			)
		} else {
			t.log.Debug("thread not found", logx.String("title", t.cfg.Title), logx.Int("threads", cat.Threads()))
		}
		return State{}, true
	}

	t.log.Info(describe(obs),
		logx.Int64("thread", obs.ThreadID),
		logx.Int("page", obs.Page),
		logx.Int("position", obs.Position),
		logx.Int("page_length", obs.PageLength),
		logx.Bool("bump_limit", obs.BumpLimitReached),
	)
	t.publish(eventbus.TypeObservation, ObservationEvent{
		Board:       t.cfg.Board,
		Observation: obs,
		Threshold:   ThresholdFor(obs),
	})
	return t.decide(ctx, st, obs), true
}

func (t *Tracker) decide(ctx context.Context, st State, obs Observation) State {
	d := Decide(st, obs, t.cfg.SuppressOnBumpLimit)
	next := State{LastObservation: &obs, LastNotifiedPage: d.NextNotifiedPage}

	switch d.Reason {
	case ReasonBelowThreshold:
		t.held = heldAlert{}
		if st.LastNotifiedPage != 0 {
			t.log.Info("alert released", logx.Int("page", obs.Page), logx.Int("notified_page", st.LastNotifiedPage))
		}
		return next
	case ReasonAlreadyNotified, ReasonBumpLimit:
		t.logHeld(d.Reason, obs.Page)
		return next
	}

	message, title := AlertText(obs)
	err := t.notifier.Notify(ctx, message, title)
	next.LastNotifiedPage = d.Settle(err)
	t.held = heldAlert{}

	ev := AlertEvent{Board: t.cfg.Board, Observation: obs, Message: message, Title: title, Delivered: err == nil}
	if err != nil {
		ev.Error = err.Error()
		t.log.Warn("notification failed; will retry", logx.Int("page", obs.Page), logx.Err(err))
	} else {
		t.log.Info("notified", logx.Int("page", obs.Page), logx.String("message", message))
	}
	t.publish(eventbus.TypeAlert, ev)
	return next
}

// heldAlert is the last alert decision that did not dispatch.
type heldAlert struct {
	reason Reason
	page   int
}

// logHeld logs an alert held back by Decide at Info the first time for a
// given reason and page, and at Debug on the ticks that repeat it.
func (t *Tracker) logHeld(r Reason, page int) {
	msg := "already notified"
	if r == ReasonBumpLimit {
		msg = "alert suppressed at bump limit"
	}
	h := heldAlert{reason: r, page: page}
	if t.held == h {
		t.log.Debug(msg, logx.Int("page", page))
		return
	}
	t.held = h
	t.log.Info(msg, logx.Int("page", page))
}

// AlertText returns the notification message and title for obs.
func AlertText(obs Observation) (message, title string) {
	return fmt.Sprintf(">page %d", obs.Page), catalog.PlainText(obs.Title)
}

func describe(obs Observation) string {
	s := fmt.Sprintf("%q, page %d (%d/%d)", catalog.PlainText(obs.Title), obs.Page, obs.Position, obs.PageLength)
	if obs.BumpLimitReached {
		s += ", over bump limit"
	}
	return s
}

func (t *Tracker) publish(typ string, data any) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(eventbus.Event{Type: typ, Time: t.now(), Data: data})
}
