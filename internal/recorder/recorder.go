// Package recorder persists tracker events to the history store.
package recorder

import (
	"context"
	"time"

	"pagenine/internal/eventbus"
	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

const (
	defaultBuffer       = 64
	defaultWriteTimeout = 5 * time.Second
)

// Recorder drains observation and alert events into a Store. Writes are
// best-effort: a failed write is logged and the event is dropped.
type Recorder struct {
	bus   eventbus.Bus
	store storage.Store
	log   logx.Logger

	writeTimeout time.Duration
}

func New(bus eventbus.Bus, store storage.Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{bus: bus, store: store, log: log, writeTimeout: defaultWriteTimeout}
}

// Run subscribes to the bus and records events until ctx is cancelled.
// Events already queued when ctx ends are flushed before returning.
func (r *Recorder) Run(ctx context.Context) error {
	ch, unsub := r.bus.Subscribe(defaultBuffer)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			r.drain(ch)
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			r.record(context.WithoutCancel(ctx), ev)
		}
	}
}

func (r *Recorder) drain(ch <-chan eventbus.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.record(context.Background(), ev)
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev eventbus.Event) {
	e, ok := Entry(ev)
	if !ok {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	if err := r.store.Append(wctx, e); err != nil {
		r.log.Warn("history write failed", logx.String("kind", string(e.Kind)), logx.Err(err))
		return
	}
	r.log.Trace("history written", logx.String("kind", string(e.Kind)), logx.String("id", e.ID))
}

// Entry converts a tracker event into a history entry. Events other than
// observations and alerts are ignored.
func Entry(ev eventbus.Event) (storage.Entry, bool) {
	switch d := ev.Data.(type) {
	case tracker.ObservationEvent:
		e := fromObservation(d.Board, d.Observation)
		e.Kind = storage.KindObservation
		e.At = d.Observation.ObservedAt
		return e, true
	case tracker.AlertEvent:
		e := fromObservation(d.Board, d.Observation)
		e.Kind = storage.KindAlert
		e.At = ev.Time
		e.Message = d.Message
		e.Delivered = d.Delivered
		e.Error = d.Error
		return e, true
	default:
		return storage.Entry{}, false
	}
}

func fromObservation(board string, o tracker.Observation) storage.Entry {
	return storage.Entry{
		Board:      board,
		ThreadID:   o.ThreadID,
		Title:      o.Title,
		Page:       o.Page,
		Position:   o.Position,
		PageLength: o.PageLength,
		BumpLimit:  o.BumpLimitReached,
	}
}
