// Package status serves a small read-only HTTP API over the running tracker:
// liveness, the latest tracking state and recent history.
package status

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pagenine/internal/eventbus"
	"pagenine/internal/runtime/supervisor"
	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

const DefaultAddr = "127.0.0.1:8089"

type Config struct {
	Addr string
	// Token, when set, is required as "Authorization: Bearer <token>" on
	// everything except /healthz.
	Token string
	Pprof bool
}

// Deps are optional; missing ones are omitted from responses.
type Deps struct {
	Bus   eventbus.Bus
	Store storage.Store
	// Workers reports goroutine counters across the app's supervisors.
	Workers func() supervisor.Counters
	// Notifier reports the active notifier kind.
	Notifier func() string
}

type Server struct {
	cfg  Config
	deps Deps
	log  logx.Logger

	started time.Time
	latest  atomic.Pointer[snapshot]
	handler http.Handler
}

type snapshot struct {
	At    time.Time
	Event tracker.StateEvent
}

func New(cfg Config, deps Deps, log logx.Logger) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{cfg: cfg, deps: deps, log: log, started: time.Now()}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Update records the latest state snapshot.
func (s *Server) Update(at time.Time, ev tracker.StateEvent) {
	s.latest.Store(&snapshot{At: at, Event: ev})
}

// Watch keeps the snapshot current from bus state events until ctx ends.
func (s *Server) Watch(ctx context.Context) error {
	if s.deps.Bus == nil {
		<-ctx.Done()
		return nil
	}
	ch, unsub := s.deps.Bus.Subscribe(8)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if se, ok := ev.Data.(tracker.StateEvent); ok {
				s.Update(ev.Time, se)
			}
		}
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.log.Info("status server listening", logx.String("addr", ln.Addr().String()), logx.Bool("pprof", s.cfg.Pprof))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		s.log.Warn("status server shutdown", logx.Err(err))
		return err
	}
	s.log.Info("status server stopped")
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		if s.cfg.Pprof {
			r.Mount("/debug", middleware.Profiler())
		}
	})
	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	if s.cfg.Token == "" {
		return next
	}
	want := []byte("Bearer " + s.cfg.Token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

type statusResponse struct {
	Board     string               `json:"board"`
	Title     string               `json:"title"`
	Tick      uint64               `json:"tick"`
	Phase     tracker.Phase        `json:"phase"`
	Refreshed bool                 `json:"refreshed"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
	State     tracker.State        `json:"state"`
	Threshold *tracker.Threshold   `json:"threshold,omitempty"`
	Notifier  string               `json:"notifier,omitempty"`
	Workers   *supervisor.Counters `json:"workers,omitempty"`
	Dropped   uint64               `json:"dropped_events"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Phase: tracker.PhaseNoObservation}
	if snap := s.latest.Load(); snap != nil {
		ev := snap.Event
		at := snap.At
		resp.Board, resp.Title = ev.Board, ev.Title
		resp.Tick, resp.Phase, resp.Refreshed = ev.Tick, ev.Phase, ev.Refreshed
		resp.State = ev.State
		resp.UpdatedAt = &at
		if o := ev.State.LastObservation; o != nil {
			th := tracker.ThresholdFor(*o)
			resp.Threshold = &th
		}
	}
	if s.deps.Notifier != nil {
		resp.Notifier = s.deps.Notifier()
	}
	if s.deps.Workers != nil {
		c := s.deps.Workers()
		resp.Workers = &c
	}
	if s.deps.Bus != nil {
		resp.Dropped = eventbus.Dropped(s.deps.Bus)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": storage.ErrDisabled.Error()})
		return
	}
	q := storage.Query{
		Board: r.URL.Query().Get("board"),
		Kind:  storage.Kind(r.URL.Query().Get("kind")),
	}
	switch q.Kind {
	case "", storage.KindObservation, storage.KindAlert:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be observation or alert"})
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = n
	}

	entries, err := s.deps.Store.Recent(r.Context(), q)
	if err != nil {
		s.log.Warn("history query failed", logx.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
