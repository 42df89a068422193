package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

type Config struct {
	Driver string
	// Path is the sqlite database file.
	Path string
	// DSN is the postgres connection string.
	DSN         string
	BusyTimeout time.Duration // sqlite only; 0 means 5s
	MaxConns    int32         // postgres only; 0 means 4
}

type Kind string

const (
	KindObservation Kind = "observation"
	KindAlert       Kind = "alert"
)

// Entry is one history record. Observation entries leave the alert fields
// empty; alert entries carry the observation that triggered them.
type Entry struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	Board      string `json:"board"`
	ThreadID   int64  `json:"thread_id"`
	Title      string `json:"title"`
	Page       int    `json:"page"`
	Position   int    `json:"position"`
	PageLength int    `json:"page_length"`
	BumpLimit  bool   `json:"bump_limit"`

	Message   string `json:"message,omitempty"`
	Delivered bool   `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Query filters Recent. Zero values match everything.
type Query struct {
	Board string
	Kind  Kind
	Limit int
}

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}
