// Package storage keeps the observation and alert history.
//
// History is append-only and write-behind: it is fed from tracker events and
// read back by the history command and the status API. It is never used to
// restore tracking state.
//
// Drivers:
//   - "sqlite": local database file (modernc.org/sqlite, no cgo)
//   - "postgres": shared database through a pgx connection pool
//
// Driver "none" (or empty) disables storage; Open then returns ErrDisabled.
package storage
