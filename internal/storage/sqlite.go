package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pagenine/pkg/logx"
)

const sqliteSchemaVersion = 1

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	// Pragmas in the DSN apply to every pooled connection.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path, busy.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; readers queue behind it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite history opened", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS history (
		  id          TEXT PRIMARY KEY,
		  kind        TEXT NOT NULL,
		  at          INTEGER NOT NULL,
		  board       TEXT NOT NULL,
		  thread_id   INTEGER NOT NULL,
		  title       TEXT NOT NULL,
		  page        INTEGER NOT NULL,
		  position    INTEGER NOT NULL,
		  page_length INTEGER NOT NULL,
		  bump_limit  INTEGER NOT NULL,
		  message     TEXT,
		  delivered   INTEGER NOT NULL DEFAULT 0,
		  err         TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_history_board_at ON history(board, at DESC);
		CREATE INDEX IF NOT EXISTS idx_history_kind_at ON history(kind, at DESC);
		`
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
	}

	if version < sqliteSchemaVersion {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", sqliteSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	e = prepare(e)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history(id, kind, at, board, thread_id, title, page, position, page_length, bump_limit, message, delivered, err)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, string(e.Kind), e.At.UnixMilli(), e.Board, e.ThreadID, e.Title, e.Page, e.Position, e.PageLength,
		boolInt(e.BumpLimit), nullStr(e.Message), boolInt(e.Delivered), nullStr(e.Error),
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, q Query) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	var (
		where []string
		args  []any
	)
	if q.Board != "" {
		where = append(where, "board = ?")
		args = append(args, q.Board)
	}
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, kind, at, board, thread_id, title, page, position, page_length, bump_limit, message, delivered, err FROM history`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY at DESC, id DESC LIMIT ?")
	args = append(args, q.limit())

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                   Entry
			kind                string
			at                  int64
			bump, delivered     int
			message, errMessage sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &at, &e.Board, &e.ThreadID, &e.Title, &e.Page, &e.Position, &e.PageLength,
			&bump, &message, &delivered, &errMessage); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.At = time.UnixMilli(at).UTC()
		e.BumpLimit = bump != 0
		e.Delivered = delivered != 0
		e.Message = message.String
		e.Error = errMessage.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
