package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pagenine/pkg/logx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pagenine_history (
  id          TEXT PRIMARY KEY,
  kind        TEXT NOT NULL,
  at          TIMESTAMPTZ NOT NULL,
  board       TEXT NOT NULL,
  thread_id   BIGINT NOT NULL,
  title       TEXT NOT NULL,
  page        INTEGER NOT NULL,
  position    INTEGER NOT NULL,
  page_length INTEGER NOT NULL,
  bump_limit  BOOLEAN NOT NULL,
  message     TEXT,
  delivered   BOOLEAN NOT NULL DEFAULT FALSE,
  err         TEXT
);
CREATE INDEX IF NOT EXISTS idx_pagenine_history_board_at ON pagenine_history(board, at DESC);
`

type postgresStore struct {
	pool *pgxpool.Pool
	log  logx.Logger
}

func openPostgres(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	pcfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	log.Debug("postgres history opened", logx.String("host", pcfg.ConnConfig.Host))
	return &postgresStore{pool: pool, log: log}, nil
}

func (s *postgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *postgresStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.pool == nil {
		return ErrDisabled
	}
	e = prepare(e)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pagenine_history(id, kind, at, board, thread_id, title, page, position, page_length, bump_limit, message, delivered, err)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, string(e.Kind), e.At.UTC(), e.Board, e.ThreadID, e.Title, e.Page, e.Position, e.PageLength,
		e.BumpLimit, nullStr(e.Message), e.Delivered, nullStr(e.Error),
	)
	return err
}

func (s *postgresStore) Recent(ctx context.Context, q Query) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return nil, ErrDisabled
	}
	var (
		where []string
		args  []any
	)
	if q.Board != "" {
		args = append(args, q.Board)
		where = append(where, fmt.Sprintf("board = $%d", len(args)))
	}
	if q.Kind != "" {
		args = append(args, string(q.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, kind, at, board, thread_id, title, page, position, page_length, bump_limit, message, delivered, err FROM pagenine_history`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, q.limit())
	fmt.Fprintf(&sb, " ORDER BY at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e                   Entry
			kind                string
			message, errMessage *string
		)
		err := row.Scan(&e.ID, &kind, &e.At, &e.Board, &e.ThreadID, &e.Title, &e.Page, &e.Position, &e.PageLength,
			&e.BumpLimit, &message, &e.Delivered, &errMessage)
		e.Kind = Kind(kind)
		if message != nil {
			e.Message = *message
		}
		if errMessage != nil {
			e.Error = *errMessage
		}
		return e, err
	})
}
