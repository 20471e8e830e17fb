package database

import (
	"context"
	"errors"
	"sync"

	"housetrades/src/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotConnected = errors.New("database handle is not connected")

// DBTX is the query surface shared by the pool, the handle and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Handle owns the connection pool and can swap it for a fresh one when the
// current pool stops answering. Repositories hold the handle, never the pool.
type Handle struct {
	mu      sync.RWMutex
	pool    *pgxpool.Pool
	connect func(ctx context.Context) (*pgxpool.Pool, error)
}

// NewHandle connects using cfg.
func NewHandle(ctx context.Context, cfg *config.Config) (*Handle, error) {
	h := &Handle{connect: func(ctx context.Context) (*pgxpool.Pool, error) {
		return SetupDB(ctx, cfg)
	}}
	if err := h.Reconnect(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// NewHandleFromPool wraps an existing pool. Reconnect on such a handle only
// pings the pool again.
func NewHandleFromPool(pool *pgxpool.Pool) *Handle {
	return &Handle{
		pool: pool,
		connect: func(ctx context.Context) (*pgxpool.Pool, error) {
			return pool, pool.Ping(ctx)
		},
	}
}

func (h *Handle) current() (*pgxpool.Pool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.pool == nil {
		return nil, ErrNotConnected
	}
	return h.pool, nil
}

// Ping is the liveness probe run before every dashboard query.
func (h *Handle) Ping(ctx context.Context) error {
	pool, err := h.current()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Reconnect opens a new pool and replaces the current one.
func (h *Handle) Reconnect(ctx context.Context) error {
	pool, err := h.connect(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	old := h.pool
	h.pool = pool
	h.mu.Unlock()

	if old != nil && old != pool {
		// Close waits for acquired connections to be released.
		go old.Close()
	}
	return nil
}

func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
}

func (h *Handle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool, err := h.current()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pool.Exec(ctx, sql, args...)
}

func (h *Handle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool, err := h.current()
	if err != nil {
		return nil, err
	}
	return pool.Query(ctx, sql, args...)
}

func (h *Handle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := h.current()
	if err != nil {
		return errRow{err: err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

func (h *Handle) Begin(ctx context.Context) (pgx.Tx, error) {
	pool, err := h.current()
	if err != nil {
		return nil, err
	}
	return pool.Begin(ctx)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
