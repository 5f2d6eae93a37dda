package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mbs-manager/internal/core"
)

// DB is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Client is the single data-store handle shared by every repository.
type Client struct {
	pool *pgxpool.Pool
}

func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

// DB returns the underlying pool for generic helpers.
func (c *Client) DB() DB { return c.pool }

// Pool exposes the pool for components that need dedicated connections.
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// Select runs q and decodes every row into T by column name. Columns with no
// matching field are an error; fields with no matching column stay zero.
func Select[T any](ctx context.Context, db DB, q Query) ([]T, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, &core.RemoteQueryError{Table: q.Table(), Err: err}
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &core.RemoteQueryError{Table: q.Table(), Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, &core.RemoteQueryError{Table: q.Table(), Err: err}
	}
	return out, nil
}

// One runs q and returns its first row, or a RemoteQueryError wrapping
// core.ErrNotFound.
func One[T any](ctx context.Context, db DB, q Query) (*T, error) {
	rows, err := Select[T](ctx, db, q.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &core.RemoteQueryError{Table: q.Table(), Err: core.ErrNotFound}
	}
	return &rows[0], nil
}

// Count returns the number of rows matching q's filters.
func Count(ctx context.Context, db DB, q Query) (int, error) {
	sql, args, err := q.CountSQL()
	if err != nil {
		return 0, &core.RemoteQueryError{Table: q.Table(), Err: err}
	}
	var n int
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, &core.RemoteQueryError{Table: q.Table(), Err: err}
	}
	return n, nil
}

// Exec runs cmd and decodes the affected rows into T.
func Exec[T any](ctx context.Context, db DB, cmd Command) ([]T, error) {
	sql, args, err := cmd.ToSQL()
	if err != nil {
		return nil, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: err}
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: describe(err)}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: describe(err)}
	}
	return out, nil
}

// ExecOne is Exec for commands expected to affect exactly one row.
func ExecOne[T any](ctx context.Context, db DB, cmd Command) (*T, error) {
	rows, err := Exec[T](ctx, db, cmd)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: core.ErrNotFound}
	}
	return &rows[0], nil
}

// describe keeps the server's message for constraint violations, which is
// what forms show inline.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (%s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}

// ExecCount runs cmd and reports how many rows it touched.
func ExecCount(ctx context.Context, db DB, cmd Command) (int64, error) {
	sql, args, err := cmd.ToSQL()
	if err != nil {
		return 0, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: err}
	}
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &core.RemoteCommandError{Op: cmd.Op(), Table: cmd.Table(), Err: describe(err)}
	}
	return tag.RowsAffected(), nil
}
