// Package db holds Postgres helpers for bulk loading export tables.
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the part of *pgxpool.Pool the helpers need. pgxmock pools
// satisfy it too.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Ident splits a possibly schema-qualified table name like "atlas.listings".
func Ident(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}
