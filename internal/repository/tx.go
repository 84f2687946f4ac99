// Package repository defines store interfaces consumed by the services.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query subset repositories need. It is satisfied by
// *pgxpool.Pool, pgx.Tx and pgxmock, so the same repository code runs
// inside and outside a transaction.
type Querier interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is a transactional context over the relational store. Commit and
// Rollback both release the underlying connection.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxStarter opens transactions; implemented by *postgres.DB.
type TxStarter interface {
	Begin(ctx context.Context) (Tx, error)
}
