package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// ContentRow is one candidate row: its id plus the current values of the
// store's text columns, in TextColumns order.
type ContentRow struct {
	ID      uuid.UUID
	Columns []string
}

// ContentStore is one content table whose text columns may embed handle
// mentions (comments, private messages, publications).
type ContentStore interface {
	// Type names the content type in statistics ("comments", ...).
	Type() string

	// TextColumns lists the columns carried by ContentRow.Columns.
	TextColumns() []string

	// FindCandidates returns rows whose text may mention the handle. This is
	// a broad substring pre-filter; callers must re-match precisely.
	FindCandidates(ctx context.Context, handle string) ([]ContentRow, error)

	// CountCandidates is the read-only companion to FindCandidates.
	CountCandidates(ctx context.Context, handle string) (int, error)

	// UpdateColumns writes the changed columns of one row in a single statement.
	UpdateColumns(ctx context.Context, id uuid.UUID, changed map[string]string) error

	// WithTx returns a copy of the store bound to the transaction.
	WithTx(tx Tx) ContentStore
}
