package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ContentStore implements repository.ContentStore for one content table.
// The same implementation serves comments, private messages and
// publications; only the table and text-column configuration differ.
type ContentStore struct {
	q     repository.Querier
	typ   string
	table string
	cols  []string
}

var _ repository.ContentStore = (*ContentStore)(nil)

// NewCommentStore serves the comments table.
func NewCommentStore(db *DB) *ContentStore {
	return &ContentStore{q: db.Pool, typ: "comments", table: "comments", cols: []string{"content"}}
}

// NewMessageStore serves the private_messages table.
func NewMessageStore(db *DB) *ContentStore {
	return &ContentStore{q: db.Pool, typ: "private_messages", table: "private_messages", cols: []string{"content"}}
}

// NewPublicationStore serves the publications table (title and body).
func NewPublicationStore(db *DB) *ContentStore {
	return &ContentStore{q: db.Pool, typ: "publications", table: "publications", cols: []string{"title", "body"}}
}

// Type names the content type in statistics.
func (s *ContentStore) Type() string { return s.typ }

// TextColumns lists the columns carried by ContentRow.Columns.
func (s *ContentStore) TextColumns() []string { return s.cols }

// WithTx returns a copy bound to the transaction.
func (s *ContentStore) WithTx(tx repository.Tx) repository.ContentStore {
	return &ContentStore{q: tx, typ: s.typ, table: s.table, cols: s.cols}
}

// containsFilter is the broad pre-filter: any text column containing the
// handle as a substring, case-insensitive. It overselects on purpose; the
// rewriter re-matches with word boundaries.
func (s *ContentStore) containsFilter(handle string) sq.Or {
	pattern := "%" + handle + "%"
	or := make(sq.Or, 0, len(s.cols))
	for _, c := range s.cols {
		or = append(or, sq.ILike{c: pattern})
	}
	return or
}

// FindCandidates returns rows whose text may mention the handle.
func (s *ContentStore) FindCandidates(ctx context.Context, handle string) ([]repository.ContentRow, error) {
	query, args, err := psql.
		Select(append([]string{"id"}, s.cols...)...).
		From(s.table).
		Where(s.containsFilter(handle)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", s.typ, err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.ContentRow
	for rows.Next() {
		row := repository.ContentRow{Columns: make([]string, len(s.cols))}
		dest := make([]any, 0, len(s.cols)+1)
		dest = append(dest, &row.ID)
		for i := range row.Columns {
			dest = append(dest, &row.Columns[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountCandidates is the read-only companion to FindCandidates.
func (s *ContentStore) CountCandidates(ctx context.Context, handle string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From(s.table).
		Where(s.containsFilter(handle)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build query: %w", s.typ, err)
	}
	var n int
	if err := s.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateColumns writes the changed columns of one row in a single statement.
func (s *ContentStore) UpdateColumns(ctx context.Context, id uuid.UUID, changed map[string]string) error {
	if len(changed) == 0 {
		return nil
	}
	set := make(map[string]any, len(changed))
	for c, v := range changed {
		set[c] = v
	}
	query, args, err := psql.
		Update(s.table).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: build update: %w", s.typ, err)
	}
	_, err = s.q.Exec(ctx, query, args...)
	return err
}
