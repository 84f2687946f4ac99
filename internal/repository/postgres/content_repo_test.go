package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestCommentStore_FindCandidates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewCommentStore(db)

	id1 := uuid.Must(uuid.NewV4())
	id2 := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT id, content FROM comments WHERE \(content ILIKE \$1\) ORDER BY id`).
		WithArgs("%alice%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "content"}).
			AddRow(id1, "hi @alice").
			AddRow(id2, "unrelated alice-adjacent malice"))

	rows, err := s.FindCandidates(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, id1, rows[0].ID)
	require.Equal(t, []string{"hi @alice"}, rows[0].Columns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationStore_FindCandidates_TwoColumns(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewPublicationStore(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT id, title, body FROM publications WHERE \(title ILIKE \$1 OR body ILIKE \$2\) ORDER BY id`).
		WithArgs("%alice%", "%alice%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "body"}).
			AddRow(id, "alice's page", "nothing here"))

	rows, err := s.FindCandidates(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"alice's page", "nothing here"}, rows[0].Columns)
}

func TestContentStore_CountCandidates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewMessageStore(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM private_messages WHERE \(content ILIKE \$1\)`).
		WithArgs("%alice%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.CountCandidates(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestContentStore_UpdateColumns_Partial(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewPublicationStore(db)

	id := uuid.Must(uuid.NewV4())
	// SetMap emits columns in sorted order: body before title.
	mock.ExpectExec(`UPDATE publications SET body = \$1, title = \$2 WHERE id = \$3`).
		WithArgs("new body", "new title", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateColumns(context.Background(), id, map[string]string{
		"title": "new title",
		"body":  "new body",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentStore_UpdateColumns_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewCommentStore(db)

	// No statement expected.
	require.NoError(t, s.UpdateColumns(context.Background(), uuid.Must(uuid.NewV4()), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
