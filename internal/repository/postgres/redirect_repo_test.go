package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
)

func TestRedirectRepo_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRedirectRepo(db)

	now := time.Now()
	rule := model.RedirectRule{
		OldPath:   "/pagina/alice",
		NewPath:   "/pagina/bob",
		Kind:      model.RedirectPermanent,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}

	mock.ExpectExec(`INSERT INTO redirects \(old_path, new_path, kind, created_at, expires_at\)`).
		WithArgs(rule.OldPath, rule.NewPath, "permanent", rule.CreatedAt, rule.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Upsert(context.Background(), rule))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectRepo_DeleteExpired(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRedirectRepo(db)

	now := time.Now()
	mock.ExpectExec(`DELETE FROM redirects WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := r.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestRedirectRepo_CountByPathContains(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRedirectRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM redirects WHERE old_path LIKE \$1 OR new_path LIKE \$1`).
		WithArgs("%/alice%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	n, err := r.CountByPathContains(context.Background(), "/alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
