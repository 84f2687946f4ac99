package postgres

import (
	"context"
	"time"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
)

// RedirectRepo implements RedirectRepository using PostgreSQL.
type RedirectRepo struct{ q repository.Querier }

var _ repository.RedirectRepository = (*RedirectRepo)(nil)

// NewRedirectRepo constructs a redirect repository.
func NewRedirectRepo(db *DB) *RedirectRepo { return &RedirectRepo{q: db.Pool} }

// Upsert inserts the rule or replaces the one with the same old path.
func (r *RedirectRepo) Upsert(ctx context.Context, rule model.RedirectRule) error {
	const q = `
INSERT INTO redirects (old_path, new_path, kind, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (old_path) DO UPDATE
SET new_path=EXCLUDED.new_path, kind=EXCLUDED.kind,
    created_at=EXCLUDED.created_at, expires_at=EXCLUDED.expires_at`
	_, err := r.q.Exec(ctx, q, rule.OldPath, rule.NewPath, string(rule.Kind), rule.CreatedAt, rule.ExpiresAt)
	return err
}

// DeleteExpired removes rules whose expiry has passed and returns the count.
func (r *RedirectRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM redirects WHERE expires_at <= $1`
	tag, err := r.q.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountByPathContains counts rules whose old or new path contains the
// substring. Renames leave the user's current handle in new_path and any
// former handles in old_path, so both sides count.
func (r *RedirectRepo) CountByPathContains(ctx context.Context, s string) (int64, error) {
	const q = `SELECT COUNT(*) FROM redirects WHERE old_path LIKE $1 OR new_path LIKE $1`
	var n int64
	if err := r.q.QueryRow(ctx, q, "%"+s+"%").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
