package repository

import (
	"context"
	"time"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
)

// RedirectRepository stores URL redirect rules created by renames. Writes
// run outside the rename transaction: redirect creation is best-effort and
// a failed statement must not poison the open transaction.
type RedirectRepository interface {
	// Upsert inserts the rule or replaces the one with the same old path.
	Upsert(ctx context.Context, rule model.RedirectRule) error

	// DeleteExpired removes rules whose expiry has passed and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountByPathContains counts rules whose old or new path contains the substring.
	CountByPathContains(ctx context.Context, s string) (int64, error)
}
