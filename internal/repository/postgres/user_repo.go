package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/errs"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ q repository.Querier }

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository running against the pool.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{q: db.Pool} }

// WithTx returns a copy bound to the transaction.
func (r *UserRepo) WithTx(tx repository.Tx) repository.UserRepository {
	return &UserRepo{q: tx}
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, username, display_name, created_at
FROM users WHERE id=$1`
	row := r.q.QueryRow(ctx, q, id)
	var u model.User
	if err := row.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByHandle selects a user by handle (username).
func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	const q = `
SELECT id, username, display_name, created_at
FROM users WHERE username=$1`
	row := r.q.QueryRow(ctx, q, handle)
	var u model.User
	if err := row.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateHandle changes the user's handle. The unique index on username is
// the backstop for concurrent renames converging on the same handle.
func (r *UserRepo) UpdateHandle(ctx context.Context, id uuid.UUID, handle string) error {
	const q = `UPDATE users SET username=$2 WHERE id=$1`
	tag, err := r.q.Exec(ctx, q, id, handle)
	if isUniqueViolation(err) {
		return errs.ErrHandleTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
