package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
)

// UserRepository provides access to canonical identity records.
type UserRepository interface {
	// GetByID returns the user with the given id, or errs.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByHandle returns the user owning the handle, or errs.ErrNotFound.
	GetByHandle(ctx context.Context, handle string) (*model.User, error)

	// UpdateHandle changes the user's handle. Returns errs.ErrHandleTaken on
	// a unique violation and errs.ErrNotFound if the id does not exist.
	UpdateHandle(ctx context.Context, id uuid.UUID, handle string) error

	// WithTx returns a copy of the repository bound to the transaction.
	WithTx(tx Tx) UserRepository
}
