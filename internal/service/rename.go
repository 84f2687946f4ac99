// Package service contains the rename orchestrator: one username change
// end-to-end, with all-or-nothing semantics for the data-integrity-critical
// steps and best-effort semantics for redirects.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/cache"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/errs"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/handle"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/invalidation"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/rewrite"
)

// DefaultRedirectTTL is the forward expiry horizon for redirect rules.
const DefaultRedirectTTL = 30 * 24 * time.Hour

// ContentRewriter is the rewrite engine the orchestrator drives.
type ContentRewriter interface {
	UpdateReferences(ctx context.Context, tx repository.Tx, oldHandle, newHandle string, opts rewrite.Options) (*model.ContentUpdateStats, error)
	CountReferences(ctx context.Context, handle string) (map[string]int, int, error)
}

// Invalidator is the cache invalidation coordinator the orchestrator drives.
type Invalidator interface {
	InvalidateForRename(oldHandle, newHandle string, userID uuid.UUID, identity *model.User, opts invalidation.Options) (*model.InvalidationResult, error)
	Stats() cache.Stats
}

// RenameService changes a user's public handle and propagates the change.
type RenameService interface {
	// Rename performs one handle change end-to-end. The result is always
	// non-nil; on failure the error describes the fatal step.
	Rename(ctx context.Context, userID uuid.UUID, newHandle string, opts model.RenameOptions) (*model.RenameResult, error)
	// Preview computes the effects of a rename without mutating anything.
	Preview(ctx context.Context, userID uuid.UUID, newHandle string) (*model.RenamePreview, error)
	// RedirectStats counts redirect rules referencing the user's handle.
	RedirectStats(ctx context.Context, userID uuid.UUID) (int64, error)
	// CleanupExpiredRedirects removes expired redirect rules.
	CleanupExpiredRedirects(ctx context.Context) (int64, error)
}

type RenameServiceImpl struct {
	db          repository.TxStarter
	users       repository.UserRepository
	rewriter    ContentRewriter
	invalidator Invalidator
	redirects   repository.RedirectRepository
	log         *zap.Logger
	redirectTTL time.Duration
	now         func() time.Time
}

// NewRenameService wires the orchestrator. redirectTTL <= 0 selects
// DefaultRedirectTTL.
func NewRenameService(
	db repository.TxStarter,
	users repository.UserRepository,
	rewriter ContentRewriter,
	invalidator Invalidator,
	redirects repository.RedirectRepository,
	log *zap.Logger,
	redirectTTL time.Duration,
) *RenameServiceImpl {
	if redirectTTL <= 0 {
		redirectTTL = DefaultRedirectTTL
	}
	return &RenameServiceImpl{
		db:          db,
		users:       users,
		rewriter:    rewriter,
		invalidator: invalidator,
		redirects:   redirects,
		log:         log,
		redirectTTL: redirectTTL,
		now:         time.Now,
	}
}

// Rename performs the steps of one handle change in fixed order: load,
// no-op check, validate, begin tx (live only), content update, identity
// update with uniqueness re-check, redirect upserts (best effort), cache
// invalidation, commit. Any fatal failure after the transaction opened
// rolls it back; the result records what happened either way.
func (s *RenameServiceImpl) Rename(
	ctx context.Context, userID uuid.UUID, newHandle string, opts model.RenameOptions,
) (*model.RenameResult, error) {
	start := s.now()
	res := &model.RenameResult{UserID: userID, NewHandle: newHandle}
	defer func() { res.Duration = s.now().Sub(start) }()

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("load user: %v", err))
		return res, fmt.Errorf("load user %s: %w", userID, err)
	}
	res.OldHandle = u.Handle

	if newHandle == u.Handle {
		res.Success = true
		res.Warnings = append(res.Warnings, "new handle equals current handle, nothing to do")
		return res, nil
	}

	if err := handle.ValidatePair(u.Handle, newHandle); err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res, err
	}

	var tx repository.Tx
	if !opts.DryRun {
		tx, err = s.db.Begin(ctx)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("begin transaction: %v", err))
			return res, fmt.Errorf("begin transaction: %w", err)
		}
	}

	// fail rolls back (when a transaction is open) and finalizes the result.
	fail := func(stepErr error) (*model.RenameResult, error) {
		res.Errors = append(res.Errors, stepErr.Error())
		if tx != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				// A rollback failure never masks the original error.
				s.log.Error("rollback failed",
					zap.String("user_id", userID.String()),
					zap.Error(rbErr),
				)
				res.Errors = append(res.Errors, fmt.Sprintf("rollback: %v", rbErr))
			} else {
				res.RollbackPerformed = true
			}
		}
		return res, stepErr
	}

	if !opts.SkipContentUpdate {
		stats, err := s.rewriter.UpdateReferences(ctx, tx, u.Handle, newHandle, rewrite.Options{DryRun: opts.DryRun})
		res.ContentUpdate = stats
		if err != nil {
			return fail(fmt.Errorf("content update: %w", err))
		}
	}

	if !opts.DryRun {
		txUsers := s.users.WithTx(tx)
		// Re-check uniqueness under the transaction; the unique index on
		// username remains the backstop for the race this cannot close.
		other, err := txUsers.GetByHandle(ctx, newHandle)
		switch {
		case err == nil && other.ID != userID:
			return fail(fmt.Errorf("handle %q: %w", newHandle, errs.ErrHandleTaken))
		case err != nil && !errors.Is(err, errs.ErrNotFound):
			return fail(fmt.Errorf("handle lookup: %w", err))
		}
		if err := txUsers.UpdateHandle(ctx, userID, newHandle); err != nil {
			return fail(fmt.Errorf("identity update: %w", err))
		}
	}

	if !opts.SkipRedirects && !opts.DryRun {
		s.createRedirects(ctx, u.Handle, newHandle, res)
	}

	if !opts.SkipCacheInvalidation {
		invRes, err := s.invalidator.InvalidateForRename(u.Handle, newHandle, userID, u, invalidation.Options{
			DryRun:           opts.DryRun,
			PreserveUserID:   opts.PreserveUserID,
			CreateNewEntries: true,
		})
		res.Invalidation = invRes
		if err != nil {
			return fail(fmt.Errorf("cache invalidation: %w", err))
		}
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			// The failed commit already released the connection; nothing to
			// roll back.
			res.Errors = append(res.Errors, fmt.Sprintf("commit: %v", err))
			return res, fmt.Errorf("commit: %w", err)
		}
	}

	res.Success = true
	s.log.Info("handle renamed",
		zap.String("user_id", userID.String()),
		zap.String("old_handle", u.Handle),
		zap.String("new_handle", newHandle),
		zap.Bool("dry_run", opts.DryRun),
	)
	return res, nil
}

// createRedirects upserts the two rename redirects. Best effort: failures
// are recorded on the result and never abort the rename. The redirect repo
// runs on its own connection so a failed statement cannot poison the open
// transaction.
func (s *RenameServiceImpl) createRedirects(ctx context.Context, oldHandle, newHandle string, res *model.RenameResult) {
	now := s.now()
	expires := now.Add(s.redirectTTL)
	rules := []model.RedirectRule{
		{OldPath: "/" + oldHandle, NewPath: "/" + newHandle, Kind: model.RedirectPermanent, CreatedAt: now, ExpiresAt: expires},
		{OldPath: "/pagina/" + oldHandle, NewPath: "/pagina/" + newHandle, Kind: model.RedirectPermanent, CreatedAt: now, ExpiresAt: expires},
	}
	for _, rule := range rules {
		if err := s.redirects.Upsert(ctx, rule); err != nil {
			s.log.Warn("redirect creation failed",
				zap.String("old_path", rule.OldPath),
				zap.Error(err),
			)
			res.Errors = append(res.Errors, fmt.Sprintf("redirect creation %s: %v", rule.OldPath, err))
			continue
		}
		res.RedirectsCreated++
	}
}

// Preview computes what a rename would touch: reference counts via the
// read-only counter and currently cached keys related to the user.
// Validation failures are downgraded to warnings; no transaction is opened
// and nothing is written.
func (s *RenameServiceImpl) Preview(ctx context.Context, userID uuid.UUID, newHandle string) (*model.RenamePreview, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	p := &model.RenamePreview{
		UserID:        userID,
		CurrentHandle: u.Handle,
		NewHandle:     newHandle,
		CanProceed:    true,
	}
	if newHandle == u.Handle {
		p.CanProceed = false
		p.Warnings = append(p.Warnings, "new handle equals current handle")
	} else if err := handle.ValidatePair(u.Handle, newHandle); err != nil {
		p.CanProceed = false
		p.Warnings = append(p.Warnings, err.Error())
	}

	byType, total, err := s.rewriter.CountReferences(ctx, u.Handle)
	if err != nil {
		return nil, fmt.Errorf("count references: %w", err)
	}
	p.References = byType
	p.TotalReferences = total

	for _, k := range s.invalidator.Stats().Keys {
		if strings.Contains(k, u.Handle) || strings.Contains(k, userID.String()) {
			p.CacheKeys = append(p.CacheKeys, k)
		}
	}
	sort.Strings(p.CacheKeys)
	return p, nil
}

// RedirectStats returns how many redirect rules reference the user's
// current handle in either path.
func (s *RenameServiceImpl) RedirectStats(ctx context.Context, userID uuid.UUID) (int64, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user %s: %w", userID, err)
	}
	return s.redirects.CountByPathContains(ctx, "/"+u.Handle)
}

// CleanupExpiredRedirects deletes all redirect rules whose expiry has
// passed and returns the count removed.
func (s *RenameServiceImpl) CleanupExpiredRedirects(ctx context.Context) (int64, error) {
	return s.redirects.DeleteExpired(ctx, s.now())
}
