// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is the canonical identity record. The handle is the unique public
// username; it changes only through the rename service.
type User struct {
	ID          uuid.UUID // PK
	Handle      string    // unique, column "username"
	DisplayName string
	CreatedAt   time.Time
}

// RedirectKind selects between permanent and temporary redirects.
type RedirectKind string

const (
	RedirectPermanent RedirectKind = "permanent"
	RedirectTemporary RedirectKind = "temporary"
)

// RedirectRule maps an old URL path to a new one after a rename.
// Keyed by OldPath; a re-rename overwrites the previous rule.
type RedirectRule struct {
	OldPath   string
	NewPath   string
	Kind      RedirectKind
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RowError records a single failed row write during a content rewrite.
type RowError struct {
	ContentType string    `json:"content_type"`
	RowID       uuid.UUID `json:"row_id"`
	Err         string    `json:"error"`
}

// ContentTypeStats is the found/updated breakdown for one content type.
type ContentTypeStats struct {
	Found   int `json:"found"`
	Updated int `json:"updated"`
}

// ContentUpdateStats aggregates the outcome of one rewrite pass over all
// content types. Found counts every pre-filtered row; Updated only rows
// whose text actually changed (or would change, in dry-run mode).
type ContentUpdateStats struct {
	Found   int                          `json:"found"`
	Updated int                          `json:"updated"`
	ByType  map[string]*ContentTypeStats `json:"by_type"`
	Errors  []RowError                   `json:"errors,omitempty"`
	DryRun  bool                         `json:"dry_run"`
}

// InvalidationResult reports what a cache invalidation pass did (or, in
// dry-run mode, would do). InvalidatedKeys is computed from a snapshot of
// the cache taken before invalidating, so it is populated either way.
type InvalidationResult struct {
	Patterns        []string `json:"patterns"`
	InvalidatedKeys []string `json:"invalidated_keys"`
	EntriesCreated  int      `json:"entries_created"`
	Errors          []string `json:"errors,omitempty"`
	DryRun          bool     `json:"dry_run"`
}

// RenameOptions are the flags accepted by the rename orchestrator.
type RenameOptions struct {
	DryRun                bool
	SkipContentUpdate     bool
	SkipCacheInvalidation bool
	SkipRedirects         bool
	PreserveUserID        bool
}

// RenameResult is the aggregated outcome of one rename call.
type RenameResult struct {
	Success           bool                `json:"success"`
	UserID            uuid.UUID           `json:"user_id"`
	OldHandle         string              `json:"old_handle"`
	NewHandle         string              `json:"new_handle"`
	ContentUpdate     *ContentUpdateStats `json:"content_update,omitempty"`
	Invalidation      *InvalidationResult `json:"cache_invalidation,omitempty"`
	RedirectsCreated  int                 `json:"redirects_created"`
	Errors            []string            `json:"errors,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
	RollbackPerformed bool                `json:"rollback_performed"`
	Duration          time.Duration       `json:"duration_ns"`
}

// RenamePreview is the read-only projection of a rename: reference counts,
// affected cache keys and whether validation would let the rename proceed.
type RenamePreview struct {
	UserID          uuid.UUID      `json:"user_id"`
	CurrentHandle   string         `json:"current_handle"`
	NewHandle       string         `json:"new_handle"`
	CanProceed      bool           `json:"can_proceed"`
	References      map[string]int `json:"references"`
	TotalReferences int            `json:"total_references"`
	CacheKeys       []string       `json:"cache_keys,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
}
