// Package invalidation translates a handle rename into the concrete set of
// cache key patterns to invalidate, and optionally seeds fresh entries for
// the new handle. It is also the idiomatic entry point for cache access in
// the rest of the application.
package invalidation

import (
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/cache"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
)

// Handle-keyed cache categories swept on every rename.
var handleCategories = []string{
	"profile", "pages", "comments", "stats", "prefs", "sessions", "activity",
}

// Categories additionally keyed by user id.
var idCategories = []string{"profile", "stats", "sessions"}

// Options control one invalidation pass.
type Options struct {
	// DryRun reports what would be invalidated without touching the cache.
	DryRun bool
	// PreserveUserID keeps entries keyed by user id.
	PreserveUserID bool
	// CreateNewEntries seeds a profile snapshot and zeroed stats for the
	// new handle (requires the identity record; skipped in dry runs).
	CreateNewEntries bool
	// ExtraPatterns are appended verbatim to the generated catalogue.
	ExtraPatterns []string
}

// Error wraps an invalidation failure together with the partial result
// accumulated before the failure.
type Error struct {
	Result *model.InvalidationResult
	Cause  error
}

func (e *Error) Error() string { return "cache invalidation: " + e.Cause.Error() }
func (e *Error) Unwrap() error { return e.Cause }

// Coordinator owns the rename-to-patterns mapping over a shared cache
// instance injected by the composition root.
type Coordinator struct {
	cache *cache.Cache
	log   *zap.Logger
}

// New constructs a coordinator over the shared cache.
func New(c *cache.Cache, log *zap.Logger) *Coordinator {
	return &Coordinator{cache: c, log: log}
}

// Patterns returns the fixed key-pattern catalogue for a rename.
func Patterns(oldHandle string, userID uuid.UUID, opts Options) []string {
	out := make([]string, 0, len(handleCategories)+len(idCategories)+3+len(opts.ExtraPatterns))
	for _, c := range handleCategories {
		out = append(out, "user:"+c+":"+oldHandle)
	}
	if !opts.PreserveUserID {
		for _, c := range idCategories {
			out = append(out, "user:"+c+":id:"+userID.String())
		}
	}
	out = append(out,
		"*"+oldHandle+"*",
		"pages:by:"+oldHandle+":*",
		"comments:by:"+oldHandle+":*",
	)
	out = append(out, opts.ExtraPatterns...)
	return out
}

// InvalidateForRename sweeps the pattern catalogue for oldHandle. The
// invalidated-keys list is computed from a snapshot taken before the sweep,
// so dry-run output matches what a live run against the same state removes.
// Seeding failures are non-fatal; any other failure returns *Error carrying
// the partial result.
func (co *Coordinator) InvalidateForRename(
	oldHandle, newHandle string, userID uuid.UUID, identity *model.User, opts Options,
) (res *model.InvalidationResult, err error) {
	res = &model.InvalidationResult{DryRun: opts.DryRun}
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Result: res, Cause: fmt.Errorf("%v", r)}
		}
	}()

	res.Patterns = Patterns(oldHandle, userID, opts)

	snapshot := co.cache.Keys()
	matched := make(map[string]struct{})
	for _, p := range res.Patterns {
		for _, k := range snapshot {
			if cache.Match(p, k) {
				matched[k] = struct{}{}
			}
		}
		if !opts.DryRun {
			co.cache.InvalidatePattern(p)
		}
	}
	for k := range matched {
		res.InvalidatedKeys = append(res.InvalidatedKeys, k)
	}
	sort.Strings(res.InvalidatedKeys)

	if opts.CreateNewEntries && !opts.DryRun {
		if identity == nil {
			res.Errors = append(res.Errors, "seeding skipped: no identity record supplied")
		} else {
			co.seed(newHandle, identity, res)
		}
	}
	return res, nil
}

// seed pre-populates a minimal profile snapshot and a zeroed stats record
// for the new handle. Best effort: a failure is recorded, never returned.
func (co *Coordinator) seed(newHandle string, identity *model.User, res *model.InvalidationResult) {
	defer func() {
		if r := recover(); r != nil {
			co.log.Warn("cache seeding failed", zap.String("handle", newHandle), zap.Any("reason", r))
			res.Errors = append(res.Errors, fmt.Sprintf("seeding: %v", r))
		}
	}()

	profile := map[string]any{
		"id":           identity.ID.String(),
		"username":     newHandle,
		"display_name": identity.DisplayName,
		"cached_at":    time.Now().UTC(),
	}
	co.cache.Set("user:profile:"+newHandle, profile, 0)

	stats := map[string]int{"pages": 0, "comments": 0, "publications": 0}
	co.cache.Set("user:stats:"+newHandle, stats, 0)

	res.EntriesCreated = 2
}

// Stats passes through to the cache snapshot.
func (co *Coordinator) Stats() cache.Stats { return co.cache.Stats() }

// ClearAll flushes the whole cache. Administrative use only.
func (co *Coordinator) ClearAll() { co.cache.Clear() }

// Get reads a cache entry; used by unrelated read paths.
func (co *Coordinator) Get(key string) (any, bool) { return co.cache.Get(key) }

// Set stores a cache entry under the given TTL (0 means default).
func (co *Coordinator) Set(key string, value any, ttl time.Duration) {
	co.cache.Set(key, value, ttl)
}

// Has reports whether key is present and unexpired.
func (co *Coordinator) Has(key string) bool { return co.cache.Has(key) }
