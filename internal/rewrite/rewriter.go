// Package rewrite finds and rewrites textual handle mentions across the
// content tables (comments, private messages, publications).
package rewrite

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/handle"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
)

// Options control one rewrite pass.
type Options struct {
	// DryRun finds and counts but never writes.
	DryRun bool
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// UpdateError reports that one or more rows could not be rewritten. The
// scan still covered every content type; Stats carries the full outcome.
type UpdateError struct {
	Stats *model.ContentUpdateStats
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("content update: %d row(s) failed", len(e.Stats.Errors))
}

// pass is one find-and-replace pattern over a candidate string.
type pass struct {
	re   *regexp.Regexp
	repl string
}

// passes builds the fixed pattern set, applied in this order: @mention,
// profile path, bare word. Each earlier pass consumes its context so the
// bare-word pass only sees remaining standalone mentions.
func passes(oldHandle, newHandle string, caseSensitive bool) []pass {
	esc := regexp.QuoteMeta(oldHandle)
	flags := "(?i)"
	if caseSensitive {
		flags = ""
	}
	return []pass{
		{regexp.MustCompile(flags + `@` + esc + `\b`), "@" + newHandle},
		{regexp.MustCompile(flags + `/pagina/` + esc + `\b`), "/pagina/" + newHandle},
		{regexp.MustCompile(flags + `\b` + esc + `\b`), newHandle},
	}
}

func applyPasses(text string, ps []pass) string {
	for _, p := range ps {
		text = p.re.ReplaceAllString(text, p.repl)
	}
	return text
}

// Rewriter drives the pattern passes over a set of content stores.
type Rewriter struct {
	stores []repository.ContentStore
	log    *zap.Logger
}

// New constructs a rewriter over the given content stores.
func New(log *zap.Logger, stores ...repository.ContentStore) *Rewriter {
	return &Rewriter{stores: stores, log: log}
}

// UpdateReferences rewrites every mention of oldHandle to newHandle. When
// tx is non-nil all reads and writes run inside it. Per-row write failures
// are recorded and the scan continues; if any occurred, the returned error
// is a *UpdateError carrying the full statistics.
func (rw *Rewriter) UpdateReferences(
	ctx context.Context, tx repository.Tx, oldHandle, newHandle string, opts Options,
) (*model.ContentUpdateStats, error) {
	if err := handle.ValidatePair(oldHandle, newHandle); err != nil {
		return nil, err
	}

	ps := passes(oldHandle, newHandle, opts.CaseSensitive)
	stats := &model.ContentUpdateStats{
		ByType: make(map[string]*model.ContentTypeStats, len(rw.stores)),
		DryRun: opts.DryRun,
	}

	for _, store := range rw.stores {
		if tx != nil {
			store = store.WithTx(tx)
		}
		ts := &model.ContentTypeStats{}
		stats.ByType[store.Type()] = ts

		rows, err := store.FindCandidates(ctx, oldHandle)
		if err != nil {
			// The remaining content types still get their pass.
			stats.Errors = append(stats.Errors, model.RowError{
				ContentType: store.Type(),
				Err:         fmt.Sprintf("find candidates: %v", err),
			})
			continue
		}

		cols := store.TextColumns()
		for _, row := range rows {
			ts.Found++
			stats.Found++

			changed := make(map[string]string)
			for i, val := range row.Columns {
				if out := applyPasses(val, ps); out != val {
					changed[cols[i]] = out
				}
			}
			if len(changed) == 0 {
				// Pre-filter false positive; found but not updated.
				continue
			}
			if !opts.DryRun {
				if err := store.UpdateColumns(ctx, row.ID, changed); err != nil {
					rw.log.Warn("content row update failed",
						zap.String("content_type", store.Type()),
						zap.String("row_id", row.ID.String()),
						zap.Error(err),
					)
					stats.Errors = append(stats.Errors, model.RowError{
						ContentType: store.Type(),
						RowID:       row.ID,
						Err:         err.Error(),
					})
					continue
				}
			}
			ts.Updated++
			stats.Updated++
		}
	}

	if len(stats.Errors) > 0 {
		return stats, &UpdateError{Stats: stats}
	}
	return stats, nil
}

// CountReferences returns the per-content-type candidate counts for a
// handle without touching anything. The counts use the same broad
// pre-filter as UpdateReferences, so they are an upper bound.
func (rw *Rewriter) CountReferences(ctx context.Context, h string) (map[string]int, int, error) {
	if err := handle.Validate(h); err != nil {
		return nil, 0, err
	}
	byType := make(map[string]int, len(rw.stores))
	total := 0
	for _, store := range rw.stores {
		n, err := store.CountCandidates(ctx, h)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: count candidates: %w", store.Type(), err)
		}
		byType[store.Type()] = n
		total += n
	}
	return byType, total, nil
}
