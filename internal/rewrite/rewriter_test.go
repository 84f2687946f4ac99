package rewrite

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/errs"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository"
)

type fakeStore struct {
	typ     string
	cols    []string
	rows    []repository.ContentRow
	findErr error
	failID  uuid.UUID
	updates map[uuid.UUID]map[string]string
	counted int
}

var _ repository.ContentStore = (*fakeStore)(nil)

func newFakeStore(typ string, cols ...string) *fakeStore {
	return &fakeStore{typ: typ, cols: cols, updates: make(map[uuid.UUID]map[string]string)}
}

func (f *fakeStore) Type() string                            { return f.typ }
func (f *fakeStore) TextColumns() []string                   { return f.cols }
func (f *fakeStore) WithTx(repository.Tx) repository.ContentStore { return f }

func (f *fakeStore) FindCandidates(context.Context, string) ([]repository.ContentRow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.rows, nil
}

func (f *fakeStore) CountCandidates(context.Context, string) (int, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	return f.counted, nil
}

func (f *fakeStore) UpdateColumns(_ context.Context, id uuid.UUID, changed map[string]string) error {
	if id == f.failID {
		return errors.New("write refused")
	}
	f.updates[id] = changed
	return nil
}

func row(id uuid.UUID, cols ...string) repository.ContentRow {
	return repository.ContentRow{ID: id, Columns: cols}
}

func TestUpdateReferences_RewritesAllPatterns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mention := uuid.Must(uuid.NewV4())
	falsePositive := uuid.Must(uuid.NewV4())

	comments := newFakeStore("comments", "content")
	comments.rows = []repository.ContentRow{
		row(mention, "hello @alice check /pagina/alice out alice"),
		row(falsePositive, "malice only"),
	}

	rw := New(zap.NewNop(), comments)
	stats, err := rw.UpdateReferences(ctx, nil, "alice", "bob", Options{})
	require.NoError(t, err)

	require.Equal(t, 2, stats.Found)
	require.Equal(t, 1, stats.Updated)
	require.Equal(t, 2, stats.ByType["comments"].Found)
	require.Equal(t, 1, stats.ByType["comments"].Updated)
	require.Equal(t,
		map[string]string{"content": "hello @bob check /pagina/bob out bob"},
		comments.updates[mention])
	require.NotContains(t, comments.updates, falsePositive)
}

func TestUpdateReferences_CaseInsensitiveByDefault(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	comments := newFakeStore("comments", "content")
	comments.rows = []repository.ContentRow{row(id, "Hi @Alice!")}

	rw := New(zap.NewNop(), comments)
	stats, err := rw.UpdateReferences(context.Background(), nil, "alice", "bob", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Updated)
	require.Equal(t, map[string]string{"content": "Hi @bob!"}, comments.updates[id])

	comments2 := newFakeStore("comments", "content")
	comments2.rows = []repository.ContentRow{row(id, "Hi @Alice!")}
	rw2 := New(zap.NewNop(), comments2)
	stats, err = rw2.UpdateReferences(context.Background(), nil, "alice", "bob", Options{CaseSensitive: true})
	require.NoError(t, err)
	require.Equal(t, 0, stats.Updated)
	require.Empty(t, comments2.updates)
}

func TestUpdateReferences_MultiColumnSingleUpdate(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	pubs := newFakeStore("publications", "title", "body")
	pubs.rows = []repository.ContentRow{row(id, "alice's page", "see /pagina/alice")}

	rw := New(zap.NewNop(), pubs)
	stats, err := rw.UpdateReferences(context.Background(), nil, "alice", "bob", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Updated)
	require.Equal(t, map[string]string{
		"title": "bob's page",
		"body":  "see /pagina/bob",
	}, pubs.updates[id])
}

func TestUpdateReferences_Validation(t *testing.T) {
	t.Parallel()
	comments := newFakeStore("comments", "content")
	rw := New(zap.NewNop(), comments)

	var ve *errs.ValidationError
	for _, pair := range [][2]string{
		{"ab", "cdef"},
		{"alice", "alice"},
		{"alice", "al!ce"},
		{"", "bob"},
	} {
		_, err := rw.UpdateReferences(context.Background(), nil, pair[0], pair[1], Options{})
		require.ErrorAs(t, err, &ve, "pair %v", pair)
	}
	require.Empty(t, comments.updates)
}

func TestUpdateReferences_DryRunNeverWrites(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	comments := newFakeStore("comments", "content")
	comments.rows = []repository.ContentRow{row(id, "hi @alice")}

	rw := New(zap.NewNop(), comments)
	stats, err := rw.UpdateReferences(context.Background(), nil, "alice", "bob", Options{DryRun: true})
	require.NoError(t, err)
	require.True(t, stats.DryRun)
	require.Equal(t, 1, stats.Found)
	require.Equal(t, 1, stats.Updated, "dry run still reports would-be updates")
	require.Empty(t, comments.updates)
}

func TestUpdateReferences_RowFailureContinues(t *testing.T) {
	t.Parallel()
	bad := uuid.Must(uuid.NewV4())
	good := uuid.Must(uuid.NewV4())
	comments := newFakeStore("comments", "content")
	comments.rows = []repository.ContentRow{
		row(bad, "hi @alice"),
		row(good, "bye @alice"),
	}
	comments.failID = bad

	rw := New(zap.NewNop(), comments)
	stats, err := rw.UpdateReferences(context.Background(), nil, "alice", "bob", Options{})

	var ue *UpdateError
	require.ErrorAs(t, err, &ue)
	require.Len(t, stats.Errors, 1)
	require.Equal(t, "comments", stats.Errors[0].ContentType)
	require.Equal(t, bad, stats.Errors[0].RowID)
	require.Equal(t, 1, stats.Updated, "remaining rows must still be written")
	require.Contains(t, comments.updates, good)
}

func TestUpdateReferences_StoreFailureDoesNotSkipOthers(t *testing.T) {
	t.Parallel()
	comments := newFakeStore("comments", "content")
	comments.findErr = errors.New("table gone")

	id := uuid.Must(uuid.NewV4())
	messages := newFakeStore("private_messages", "content")
	messages.rows = []repository.ContentRow{row(id, "ping @alice")}

	rw := New(zap.NewNop(), comments, messages)
	stats, err := rw.UpdateReferences(context.Background(), nil, "alice", "bob", Options{})

	var ue *UpdateError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, 1, stats.Updated)
	require.Contains(t, messages.updates, id)
}

func TestCountReferences(t *testing.T) {
	t.Parallel()
	comments := newFakeStore("comments", "content")
	comments.counted = 2
	pubs := newFakeStore("publications", "title", "body")
	pubs.counted = 1

	rw := New(zap.NewNop(), comments, pubs)
	byType, total, err := rw.CountReferences(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, map[string]int{"comments": 2, "publications": 1}, byType)

	_, _, err = rw.CountReferences(context.Background(), "a!")
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
}
