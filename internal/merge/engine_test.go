package merge

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// fakeDetector returns canned candidates per page. Pages are detected
// concurrently, so call tracking takes the lock.
type fakeDetector struct {
	mu     sync.Mutex
	byPage map[int][]model.CandidateField
	errs   map[int]error
	calls  []int
}

func (d *fakeDetector) DetectFields(_ context.Context, req reasoning.DetectRequest) ([]model.CandidateField, error) {
	d.mu.Lock()
	d.calls = append(d.calls, req.PageNumber)
	d.mu.Unlock()
	if err := d.errs[req.PageNumber]; err != nil {
		return nil, err
	}
	return d.byPage[req.PageNumber], nil
}

func newMergeTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "merge.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func pageImage(page int) PageImage {
	return PageImage{PageNumber: page, Image: reasoning.Image{MediaType: "image/png", Data: "aGVsbG8="}}
}

func createPageField(t *testing.T, s *store.SQLiteStore, documentID string, page int, label string, c model.Coordinates) *model.Field {
	t.Helper()
	f, err := s.CreateField(context.Background(), model.FieldSpec{
		DocumentID:  documentID,
		PageNumber:  page,
		Label:       label,
		Type:        model.FieldText,
		Coordinates: c,
	})
	require.NoError(t, err)
	return f
}

func TestEngine_Run_PageScoping(t *testing.T) {
	s := newMergeTestStore(t)
	ctx := context.Background()

	// Page 1 has a stale field the pass will not re-detect; page 2 has a
	// field the pass never examines.
	createPageField(t, s, "doc-1", 1, "Stale", box(10, 20, 30, 4))
	pageTwoField := createPageField(t, s, "doc-1", 2, "Untouched", box(10, 20, 30, 4))

	detector := &fakeDetector{byPage: map[int][]model.CandidateField{
		1: {candidate("Fresh", box(10, 60, 30, 4))},
	}}
	engine := New(s, detector, testMergeConfig())

	report, err := engine.Run(ctx, "doc-1", []PageImage{pageImage(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FieldsAdded)
	assert.Equal(t, 1, report.FieldsRemoved)
	assert.Empty(t, report.PagesSkipped)

	// The page-2 field survived a merge restricted to page 1.
	got, err := s.GetField(ctx, pageTwoField.ID)
	require.NoError(t, err)
	assert.Equal(t, "Untouched", got.Label)

	pageOne, err := s.ListFields(ctx, "doc-1", 1)
	require.NoError(t, err)
	require.Len(t, pageOne, 1)
	assert.Equal(t, "Fresh", pageOne[0].Label)
	assert.Equal(t, model.SourceMerge, pageOne[0].DetectionSource)
}

func TestEngine_Run_IdempotentSecondPass(t *testing.T) {
	s := newMergeTestStore(t)
	ctx := context.Background()

	createPageField(t, s, "doc-2", 1, "Name", box(10, 20, 30, 4))
	detector := &fakeDetector{byPage: map[int][]model.CandidateField{
		1: {candidate("Name", box(10, 20, 30, 4))},
	}}
	engine := New(s, detector, testMergeConfig())

	for i := 0; i < 2; i++ {
		report, err := engine.Run(ctx, "doc-2", []PageImage{pageImage(1)})
		require.NoError(t, err)
		assert.Zero(t, report.FieldsAdded)
		assert.Zero(t, report.FieldsAdjusted)
		assert.Zero(t, report.FieldsRemoved)
	}

	fields, err := s.ListFields(ctx, "doc-2")
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestEngine_Run_FailedPageIsSkipped(t *testing.T) {
	s := newMergeTestStore(t)
	ctx := context.Background()

	pageTwoStale := createPageField(t, s, "doc-3", 2, "WouldDrop", box(10, 20, 30, 4))

	detector := &fakeDetector{
		byPage: map[int][]model.CandidateField{
			1: {candidate("Added", box(10, 60, 30, 4))},
		},
		errs: map[int]error{2: eris.New("render failed")},
	}
	engine := New(s, detector, testMergeConfig())

	report, err := engine.Run(ctx, "doc-3", []PageImage{pageImage(1), pageImage(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FieldsAdded)
	assert.Zero(t, report.FieldsRemoved)
	assert.Equal(t, []int{2}, report.PagesSkipped)

	// The failed page's fields were left alone.
	_, err = s.GetField(ctx, pageTwoStale.ID)
	assert.NoError(t, err)
}

func TestEngine_Run_StoreReadFailureAborts(t *testing.T) {
	s := newMergeTestStore(t)

	detector := &fakeDetector{byPage: map[int][]model.CandidateField{
		1: {candidate("Name", box(10, 20, 30, 4))},
	}}
	engine := New(s, detector, testMergeConfig())

	// A failing store read is not a page problem: the run must abort rather
	// than report the page as skipped.
	require.NoError(t, s.Close())
	report, err := engine.Run(context.Background(), "doc-5", []PageImage{pageImage(1)})
	require.Error(t, err)
	assert.Empty(t, report.PagesSkipped)
}

func TestEngine_Run_Validation(t *testing.T) {
	s := newMergeTestStore(t)
	engine := New(s, &fakeDetector{}, testMergeConfig())

	_, err := engine.Run(context.Background(), "", []PageImage{pageImage(1)})
	assert.True(t, eris.Is(err, model.ErrValidation))

	report, err := engine.Run(context.Background(), "doc-x", nil)
	require.NoError(t, err)
	assert.Zero(t, report.FieldsAdded)
}

func TestEngine_Run_ManualFieldSurvivesMerge(t *testing.T) {
	s := newMergeTestStore(t)
	ctx := context.Background()

	f := createPageField(t, s, "doc-4", 1, "Moved By User", box(50, 50, 20, 4))
	adjusted := true
	_, err := s.UpdateField(ctx, f.ID, model.FieldPatch{ManuallyAdjusted: &adjusted})
	require.NoError(t, err)

	// Detector sees nothing where the user put the field.
	detector := &fakeDetector{byPage: map[int][]model.CandidateField{1: nil}}
	engine := New(s, detector, testMergeConfig())

	report, err := engine.Run(ctx, "doc-4", []PageImage{pageImage(1)})
	require.NoError(t, err)
	assert.Zero(t, report.FieldsRemoved)

	got, err := s.GetField(ctx, f.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, got.Coordinates.Left, 1e-9)
}
