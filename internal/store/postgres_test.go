package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
)

// anyArgs builds n pgxmock.AnyArg matchers; pgxmock requires the expected
// argument count to match even when the values are irrelevant.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func pgFieldRow(mock pgxmock.PgxPoolIface, id string) *pgxmock.Rows {
	now := time.Now().UTC()
	return mock.NewRows([]string{
		"id", "document_id", "page_number", "field_index", "label", "field_type",
		"left_pct", "top_pct", "width_pct", "height_pct", "value", "ai_suggested_value",
		"confidence_score", "detection_source", "manually_adjusted", "choice_options",
		"deleted_at", "created_at", "updated_at",
	}).AddRow(
		id, "doc-1", 1, 1, "First Name", "text",
		10.0, 20.0, 30.0, 4.0, (*string)(nil), (*string)(nil),
		(*float64)(nil), "initial", false, []byte(nil),
		(*time.Time)(nil), now, now,
	)
}

func TestPostgresStore_CreateField(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO fields").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	f, err := s.CreateField(context.Background(), model.FieldSpec{
		DocumentID:  "doc-1",
		PageNumber:  1,
		Label:       "First Name",
		Type:        model.FieldText,
		Coordinates: model.Coordinates{Left: 10, Top: 20, Width: 30, Height: 4},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, model.SourceInitial, f.DetectionSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateField_InvalidSpec(t *testing.T) {
	s, mock := newMockPostgres(t)

	_, err := s.CreateField(context.Background(), model.FieldSpec{
		DocumentID: "doc-1",
		PageNumber: 0,
		Type:       model.FieldText,
	})
	assert.True(t, eris.Is(err, model.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetField(t *testing.T) {
	s, mock := newMockPostgres(t)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM fields WHERE id = \\$1 AND deleted_at IS NULL").
			WithArgs("f-1").
			WillReturnRows(pgFieldRow(mock, "f-1"))

		f, err := s.GetField(context.Background(), "f-1")
		require.NoError(t, err)
		assert.Equal(t, "First Name", f.Label)
		assert.False(t, f.ManuallyAdjusted)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM fields").
			WithArgs("missing").
			WillReturnRows(mock.NewRows([]string{"id"}))

		_, err := s.GetField(context.Background(), "missing")
		assert.True(t, eris.Is(err, ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateQuestion_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE questions SET").
		WithArgs(anyArgs(3)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	answered := model.QuestionAnswered
	_, err := s.UpdateQuestion(context.Background(), "missing", model.QuestionPatch{Status: &answered})
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SoftDeleteField_RollsBackOnCascadeError(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM fields WHERE id = \\$1").
		WithArgs("f-1").
		WillReturnRows(pgFieldRow(mock, "f-1"))
	mock.ExpectExec("UPDATE fields SET deleted_at").
		WithArgs(anyArgs(2)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("SELECT id, field_ids FROM questions").
		WithArgs("doc-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.SoftDeleteField(context.Background(), "f-1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyMergeBatch_Commits(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(field_index\\), 0\\) FROM fields").
		WithArgs("doc-1", 1).
		WillReturnRows(mock.NewRows([]string{"coalesce"}).AddRow(4))
	mock.ExpectExec("INSERT INTO fields").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	report, err := s.ApplyMergeBatch(context.Background(), "doc-1", 1, []model.MergeDecision{
		{Kind: model.DecisionAdd, Candidate: &model.CandidateField{
			Label: "Fax", Type: model.FieldText,
			Coordinates: model.Coordinates{Left: 10, Top: 60, Width: 30, Height: 4},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FieldsAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddDeadLetter(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO dead_letters").
		WithArgs(anyArgs(10)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AddDeadLetter(context.Background(), resilience.DeadLetter{
		DocumentID: "doc-1",
		QuestionID: "q-1",
		Answer:     "Jane Smith",
		Error:      "reasoner timeout",
		ErrorType:  "transient",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
