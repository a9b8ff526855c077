package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
)

// ErrNotFound is returned when a referenced field or question does not exist
// or is soft-deleted.
var ErrNotFound = eris.New("not found")

// Store defines the persistence interface for fields, questions and
// reconciliation dead letters. All mutations are single-row conditional
// updates: soft-deleted rows are invisible to every operation, and a zero
// rows-affected result surfaces as ErrNotFound.
type Store interface {
	// Fields
	CreateField(ctx context.Context, spec model.FieldSpec) (*model.Field, error)
	CreateFields(ctx context.Context, specs []model.FieldSpec) ([]model.Field, error)
	GetField(ctx context.Context, id string) (*model.Field, error)
	// UpdateField is the only field mutation path: coordinates in the patch
	// are clamped to the page and validated before the write.
	UpdateField(ctx context.Context, id string, patch model.FieldPatch) (*model.Field, error)
	// SoftDeleteField marks the field deleted and cascades to questions in
	// the same transaction: referencing questions are narrowed, and a
	// question whose field set empties is deleted.
	SoftDeleteField(ctx context.Context, id string) error
	ListFields(ctx context.Context, documentID string, pages ...int) ([]model.Field, error)

	// Questions
	CreateQuestion(ctx context.Context, spec model.QuestionSpec) (*model.Question, error)
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	// UpdateQuestion applies the whole patch as one row update so status,
	// answer and field set are never observable in a half-written state.
	UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (*model.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	// ListQuestions filters by status when status is non-empty.
	ListQuestions(ctx context.Context, documentID string, status model.QuestionStatus) ([]model.Question, error)

	// ApplyMergeBatch applies one page's merge decisions atomically,
	// including the question cascade for dropped fields.
	ApplyMergeBatch(ctx context.Context, documentID string, page int, decisions []model.MergeDecision) (model.MergeReport, error)

	// Dead letters
	AddDeadLetter(ctx context.Context, entry resilience.DeadLetter) error
	ListDeadLetters(ctx context.Context, documentID string, limit int) ([]resilience.DeadLetter, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
