package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/inkwell-hq/formfill/internal/db"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS fields (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id        TEXT NOT NULL,
	page_number        INTEGER NOT NULL,
	field_index        INTEGER NOT NULL DEFAULT 0,
	label              TEXT NOT NULL DEFAULT '',
	field_type         TEXT NOT NULL,
	left_pct           DOUBLE PRECISION NOT NULL,
	top_pct            DOUBLE PRECISION NOT NULL,
	width_pct          DOUBLE PRECISION NOT NULL,
	height_pct         DOUBLE PRECISION NOT NULL,
	value              TEXT,
	ai_suggested_value TEXT,
	confidence_score   DOUBLE PRECISION,
	detection_source   TEXT NOT NULL DEFAULT 'initial',
	manually_adjusted  BOOLEAN NOT NULL DEFAULT false,
	choice_options     JSONB,
	deleted_at         TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id TEXT NOT NULL,
	question    TEXT NOT NULL,
	field_ids   JSONB NOT NULL,
	status      TEXT NOT NULL DEFAULT 'visible',
	answer      TEXT,
	page_number INTEGER NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dead_letters (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id    TEXT NOT NULL,
	question_id    TEXT NOT NULL,
	answer         TEXT NOT NULL,
	error          TEXT NOT NULL,
	error_type     TEXT NOT NULL,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	max_retries    INTEGER NOT NULL DEFAULT 3,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_failed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fields_document ON fields(document_id, page_number);
CREATE INDEX IF NOT EXISTS idx_questions_document ON questions(document_id, status);
CREATE INDEX IF NOT EXISTS idx_dead_letters_document ON dead_letters(document_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// pgQuerier is satisfied by both db.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgFieldColumns = `id, document_id, page_number, field_index, label, field_type,
	left_pct, top_pct, width_pct, height_pct, value, ai_suggested_value,
	confidence_score, detection_source, manually_adjusted, choice_options,
	deleted_at, created_at, updated_at`

func (s *PostgresStore) CreateField(ctx context.Context, spec model.FieldSpec) (*model.Field, error) {
	return pgCreateField(ctx, s.pool, spec)
}

func pgCreateField(ctx context.Context, q pgQuerier, spec model.FieldSpec) (*model.Field, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	f := &model.Field{
		ID:               uuid.New().String(),
		DocumentID:       spec.DocumentID,
		PageNumber:       spec.PageNumber,
		FieldIndex:       spec.FieldIndex,
		Label:            spec.Label,
		Type:             spec.Type,
		Coordinates:      spec.Coordinates.Clamp(),
		AISuggestedValue: spec.AISuggestedValue,
		Confidence:       spec.Confidence,
		DetectionSource:  spec.DetectionSource,
		ChoiceOptions:    spec.ChoiceOptions,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if f.DetectionSource == "" {
		f.DetectionSource = model.SourceInitial
	}

	optionsJSON, err := pgMarshalOptions(f.ChoiceOptions)
	if err != nil {
		return nil, err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO fields (id, document_id, page_number, field_index, label, field_type,
		 left_pct, top_pct, width_pct, height_pct, ai_suggested_value, confidence_score,
		 detection_source, choice_options, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		f.ID, f.DocumentID, f.PageNumber, f.FieldIndex, f.Label, string(f.Type),
		f.Coordinates.Left, f.Coordinates.Top, f.Coordinates.Width, f.Coordinates.Height,
		f.AISuggestedValue, f.Confidence, f.DetectionSource, optionsJSON,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert field")
	}
	return f, nil
}

// CreateFields bulk-inserts initial detection output via the COPY protocol.
func (s *PostgresStore) CreateFields(ctx context.Context, specs []model.FieldSpec) ([]model.Field, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	out := make([]model.Field, 0, len(specs))
	rows := make([][]any, 0, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		f := model.Field{
			ID:               uuid.New().String(),
			DocumentID:       spec.DocumentID,
			PageNumber:       spec.PageNumber,
			FieldIndex:       spec.FieldIndex,
			Label:            spec.Label,
			Type:             spec.Type,
			Coordinates:      spec.Coordinates.Clamp(),
			AISuggestedValue: spec.AISuggestedValue,
			Confidence:       spec.Confidence,
			DetectionSource:  spec.DetectionSource,
			ChoiceOptions:    spec.ChoiceOptions,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if f.DetectionSource == "" {
			f.DetectionSource = model.SourceInitial
		}
		optionsJSON, err := pgMarshalOptions(f.ChoiceOptions)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{
			f.ID, f.DocumentID, f.PageNumber, f.FieldIndex, f.Label, string(f.Type),
			f.Coordinates.Left, f.Coordinates.Top, f.Coordinates.Width, f.Coordinates.Height,
			f.AISuggestedValue, f.Confidence, f.DetectionSource, optionsJSON,
			f.CreatedAt, f.UpdatedAt,
		})
		out = append(out, f)
	}

	_, err := db.CopyFrom(ctx, s.pool, "fields", []string{
		"id", "document_id", "page_number", "field_index", "label", "field_type",
		"left_pct", "top_pct", "width_pct", "height_pct", "ai_suggested_value",
		"confidence_score", "detection_source", "choice_options", "created_at", "updated_at",
	}, rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetField(ctx context.Context, id string) (*model.Field, error) {
	return pgGetField(ctx, s.pool, id)
}

func pgGetField(ctx context.Context, q pgQuerier, id string) (*model.Field, error) {
	row := q.QueryRow(ctx,
		`SELECT `+pgFieldColumns+` FROM fields WHERE id = $1 AND deleted_at IS NULL`, id)
	f, err := pgScanField(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "field %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get field")
	}
	return f, nil
}

func (s *PostgresStore) UpdateField(ctx context.Context, id string, patch model.FieldPatch) (*model.Field, error) {
	return pgUpdateField(ctx, s.pool, id, patch)
}

func pgUpdateField(ctx context.Context, q pgQuerier, id string, patch model.FieldPatch) (*model.Field, error) {
	if patch.Empty() {
		return pgGetField(ctx, q, id)
	}

	set := `updated_at = $1`
	args := []any{time.Now().UTC()}
	n := 1
	next := func() string {
		n++
		return placeholder(n)
	}

	if patch.Coordinates != nil {
		c := patch.Coordinates.Clamp()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		set += `, left_pct = ` + next() + `, top_pct = ` + next() +
			`, width_pct = ` + next() + `, height_pct = ` + next()
		args = append(args, c.Left, c.Top, c.Width, c.Height)
	}
	if patch.Label != nil {
		set += `, label = ` + next()
		args = append(args, *patch.Label)
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, model.Validationf("field: unknown field_type %q", *patch.Type)
		}
		set += `, field_type = ` + next()
		args = append(args, string(*patch.Type))
	}
	if patch.FieldIndex != nil {
		set += `, field_index = ` + next()
		args = append(args, *patch.FieldIndex)
	}
	if patch.ClearValue {
		set += `, value = NULL`
	} else if patch.Value != nil {
		set += `, value = ` + next()
		args = append(args, *patch.Value)
	}
	if patch.AISuggestedValue != nil {
		set += `, ai_suggested_value = ` + next()
		args = append(args, *patch.AISuggestedValue)
	}
	if patch.Confidence != nil {
		set += `, confidence_score = ` + next()
		args = append(args, *patch.Confidence)
	}
	if patch.ManuallyAdjusted != nil {
		set += `, manually_adjusted = ` + next()
		args = append(args, *patch.ManuallyAdjusted)
	}

	args = append(args, id)
	tag, err := q.Exec(ctx,
		`UPDATE fields SET `+set+` WHERE id = `+next()+` AND deleted_at IS NULL`, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update field %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrNotFound, "field %s", id)
	}
	return pgGetField(ctx, q, id)
}

func (s *PostgresStore) SoftDeleteField(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	if err := pgSoftDeleteField(ctx, tx, id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit soft delete")
}

func pgSoftDeleteField(ctx context.Context, q pgQuerier, id string) error {
	f, err := pgGetField(ctx, q, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	tag, err := q.Exec(ctx,
		`UPDATE fields SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		now, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: soft delete field %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "field %s", id)
	}

	return pgCascadeFieldDeletion(ctx, q, f.DocumentID, id)
}

func pgCascadeFieldDeletion(ctx context.Context, q pgQuerier, documentID, fieldID string) error {
	rows, err := q.Query(ctx,
		`SELECT id, field_ids FROM questions WHERE document_id = $1`, documentID)
	if err != nil {
		return eris.Wrap(err, "postgres: list questions for cascade")
	}
	defer rows.Close()

	type narrowing struct {
		id       string
		fieldIDs []string
	}
	var updates []narrowing
	for rows.Next() {
		var id string
		var fieldIDs []string
		if err := rows.Scan(&id, &fieldIDs); err != nil {
			return eris.Wrap(err, "postgres: scan question for cascade")
		}
		qq := model.Question{ID: id, FieldIDs: fieldIDs}
		if qq.References(fieldID) {
			updates = append(updates, narrowing{id: id, fieldIDs: qq.WithoutField(fieldID)})
		}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate questions for cascade")
	}
	rows.Close()

	now := time.Now().UTC()
	for _, u := range updates {
		if len(u.fieldIDs) == 0 {
			if _, err := q.Exec(ctx, `DELETE FROM questions WHERE id = $1`, u.id); err != nil {
				return eris.Wrapf(err, "postgres: delete emptied question %s", u.id)
			}
			continue
		}
		fieldIDsJSON, err := json.Marshal(u.fieldIDs)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal field_ids")
		}
		if _, err := q.Exec(ctx,
			`UPDATE questions SET field_ids = $1, updated_at = $2 WHERE id = $3`,
			fieldIDsJSON, now, u.id); err != nil {
			return eris.Wrapf(err, "postgres: narrow question %s", u.id)
		}
	}
	return nil
}

func (s *PostgresStore) ListFields(ctx context.Context, documentID string, pages ...int) ([]model.Field, error) {
	query := `SELECT ` + pgFieldColumns + ` FROM fields WHERE document_id = $1 AND deleted_at IS NULL`
	args := []any{documentID}
	if len(pages) > 0 {
		query += ` AND page_number = ANY($2)`
		args = append(args, pages)
	}
	query += ` ORDER BY page_number, field_index, created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list fields")
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		f, err := pgScanField(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan field")
		}
		fields = append(fields, *f)
	}
	return fields, eris.Wrap(rows.Err(), "postgres: list fields iterate")
}

const pgQuestionColumns = `id, document_id, question, field_ids, status, answer, page_number, created_at, updated_at`

func (s *PostgresStore) CreateQuestion(ctx context.Context, spec model.QuestionSpec) (*model.Question, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	q := &model.Question{
		ID:         uuid.New().String(),
		DocumentID: spec.DocumentID,
		Text:       spec.Text,
		FieldIDs:   spec.FieldIDs,
		Status:     model.QuestionVisible,
		PageNumber: spec.PageNumber,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	fieldIDsJSON, err := json.Marshal(q.FieldIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal field_ids")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, document_id, question, field_ids, status, page_number, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.DocumentID, q.Text, fieldIDsJSON, string(q.Status),
		q.PageNumber, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert question")
	}
	return q, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgQuestionColumns+` FROM questions WHERE id = $1`, id)
	q, err := pgScanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "question %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get question")
	}
	return q, nil
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (*model.Question, error) {
	set := `updated_at = $1`
	args := []any{time.Now().UTC()}
	n := 1
	next := func() string {
		n++
		return placeholder(n)
	}

	if patch.Text != nil {
		set += `, question = ` + next()
		args = append(args, *patch.Text)
	}
	if patch.FieldIDs != nil {
		fieldIDsJSON, err := json.Marshal(*patch.FieldIDs)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal field_ids")
		}
		set += `, field_ids = ` + next()
		args = append(args, fieldIDsJSON)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, model.Validationf("question: unknown status %q", *patch.Status)
		}
		set += `, status = ` + next()
		args = append(args, string(*patch.Status))
	}
	if patch.ClearAnswer {
		set += `, answer = NULL`
	} else if patch.Answer != nil {
		set += `, answer = ` + next()
		args = append(args, *patch.Answer)
	}

	args = append(args, id)
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET `+set+` WHERE id = `+next(), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update question %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrNotFound, "question %s", id)
	}
	return s.GetQuestion(ctx, id)
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete question %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "question %s", id)
	}
	return nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, documentID string, status model.QuestionStatus) ([]model.Question, error) {
	query := `SELECT ` + pgQuestionColumns + ` FROM questions WHERE document_id = $1`
	args := []any{documentID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY page_number, created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := pgScanQuestion(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan question")
		}
		questions = append(questions, *q)
	}
	return questions, eris.Wrap(rows.Err(), "postgres: list questions iterate")
}

func (s *PostgresStore) ApplyMergeBatch(ctx context.Context, documentID string, page int, decisions []model.MergeDecision) (model.MergeReport, error) {
	var report model.MergeReport
	if len(decisions) == 0 {
		return report, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return report, eris.Wrap(err, "postgres: begin merge batch")
	}
	defer tx.Rollback(ctx)

	var nextIndex int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(field_index), 0) FROM fields
		 WHERE document_id = $1 AND page_number = $2 AND deleted_at IS NULL`,
		documentID, page).Scan(&nextIndex)
	if err != nil {
		return report, eris.Wrap(err, "postgres: max field index")
	}

	for _, d := range decisions {
		switch d.Kind {
		case model.DecisionKeep:
		case model.DecisionAdjust:
			if d.Patch == nil {
				continue
			}
			if _, err := pgUpdateField(ctx, tx, d.ExistingID, *d.Patch); err != nil {
				return model.MergeReport{}, eris.Wrapf(err, "merge batch: adjust %s", d.ExistingID)
			}
			report.FieldsAdjusted++
		case model.DecisionAdd:
			if d.Candidate == nil {
				continue
			}
			nextIndex++
			spec := model.FieldSpec{
				DocumentID:       documentID,
				PageNumber:       page,
				FieldIndex:       nextIndex,
				Label:            d.Candidate.Label,
				Type:             d.Candidate.Type,
				Coordinates:      d.Candidate.Coordinates,
				AISuggestedValue: d.Candidate.AISuggestedValue,
				Confidence:       d.Candidate.Confidence,
				DetectionSource:  model.SourceMerge,
				ChoiceOptions:    d.Candidate.ChoiceOptions,
			}
			if _, err := pgCreateField(ctx, tx, spec); err != nil {
				return model.MergeReport{}, eris.Wrap(err, "merge batch: add")
			}
			report.FieldsAdded++
		case model.DecisionDrop:
			if err := pgSoftDeleteField(ctx, tx, d.ExistingID); err != nil {
				return model.MergeReport{}, eris.Wrapf(err, "merge batch: drop %s", d.ExistingID)
			}
			report.FieldsRemoved++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.MergeReport{}, eris.Wrap(err, "postgres: commit merge batch")
	}
	return report, nil
}

func (s *PostgresStore) AddDeadLetter(ctx context.Context, entry resilience.DeadLetter) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.LastFailedAt.IsZero() {
		entry.LastFailedAt = entry.CreatedAt
	}
	if entry.MaxRetries == 0 {
		entry.MaxRetries = 3
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO dead_letters (id, document_id, question_id, answer, error, error_type,
		 retry_count, max_retries, created_at, last_failed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.DocumentID, entry.QuestionID, entry.Answer, entry.Error,
		entry.ErrorType, entry.RetryCount, entry.MaxRetries, entry.CreatedAt, entry.LastFailedAt,
	)
	return eris.Wrap(err, "postgres: insert dead letter")
}

func (s *PostgresStore) ListDeadLetters(ctx context.Context, documentID string, limit int) ([]resilience.DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, question_id, answer, error, error_type,
		 retry_count, max_retries, created_at, last_failed_at
		 FROM dead_letters WHERE document_id = $1 ORDER BY created_at DESC LIMIT $2`,
		documentID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dead letters")
	}
	defer rows.Close()

	var entries []resilience.DeadLetter
	for rows.Next() {
		var e resilience.DeadLetter
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.QuestionID, &e.Answer, &e.Error,
			&e.ErrorType, &e.RetryCount, &e.MaxRetries, &e.CreatedAt, &e.LastFailedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dead letter")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list dead letters iterate")
}

// helpers

func placeholder(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return "$" + digits[n:n+1]
	}
	return "$" + digits[n/10:n/10+1] + digits[n%10:n%10+1]
}

func pgScanField(row pgx.Row) (*model.Field, error) {
	var f model.Field
	var fieldType, source string
	var value, aiValue *string
	var confidence *float64
	var optionsJSON []byte
	var deletedAt *time.Time

	err := row.Scan(&f.ID, &f.DocumentID, &f.PageNumber, &f.FieldIndex, &f.Label, &fieldType,
		&f.Coordinates.Left, &f.Coordinates.Top, &f.Coordinates.Width, &f.Coordinates.Height,
		&value, &aiValue, &confidence, &source, &f.ManuallyAdjusted, &optionsJSON,
		&deletedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	f.Type = model.FieldType(fieldType)
	f.DetectionSource = source
	f.Value = value
	f.AISuggestedValue = aiValue
	f.Confidence = confidence
	f.DeletedAt = deletedAt
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &f.ChoiceOptions); err != nil {
			return nil, eris.Wrap(err, "unmarshal choice_options")
		}
	}
	return &f, nil
}

func pgScanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	var status string
	var answer *string
	var fieldIDs []string

	err := row.Scan(&q.ID, &q.DocumentID, &q.Text, &fieldIDs, &status,
		&answer, &q.PageNumber, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	q.Status = model.QuestionStatus(status)
	q.Answer = answer
	q.FieldIDs = fieldIDs
	return &q, nil
}

func pgMarshalOptions(options []model.ChoiceOption) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return nil, eris.Wrap(err, "marshal choice_options")
	}
	return b, nil
}
