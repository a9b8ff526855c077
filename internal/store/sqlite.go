package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fields (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL,
	page_number        INTEGER NOT NULL,
	field_index        INTEGER NOT NULL DEFAULT 0,
	label              TEXT NOT NULL DEFAULT '',
	field_type         TEXT NOT NULL,
	left_pct           REAL NOT NULL,
	top_pct            REAL NOT NULL,
	width_pct          REAL NOT NULL,
	height_pct         REAL NOT NULL,
	value              TEXT,
	ai_suggested_value TEXT,
	confidence_score   REAL,
	detection_source   TEXT NOT NULL DEFAULT 'initial',
	manually_adjusted  INTEGER NOT NULL DEFAULT 0,
	choice_options     TEXT,
	deleted_at         DATETIME,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	question    TEXT NOT NULL,
	field_ids   TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'visible',
	answer      TEXT,
	page_number INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS dead_letters (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL,
	question_id    TEXT NOT NULL,
	answer         TEXT NOT NULL,
	error          TEXT NOT NULL,
	error_type     TEXT NOT NULL,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	max_retries    INTEGER NOT NULL DEFAULT 3,
	created_at     DATETIME NOT NULL,
	last_failed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fields_document ON fields(document_id, page_number);
CREATE INDEX IF NOT EXISTS idx_fields_deleted ON fields(deleted_at);
CREATE INDEX IF NOT EXISTS idx_questions_document ON questions(document_id, status);
CREATE INDEX IF NOT EXISTS idx_dead_letters_document ON dead_letters(document_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx so the merge batch can
// reuse the row-level helpers inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const fieldColumns = `id, document_id, page_number, field_index, label, field_type,
	left_pct, top_pct, width_pct, height_pct, value, ai_suggested_value,
	confidence_score, detection_source, manually_adjusted, choice_options,
	deleted_at, created_at, updated_at`

func (s *SQLiteStore) CreateField(ctx context.Context, spec model.FieldSpec) (*model.Field, error) {
	return createField(ctx, s.db, spec)
}

func createField(ctx context.Context, q querier, spec model.FieldSpec) (*model.Field, error) {
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

	optionsJSON, err := marshalOptions(f.ChoiceOptions)
	if err != nil {
		return nil, err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO fields (`+fieldColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		f.ID, f.DocumentID, f.PageNumber, f.FieldIndex, f.Label, string(f.Type),
		f.Coordinates.Left, f.Coordinates.Top, f.Coordinates.Width, f.Coordinates.Height,
		f.Value, f.AISuggestedValue, f.Confidence, f.DetectionSource,
		boolToInt(f.ManuallyAdjusted), optionsJSON, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert field")
	}
	return f, nil
}

func (s *SQLiteStore) CreateFields(ctx context.Context, specs []model.FieldSpec) ([]model.Field, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	out := make([]model.Field, 0, len(specs))
	for _, spec := range specs {
		f, err := createField(ctx, tx, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create fields")
	}
	return out, nil
}

func (s *SQLiteStore) GetField(ctx context.Context, id string) (*model.Field, error) {
	return getField(ctx, s.db, id)
}

func getField(ctx context.Context, q querier, id string) (*model.Field, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE id = ? AND deleted_at IS NULL`, id)
	f, err := scanField(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "field %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get field")
	}
	return f, nil
}

func (s *SQLiteStore) UpdateField(ctx context.Context, id string, patch model.FieldPatch) (*model.Field, error) {
	return updateField(ctx, s.db, id, patch)
}

func updateField(ctx context.Context, q querier, id string, patch model.FieldPatch) (*model.Field, error) {
	if patch.Empty() {
		return getField(ctx, q, id)
	}

	set := `updated_at = ?`
	args := []any{time.Now().UTC()}

	if patch.Coordinates != nil {
		c := patch.Coordinates.Clamp()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		set += `, left_pct = ?, top_pct = ?, width_pct = ?, height_pct = ?`
		args = append(args, c.Left, c.Top, c.Width, c.Height)
	}
	if patch.Label != nil {
		set += `, label = ?`
		args = append(args, *patch.Label)
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, model.Validationf("field: unknown field_type %q", *patch.Type)
		}
		set += `, field_type = ?`
		args = append(args, string(*patch.Type))
	}
	if patch.FieldIndex != nil {
		set += `, field_index = ?`
		args = append(args, *patch.FieldIndex)
	}
	if patch.ClearValue {
		set += `, value = NULL`
	} else if patch.Value != nil {
		set += `, value = ?`
		args = append(args, *patch.Value)
	}
	if patch.AISuggestedValue != nil {
		set += `, ai_suggested_value = ?`
		args = append(args, *patch.AISuggestedValue)
	}
	if patch.Confidence != nil {
		set += `, confidence_score = ?`
		args = append(args, *patch.Confidence)
	}
	if patch.ManuallyAdjusted != nil {
		set += `, manually_adjusted = ?`
		args = append(args, boolToInt(*patch.ManuallyAdjusted))
	}

	args = append(args, id)
	res, err := q.ExecContext(ctx,
		`UPDATE fields SET `+set+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update field %s", id)
	}
	if err := checkRowsAffected(res, "field", id); err != nil {
		return nil, err
	}
	return getField(ctx, q, id)
}

func (s *SQLiteStore) SoftDeleteField(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if err := softDeleteField(ctx, tx, id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit soft delete")
}

func softDeleteField(ctx context.Context, tx querier, id string) error {
	f, err := getField(ctx, tx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE fields SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: soft delete field %s", id)
	}
	if err := checkRowsAffected(res, "field", id); err != nil {
		return err
	}

	return cascadeFieldDeletion(ctx, tx, f.DocumentID, id)
}

// cascadeFieldDeletion narrows every question referencing the deleted field
// and removes questions whose field set becomes empty.
func cascadeFieldDeletion(ctx context.Context, q querier, documentID, fieldID string) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, field_ids FROM questions WHERE document_id = ?`, documentID)
	if err != nil {
		return eris.Wrap(err, "sqlite: list questions for cascade")
	}
	defer rows.Close()

	type narrowing struct {
		id       string
		fieldIDs []string
	}
	var updates []narrowing
	for rows.Next() {
		var id, fieldIDsJSON string
		if err := rows.Scan(&id, &fieldIDsJSON); err != nil {
			return eris.Wrap(err, "sqlite: scan question for cascade")
		}
		var fieldIDs []string
		if err := json.Unmarshal([]byte(fieldIDsJSON), &fieldIDs); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal field_ids")
		}
		qq := model.Question{ID: id, FieldIDs: fieldIDs}
		if qq.References(fieldID) {
			updates = append(updates, narrowing{id: id, fieldIDs: qq.WithoutField(fieldID)})
		}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate questions for cascade")
	}

	now := time.Now().UTC()
	for _, u := range updates {
		if len(u.fieldIDs) == 0 {
			if _, err := q.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, u.id); err != nil {
				return eris.Wrapf(err, "sqlite: delete emptied question %s", u.id)
			}
			continue
		}
		fieldIDsJSON, err := json.Marshal(u.fieldIDs)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal field_ids")
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE questions SET field_ids = ?, updated_at = ? WHERE id = ?`,
			string(fieldIDsJSON), now, u.id); err != nil {
			return eris.Wrapf(err, "sqlite: narrow question %s", u.id)
		}
	}
	return nil
}

func (s *SQLiteStore) ListFields(ctx context.Context, documentID string, pages ...int) ([]model.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE document_id = ? AND deleted_at IS NULL`
	args := []any{documentID}

	if len(pages) > 0 {
		query += ` AND page_number IN (?` + repeatPlaceholder(len(pages)-1) + `)`
		for _, p := range pages {
			args = append(args, p)
		}
	}
	query += ` ORDER BY page_number, field_index, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list fields")
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan field")
		}
		fields = append(fields, *f)
	}
	return fields, eris.Wrap(rows.Err(), "sqlite: list fields iterate")
}

const questionColumns = `id, document_id, question, field_ids, status, answer, page_number, created_at, updated_at`

func (s *SQLiteStore) CreateQuestion(ctx context.Context, spec model.QuestionSpec) (*model.Question, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal field_ids")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		q.ID, q.DocumentID, q.Text, string(fieldIDsJSON), string(q.Status),
		q.PageNumber, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert question")
	}
	return q, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "question %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get question")
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (*model.Question, error) {
	set := `updated_at = ?`
	args := []any{time.Now().UTC()}

	if patch.Text != nil {
		set += `, question = ?`
		args = append(args, *patch.Text)
	}
	if patch.FieldIDs != nil {
		fieldIDsJSON, err := json.Marshal(*patch.FieldIDs)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal field_ids")
		}
		set += `, field_ids = ?`
		args = append(args, string(fieldIDsJSON))
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, model.Validationf("question: unknown status %q", *patch.Status)
		}
		set += `, status = ?`
		args = append(args, string(*patch.Status))
	}
	if patch.ClearAnswer {
		set += `, answer = NULL`
	} else if patch.Answer != nil {
		set += `, answer = ?`
		args = append(args, *patch.Answer)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update question %s", id)
	}
	if err := checkRowsAffected(res, "question", id); err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, id)
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete question %s", id)
	}
	return checkRowsAffected(res, "question", id)
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, documentID string, status model.QuestionStatus) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE document_id = ?`
	args := []any{documentID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY page_number, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		questions = append(questions, *q)
	}
	return questions, eris.Wrap(rows.Err(), "sqlite: list questions iterate")
}

func (s *SQLiteStore) ApplyMergeBatch(ctx context.Context, documentID string, page int, decisions []model.MergeDecision) (model.MergeReport, error) {
	var report model.MergeReport
	if len(decisions) == 0 {
		return report, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, eris.Wrap(err, "sqlite: begin merge batch")
	}
	defer tx.Rollback()

	nextIndex, err := maxFieldIndex(ctx, tx, documentID, page)
	if err != nil {
		return report, err
	}

	for _, d := range decisions {
		switch d.Kind {
		case model.DecisionKeep:
			// Nothing to write.
		case model.DecisionAdjust:
			if d.Patch == nil {
				continue
			}
			if _, err := updateField(ctx, tx, d.ExistingID, *d.Patch); err != nil {
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
			if _, err := createField(ctx, tx, spec); err != nil {
				return model.MergeReport{}, eris.Wrap(err, "merge batch: add")
			}
			report.FieldsAdded++
		case model.DecisionDrop:
			if err := softDeleteField(ctx, tx, d.ExistingID); err != nil {
				return model.MergeReport{}, eris.Wrapf(err, "merge batch: drop %s", d.ExistingID)
			}
			report.FieldsRemoved++
		}
	}

	if err := tx.Commit(); err != nil {
		return model.MergeReport{}, eris.Wrap(err, "sqlite: commit merge batch")
	}
	return report, nil
}

func maxFieldIndex(ctx context.Context, q querier, documentID string, page int) (int, error) {
	var max sql.NullInt64
	err := q.QueryRowContext(ctx,
		`SELECT MAX(field_index) FROM fields WHERE document_id = ? AND page_number = ? AND deleted_at IS NULL`,
		documentID, page).Scan(&max)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: max field index")
	}
	return int(max.Int64), nil
}

func (s *SQLiteStore) AddDeadLetter(ctx context.Context, entry resilience.DeadLetter) error {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dead_letters (id, document_id, question_id, answer, error, error_type,
		 retry_count, max_retries, created_at, last_failed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DocumentID, entry.QuestionID, entry.Answer, entry.Error,
		entry.ErrorType, entry.RetryCount, entry.MaxRetries, entry.CreatedAt, entry.LastFailedAt,
	)
	return eris.Wrap(err, "sqlite: insert dead letter")
}

func (s *SQLiteStore) ListDeadLetters(ctx context.Context, documentID string, limit int) ([]resilience.DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, question_id, answer, error, error_type,
		 retry_count, max_retries, created_at, last_failed_at
		 FROM dead_letters WHERE document_id = ? ORDER BY created_at DESC LIMIT ?`,
		documentID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dead letters")
	}
	defer rows.Close()

	var entries []resilience.DeadLetter
	for rows.Next() {
		var e resilience.DeadLetter
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.QuestionID, &e.Answer, &e.Error,
			&e.ErrorType, &e.RetryCount, &e.MaxRetries, &e.CreatedAt, &e.LastFailedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dead letter")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list dead letters iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanField(row scannable) (*model.Field, error) {
	var f model.Field
	var fieldType, source string
	var value, aiValue, optionsJSON sql.NullString
	var confidence sql.NullFloat64
	var manuallyAdjusted int
	var deletedAt sql.NullTime

	err := row.Scan(&f.ID, &f.DocumentID, &f.PageNumber, &f.FieldIndex, &f.Label, &fieldType,
		&f.Coordinates.Left, &f.Coordinates.Top, &f.Coordinates.Width, &f.Coordinates.Height,
		&value, &aiValue, &confidence, &source, &manuallyAdjusted, &optionsJSON,
		&deletedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	f.Type = model.FieldType(fieldType)
	f.DetectionSource = source
	f.ManuallyAdjusted = manuallyAdjusted != 0
	if value.Valid {
		f.Value = &value.String
	}
	if aiValue.Valid {
		f.AISuggestedValue = &aiValue.String
	}
	if confidence.Valid {
		f.Confidence = &confidence.Float64
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		f.DeletedAt = &t
	}
	if optionsJSON.Valid && optionsJSON.String != "" {
		if err := json.Unmarshal([]byte(optionsJSON.String), &f.ChoiceOptions); err != nil {
			return nil, eris.Wrap(err, "unmarshal choice_options")
		}
	}
	return &f, nil
}

func scanQuestion(row scannable) (*model.Question, error) {
	var q model.Question
	var status, fieldIDsJSON string
	var answer sql.NullString

	err := row.Scan(&q.ID, &q.DocumentID, &q.Text, &fieldIDsJSON, &status,
		&answer, &q.PageNumber, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	q.Status = model.QuestionStatus(status)
	if answer.Valid {
		q.Answer = &answer.String
	}
	if err := json.Unmarshal([]byte(fieldIDsJSON), &q.FieldIDs); err != nil {
		return nil, eris.Wrap(err, "unmarshal field_ids")
	}
	return &q, nil
}

func marshalOptions(options []model.ChoiceOption) (sql.NullString, error) {
	if len(options) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "marshal choice_options")
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
