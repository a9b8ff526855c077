package model

import "time"

// QuestionStatus is the answer-lifecycle state of a question.
type QuestionStatus string

const (
	// QuestionVisible means the question awaits (or re-awaits) an answer.
	QuestionVisible QuestionStatus = "visible"
	// QuestionAnswered means the question was resolved and its fields hold values.
	QuestionAnswered QuestionStatus = "answered"
	// QuestionHidden means the question was superseded and is no longer shown.
	QuestionHidden QuestionStatus = "hidden"
)

// Valid reports whether s is a known status.
func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionVisible, QuestionAnswered, QuestionHidden:
		return true
	}
	return false
}

// Question is a user-facing prompt grouping one or more fields. FieldIDs is
// an ordered, non-owning reference set: the fields live independently in the
// field store, and a question whose last referenced field is deleted is
// removed entirely.
type Question struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Text       string         `json:"question"`
	FieldIDs   []string       `json:"field_ids"`
	Status     QuestionStatus `json:"status"`
	Answer     *string        `json:"answer,omitempty"`
	PageNumber int            `json:"page_number"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// References reports whether the question links the given field.
func (q *Question) References(fieldID string) bool {
	for _, id := range q.FieldIDs {
		if id == fieldID {
			return true
		}
	}
	return false
}

// WithoutField returns FieldIDs minus the given id, preserving order.
func (q *Question) WithoutField(fieldID string) []string {
	out := make([]string, 0, len(q.FieldIDs))
	for _, id := range q.FieldIDs {
		if id != fieldID {
			out = append(out, id)
		}
	}
	return out
}

// QuestionSpec describes a question to create.
type QuestionSpec struct {
	DocumentID string   `json:"document_id"`
	Text       string   `json:"question"`
	FieldIDs   []string `json:"field_ids"`
	PageNumber int      `json:"page_number"`
}

// Validate checks the spec.
func (s QuestionSpec) Validate() error {
	if s.DocumentID == "" {
		return Validationf("question: document_id is required")
	}
	if s.Text == "" {
		return Validationf("question: text is required")
	}
	if len(s.FieldIDs) == 0 {
		return Validationf("question: at least one field_id is required")
	}
	return nil
}

// QuestionPatch is a partial update. Status, answer and field set changes are
// always applied in a single row update so an observer never sees an
// answered question whose fields are still being written.
type QuestionPatch struct {
	Text        *string         `json:"question,omitempty"`
	FieldIDs    *[]string       `json:"field_ids,omitempty"`
	Status      *QuestionStatus `json:"status,omitempty"`
	Answer      *string         `json:"answer,omitempty"`
	ClearAnswer bool            `json:"clear_answer,omitempty"`
}
