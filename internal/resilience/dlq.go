package resilience

import "time"

// DeadLetter records a cross-question reconciliation item that failed to
// apply. Entries are persisted so an operator (or a later sweep) can replay
// transient failures; permanent ones are kept for audit only.
type DeadLetter struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	QuestionID   string    `json:"question_id"`
	Answer       string    `json:"answer"`
	Error        string    `json:"error"`
	ErrorType    string    `json:"error_type"` // "transient" or "permanent"
	RetryCount   int       `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	CreatedAt    time.Time `json:"created_at"`
	LastFailedAt time.Time `json:"last_failed_at"`
}

// CanRetry reports whether the entry is transient and under its retry budget.
func (d *DeadLetter) CanRetry() bool {
	return d.ErrorType == "transient" && d.RetryCount < d.MaxRetries
}
