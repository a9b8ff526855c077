package model

import "time"

// ParsedValue is one per-field value extracted from a free-text answer.
type ParsedValue struct {
	FieldID string `json:"field_id"`
	Value   string `json:"value"`
}

// ParseResult is the structured interpretation of one free-text answer
// against the fields a question targets.
type ParseResult struct {
	ParsedValues     []ParsedValue `json:"parsed_values"`
	MissingFields    []string      `json:"missing_fields,omitempty"`
	Confident        bool          `json:"confident"`
	FollowUpQuestion string        `json:"follow_up_question,omitempty"`
	Warning          string        `json:"warning,omitempty"`
}

// AutoAnswer is one opportunistic resolution returned by the batched
// cross-question reconciliation call.
type AutoAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// TimeContext carries the caller's clock so relative dates ("next Tuesday")
// resolve against the user's locale rather than the server's.
type TimeContext struct {
	Now      time.Time `json:"now"`
	Timezone string    `json:"timezone,omitempty"`
}

// MemoryChoice is a direct label-to-value mapping supplied by the memory
// subsystem. It bypasses the reasoner entirely: labels are matched
// case-insensitively against the question's linked fields.
type MemoryChoice struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
