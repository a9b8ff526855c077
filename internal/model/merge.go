package model

// CandidateField is one field proposed by a detection pass, prior to
// reconciliation against the stored set.
type CandidateField struct {
	Label            string         `json:"label"`
	Type             FieldType      `json:"field_type"`
	Coordinates      Coordinates    `json:"coordinates"`
	Confidence       *float64       `json:"confidence_score,omitempty"`
	AISuggestedValue *string        `json:"ai_suggested_value,omitempty"`
	ChoiceOptions    []ChoiceOption `json:"choice_options,omitempty"`
}

// DecisionKind classifies a merge decision.
type DecisionKind string

const (
	DecisionKeep   DecisionKind = "keep"
	DecisionAdjust DecisionKind = "adjust"
	DecisionAdd    DecisionKind = "add"
	DecisionDrop   DecisionKind = "drop"
)

// MergeDecision is the outcome of comparing one candidate (or one orphaned
// existing field) against the stored set. Decisions are transient: they are
// computed per page and applied in one batch, never persisted.
type MergeDecision struct {
	Kind       DecisionKind    `json:"kind"`
	ExistingID string          `json:"existing_id,omitempty"`
	Candidate  *CandidateField `json:"candidate,omitempty"`
	Patch      *FieldPatch     `json:"patch,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// MergeReport summarizes an applied merge run.
type MergeReport struct {
	FieldsAdjusted int   `json:"fields_adjusted"`
	FieldsAdded    int   `json:"fields_added"`
	FieldsRemoved  int   `json:"fields_removed"`
	PagesSkipped   []int `json:"pages_skipped,omitempty"`
}

// Merge accumulates another report into r.
func (r *MergeReport) Merge(other MergeReport) {
	r.FieldsAdjusted += other.FieldsAdjusted
	r.FieldsAdded += other.FieldsAdded
	r.FieldsRemoved += other.FieldsRemoved
	r.PagesSkipped = append(r.PagesSkipped, other.PagesSkipped...)
}
