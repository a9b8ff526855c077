package model

import "time"

// FieldType enumerates the kinds of fillable regions a detector can emit.
type FieldType string

const (
	FieldText         FieldType = "text"
	FieldTextarea     FieldType = "textarea"
	FieldDate         FieldType = "date"
	FieldCheckbox     FieldType = "checkbox"
	FieldRadio        FieldType = "radio"
	FieldSignature    FieldType = "signature"
	FieldInitials     FieldType = "initials"
	FieldCircleChoice FieldType = "circle_choice"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldDate, FieldCheckbox, FieldRadio,
		FieldSignature, FieldInitials, FieldCircleChoice:
		return true
	}
	return false
}

// Detection source tags. Detectors report their own tag; user-created fields
// carry SourceManual.
const (
	SourceInitial = "initial"
	SourceMerge   = "merge"
	SourceManual  = "manual"
)

// ChoiceOption is one selectable option of a circle_choice field.
type ChoiceOption struct {
	Label       string      `json:"label"`
	Coordinates Coordinates `json:"coordinates"`
}

// Field is a single fillable region on a document page. Fields are owned by
// exactly one document and are never hard-deleted: DeletedAt marks removal so
// questions referencing the field can detect orphaning.
type Field struct {
	ID               string         `json:"id"`
	DocumentID       string         `json:"document_id"`
	PageNumber       int            `json:"page_number"` // 1-based
	FieldIndex       int            `json:"field_index"`
	Label            string         `json:"label"`
	Type             FieldType      `json:"field_type"`
	Coordinates      Coordinates    `json:"coordinates"`
	Value            *string        `json:"value,omitempty"`
	AISuggestedValue *string        `json:"ai_suggested_value,omitempty"`
	Confidence       *float64       `json:"confidence_score,omitempty"`
	DetectionSource  string         `json:"detection_source"`
	ManuallyAdjusted bool           `json:"manually_adjusted"`
	ChoiceOptions    []ChoiceOption `json:"choice_options,omitempty"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// HasValue reports whether the field holds a non-empty filled value.
func (f *Field) HasValue() bool {
	return f.Value != nil && *f.Value != ""
}

// Deleted reports whether the field is soft-deleted.
func (f *Field) Deleted() bool {
	return f.DeletedAt != nil
}

// FieldSpec describes a field to create.
type FieldSpec struct {
	DocumentID       string         `json:"document_id"`
	PageNumber       int            `json:"page_number"`
	FieldIndex       int            `json:"field_index"`
	Label            string         `json:"label"`
	Type             FieldType      `json:"field_type"`
	Coordinates      Coordinates    `json:"coordinates"`
	AISuggestedValue *string        `json:"ai_suggested_value,omitempty"`
	Confidence       *float64       `json:"confidence_score,omitempty"`
	DetectionSource  string         `json:"detection_source"`
	ChoiceOptions    []ChoiceOption `json:"choice_options,omitempty"`
}

// Validate checks the spec against the field invariants.
func (s FieldSpec) Validate() error {
	if s.DocumentID == "" {
		return Validationf("field: document_id is required")
	}
	if s.PageNumber < 1 {
		return Validationf("field: page_number must be >= 1, got %d", s.PageNumber)
	}
	if !s.Type.Valid() {
		return Validationf("field: unknown field_type %q", s.Type)
	}
	return s.Coordinates.Validate()
}

// FieldPatch is a partial update applied through the store. Nil members are
// left untouched; ClearValue nulls the value regardless of Value.
type FieldPatch struct {
	Label            *string      `json:"label,omitempty"`
	Type             *FieldType   `json:"field_type,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	FieldIndex       *int         `json:"field_index,omitempty"`
	Value            *string      `json:"value,omitempty"`
	ClearValue       bool         `json:"clear_value,omitempty"`
	AISuggestedValue *string      `json:"ai_suggested_value,omitempty"`
	Confidence       *float64     `json:"confidence_score,omitempty"`
	ManuallyAdjusted *bool        `json:"manually_adjusted,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p FieldPatch) Empty() bool {
	return p.Label == nil && p.Type == nil && p.Coordinates == nil &&
		p.FieldIndex == nil && p.Value == nil && !p.ClearValue &&
		p.AISuggestedValue == nil && p.Confidence == nil && p.ManuallyAdjusted == nil
}
