package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionReferences(t *testing.T) {
	q := Question{FieldIDs: []string{"f1", "f2"}}
	assert.True(t, q.References("f1"))
	assert.False(t, q.References("f3"))
}

func TestQuestionWithoutField(t *testing.T) {
	q := Question{FieldIDs: []string{"f1", "f2", "f3"}}
	assert.Equal(t, []string{"f1", "f3"}, q.WithoutField("f2"))
	assert.Equal(t, []string{"f1", "f2", "f3"}, q.WithoutField("missing"))

	sole := Question{FieldIDs: []string{"f1"}}
	assert.Empty(t, sole.WithoutField("f1"))
}

func TestQuestionSpecValidate(t *testing.T) {
	valid := QuestionSpec{DocumentID: "doc", Text: "What is your name?", FieldIDs: []string{"f1"}}
	assert.NoError(t, valid.Validate())

	for name, spec := range map[string]QuestionSpec{
		"missing document": {Text: "q", FieldIDs: []string{"f1"}},
		"missing text":     {DocumentID: "doc", FieldIDs: []string{"f1"}},
		"no fields":        {DocumentID: "doc", Text: "q"},
	} {
		t.Run(name, func(t *testing.T) {
			err := spec.Validate()
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestFieldSpecValidate(t *testing.T) {
	valid := FieldSpec{
		DocumentID:  "doc",
		PageNumber:  1,
		Type:        FieldText,
		Coordinates: Coordinates{Left: 10, Top: 10, Width: 20, Height: 3},
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.PageNumber = 0
	assert.True(t, errors.Is(bad.Validate(), ErrValidation))

	bad = valid
	bad.Type = "dropdown"
	assert.True(t, errors.Is(bad.Validate(), ErrValidation))

	bad = valid
	bad.Coordinates.Width = 0
	assert.True(t, errors.Is(bad.Validate(), ErrValidation))
}
