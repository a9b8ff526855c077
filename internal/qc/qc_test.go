package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
)

func testQCConfig() config.QCConfig {
	return config.QCConfig{
		MinAvgConfidence: 0.8,
		MaxCheckboxRatio: 0.4,
		MaxFieldCount:    60,
	}
}

func confField(t model.FieldType, conf *float64) model.Field {
	return model.Field{Type: t, Confidence: conf}
}

func conf(v float64) *float64 { return &v }

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		fields    []model.Field
		shouldRun bool
	}{
		{
			name:      "no fields",
			fields:    nil,
			shouldRun: true,
		},
		{
			name: "high confidence, low complexity",
			fields: []model.Field{
				confField(model.FieldText, conf(0.95)),
				confField(model.FieldText, conf(0.9)),
				confField(model.FieldDate, conf(0.85)),
			},
			shouldRun: false,
		},
		{
			name: "low average confidence",
			fields: []model.Field{
				confField(model.FieldText, conf(0.9)),
				confField(model.FieldText, conf(0.5)),
			},
			shouldRun: true,
		},
		{
			name: "nil confidence counts as zero",
			fields: []model.Field{
				confField(model.FieldText, conf(0.95)),
				confField(model.FieldText, nil),
			},
			shouldRun: true,
		},
		{
			name: "checkbox heavy",
			fields: []model.Field{
				confField(model.FieldCheckbox, conf(0.95)),
				confField(model.FieldCheckbox, conf(0.95)),
				confField(model.FieldCheckbox, conf(0.95)),
				confField(model.FieldText, conf(0.95)),
			},
			shouldRun: true,
		},
		{
			name: "checkbox ratio at the threshold does not trigger",
			fields: []model.Field{
				confField(model.FieldCheckbox, conf(0.95)),
				confField(model.FieldCheckbox, conf(0.95)),
				confField(model.FieldText, conf(0.95)),
				confField(model.FieldText, conf(0.95)),
				confField(model.FieldText, conf(0.95)),
			},
			shouldRun: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.fields, testQCConfig())
			assert.Equal(t, tt.shouldRun, d.ShouldRun)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestDecide_FieldCountThreshold(t *testing.T) {
	fields := make([]model.Field, 61)
	for i := range fields {
		fields[i] = confField(model.FieldText, conf(0.95))
	}
	d := Decide(fields, testQCConfig())
	assert.True(t, d.ShouldRun)
	assert.Contains(t, d.Reason, "field count")
}
