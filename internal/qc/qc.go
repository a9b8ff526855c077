// Package qc decides whether the expensive merge pass should run for a
// document, based on aggregate detection confidence and structural
// complexity. The decision is pure: callers own acting on it, and merge runs
// at most once per document regardless of outcome.
package qc

import (
	"fmt"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
)

// Decision is the outcome of the trigger policy.
type Decision struct {
	ShouldRun bool   `json:"should_run"`
	Reason    string `json:"reason"`
}

// Decide evaluates the trigger policy over a document's live fields. A field
// with no confidence score counts as zero confidence.
func Decide(fields []model.Field, cfg config.QCConfig) Decision {
	if len(fields) == 0 {
		return Decision{ShouldRun: true, Reason: "no fields detected"}
	}

	var confidenceSum float64
	var checkboxes int
	for _, f := range fields {
		if f.Confidence != nil {
			confidenceSum += *f.Confidence
		}
		if f.Type == model.FieldCheckbox {
			checkboxes++
		}
	}

	avg := confidenceSum / float64(len(fields))
	if avg < cfg.MinAvgConfidence {
		return Decision{
			ShouldRun: true,
			Reason:    fmt.Sprintf("average confidence %.2f below %.2f", avg, cfg.MinAvgConfidence),
		}
	}

	ratio := float64(checkboxes) / float64(len(fields))
	if ratio > cfg.MaxCheckboxRatio {
		return Decision{
			ShouldRun: true,
			Reason:    fmt.Sprintf("checkbox ratio %.2f above %.2f", ratio, cfg.MaxCheckboxRatio),
		}
	}

	if len(fields) > cfg.MaxFieldCount {
		return Decision{
			ShouldRun: true,
			Reason:    fmt.Sprintf("field count %d above %d", len(fields), cfg.MaxFieldCount),
		}
	}

	return Decision{
		ShouldRun: false,
		Reason:    fmt.Sprintf("average confidence %.2f with low structural complexity", avg),
	}
}
