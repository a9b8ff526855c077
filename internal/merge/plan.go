// Package merge reconciles a second detection pass against the stored field
// set. Matching is geometric: a candidate and an existing field are the same
// field when the intersection covers enough of the smaller box. Decisions are
// computed per page and applied atomically per page.
package merge

import (
	"fmt"
	"sort"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
)

// Plan compares one page's candidates against its live fields and returns
// the decisions to apply. Existing fields must all belong to the examined
// page: unmatched ones are dropped, so callers scope the slice to the pages
// the pass actually re-detected.
func Plan(existing []model.Field, candidates []model.CandidateField, cfg config.MergeConfig) []model.MergeDecision {
	type pair struct {
		ci, ei  int
		overlap float64
	}

	var pairs []pair
	for ci, c := range candidates {
		for ei, e := range existing {
			if overlap := c.Coordinates.OverlapFraction(e.Coordinates); overlap >= cfg.OverlapThreshold {
				pairs = append(pairs, pair{ci: ci, ei: ei, overlap: overlap})
			}
		}
	}
	// Greedy one-to-one assignment, best overlap first. Ties break on slice
	// order so the plan is deterministic.
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].overlap > pairs[j].overlap })

	matchedCandidate := make(map[int]int, len(pairs)) // candidate index -> existing index
	matchedExisting := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		if _, ok := matchedCandidate[p.ci]; ok || matchedExisting[p.ei] {
			continue
		}
		matchedCandidate[p.ci] = p.ei
		matchedExisting[p.ei] = true
	}

	var decisions []model.MergeDecision
	for ci := range candidates {
		c := candidates[ci]
		ei, ok := matchedCandidate[ci]
		if !ok {
			decisions = append(decisions, model.MergeDecision{
				Kind:      model.DecisionAdd,
				Candidate: &c,
				Reason:    "no overlapping field",
			})
			continue
		}

		e := existing[ei]
		if e.ManuallyAdjusted {
			// User placements are sticky: never moved, relabeled or retyped.
			decisions = append(decisions, model.MergeDecision{
				Kind:       model.DecisionKeep,
				ExistingID: e.ID,
				Reason:     "manually adjusted",
			})
			continue
		}

		patch, reason := diff(e, c, cfg.CoordTolerance)
		if patch == nil {
			decisions = append(decisions, model.MergeDecision{
				Kind:       model.DecisionKeep,
				ExistingID: e.ID,
				Reason:     "within tolerance",
			})
			continue
		}
		decisions = append(decisions, model.MergeDecision{
			Kind:       model.DecisionAdjust,
			ExistingID: e.ID,
			Patch:      patch,
			Reason:     reason,
		})
	}

	for ei := range existing {
		if matchedExisting[ei] || existing[ei].ManuallyAdjusted {
			continue
		}
		decisions = append(decisions, model.MergeDecision{
			Kind:       model.DecisionDrop,
			ExistingID: existing[ei].ID,
			Reason:     "not re-detected",
		})
	}

	return decisions
}

// diff builds the patch that brings an existing field in line with its
// matched candidate, or nil when nothing is materially different. The
// refinement pass may correct labels and types, so those compare too.
func diff(e model.Field, c model.CandidateField, tolerance float64) (*model.FieldPatch, string) {
	var patch model.FieldPatch
	var reason string

	if !e.Coordinates.WithinTolerance(c.Coordinates, tolerance) {
		coords := c.Coordinates
		patch.Coordinates = &coords
		reason = fmt.Sprintf("coordinates moved beyond %.1f points", tolerance)
	}
	if !model.LabelsEqual(e.Label, c.Label) && c.Label != "" {
		label := c.Label
		patch.Label = &label
		reason = "label corrected"
	}
	if e.Type != c.Type {
		ft := c.Type
		patch.Type = &ft
		reason = "type corrected"
	}

	if patch.Empty() {
		return nil, ""
	}
	if c.Confidence != nil {
		patch.Confidence = c.Confidence
	}
	if c.AISuggestedValue != nil && !e.HasValue() {
		patch.AISuggestedValue = c.AISuggestedValue
	}
	return &patch, reason
}
