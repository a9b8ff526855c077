// Package answer distributes a user's free-text answer across the fields a
// question targets. Field values are written before the question row is
// touched, so a question is never observable as answered while its fields
// are still empty.
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// Request is one answer submission. Exactly one of Answer or MemoryChoice
// must be set; the memory choice bypasses the reasoner entirely.
type Request struct {
	Answer       string
	MemoryChoice *model.MemoryChoice
	Time         model.TimeContext
}

// Outcome reports how the answer landed. Partial means some fields resolved
// and the question narrowed to the rest; a non-empty Warning means nothing
// was written.
type Outcome struct {
	Answered bool            `json:"answered"`
	Partial  bool            `json:"partial"`
	Warning  string          `json:"warning,omitempty"`
	Question *model.Question `json:"question"`
}

// Engine implements the distribution policy over a store and a reasoner.
type Engine struct {
	store    store.Store
	reasoner reasoning.Reasoner
	timeout  time.Duration
}

// New creates an answer Engine. The timeout bounds each reasoner call on
// this interactive path.
func New(st store.Store, reasoner reasoning.Reasoner, cfg config.AnswerConfig) *Engine {
	timeout := cfg.ReasonerTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{store: st, reasoner: reasoner, timeout: timeout}
}

// Distribute applies one answer to a question.
func (e *Engine) Distribute(ctx context.Context, questionID string, req Request) (*Outcome, error) {
	if req.MemoryChoice == nil && strings.TrimSpace(req.Answer) == "" {
		return nil, model.Validationf("answer: empty answer")
	}

	question, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	fields, err := e.loadFields(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.Validationf("answer: question %s has no live fields", questionID)
	}

	// Edit path: re-answering an answered question reopens it before any field
	// is cleared, so a failed or unconfident re-parse never leaves a question
	// persisted as answered with empty fields. Stale values are cleared next so
	// they cannot survive a different resolution.
	if question.Status == model.QuestionAnswered {
		visible := model.QuestionVisible
		reopened, err := e.store.UpdateQuestion(ctx, question.ID, model.QuestionPatch{
			Status:      &visible,
			ClearAnswer: true,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "answer: reopen question %s", question.ID)
		}
		question = reopened
		for _, f := range fields {
			if !f.HasValue() {
				continue
			}
			if _, err := e.store.UpdateField(ctx, f.ID, model.FieldPatch{ClearValue: true}); err != nil {
				return nil, eris.Wrapf(err, "answer: clear field %s", f.ID)
			}
		}
	}

	if req.MemoryChoice != nil {
		return e.applyMemoryChoice(ctx, question, fields, *req.MemoryChoice)
	}
	return e.applyParsed(ctx, question, fields, req)
}

// loadFields returns the question's live fields in field_ids order.
func (e *Engine) loadFields(ctx context.Context, question *model.Question) ([]model.Field, error) {
	all, err := e.store.ListFields(ctx, question.DocumentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Field, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}
	fields := make([]model.Field, 0, len(question.FieldIDs))
	for _, id := range question.FieldIDs {
		if f, ok := byID[id]; ok {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (e *Engine) applyMemoryChoice(ctx context.Context, question *model.Question, fields []model.Field, choice model.MemoryChoice) (*Outcome, error) {
	values := make(map[string]string, len(choice.Values))
	for label, value := range choice.Values {
		values[model.NormalizeLabel(label)] = value
	}

	matched := 0
	for _, f := range fields {
		value, ok := values[model.NormalizeLabel(f.Label)]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		v := strings.TrimSpace(value)
		if _, err := e.store.UpdateField(ctx, f.ID, model.FieldPatch{Value: &v}); err != nil {
			return nil, eris.Wrapf(err, "answer: write field %s", f.ID)
		}
		matched++
	}
	if matched == 0 {
		return nil, model.Validationf("answer: memory choice %q matched no fields", choice.Label)
	}

	answered := model.QuestionAnswered
	label := choice.Label
	updated, err := e.store.UpdateQuestion(ctx, question.ID, model.QuestionPatch{
		Status: &answered,
		Answer: &label,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("answer: memory choice applied",
		zap.String("question_id", question.ID),
		zap.Int("fields_written", matched))
	return &Outcome{Answered: true, Question: updated}, nil
}

func (e *Engine) applyParsed(ctx context.Context, question *model.Question, fields []model.Field, req Request) (*Outcome, error) {
	parseCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.reasoner.ParseAnswer(parseCtx, reasoning.ParseRequest{
		Question: *question,
		Fields:   fields,
		Answer:   req.Answer,
		Time:     req.Time,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "answer: parse question %s", question.ID)
	}

	if !result.Confident {
		warning := result.Warning
		if warning == "" {
			warning = "could not confidently interpret the answer"
		}
		zap.L().Info("answer: low confidence, nothing written",
			zap.String("question_id", question.ID),
			zap.String("warning", warning))
		return &Outcome{Warning: warning, Question: question}, nil
	}

	written := 0
	for _, pv := range result.ParsedValues {
		v := strings.TrimSpace(pv.Value)
		if v == "" {
			continue
		}
		if _, err := e.store.UpdateField(ctx, pv.FieldID, model.FieldPatch{Value: &v}); err != nil {
			return nil, eris.Wrapf(err, "answer: write field %s", pv.FieldID)
		}
		written++
	}

	if len(result.MissingFields) > 0 {
		// Partial fill: the question narrows to the unresolved fields and
		// re-asks with the follow-up text.
		text := result.FollowUpQuestion
		if text == "" {
			text = question.Text
		}
		visible := model.QuestionVisible
		missing := result.MissingFields
		updated, err := e.store.UpdateQuestion(ctx, question.ID, model.QuestionPatch{
			Text:        &text,
			FieldIDs:    &missing,
			Status:      &visible,
			ClearAnswer: true,
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("answer: partial fill",
			zap.String("question_id", question.ID),
			zap.Int("fields_written", written),
			zap.Int("fields_missing", len(missing)))
		return &Outcome{Partial: true, Question: updated}, nil
	}

	if written == 0 {
		// Confident but nothing usable parsed: treat as a low-confidence
		// outcome rather than marking an empty question answered.
		return &Outcome{Warning: "answer produced no field values", Question: question}, nil
	}

	answered := model.QuestionAnswered
	answerText := req.Answer
	updated, err := e.store.UpdateQuestion(ctx, question.ID, model.QuestionPatch{
		Status: &answered,
		Answer: &answerText,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("answer: question answered",
		zap.String("question_id", question.ID),
		zap.Int("fields_written", written))
	return &Outcome{Answered: true, Question: updated}, nil
}
