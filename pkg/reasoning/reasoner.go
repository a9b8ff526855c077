package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
)

// Reasoner interprets free-text answers against form fields.
type Reasoner interface {
	// ParseAnswer distributes one answer across the fields a question targets.
	ParseAnswer(ctx context.Context, req ParseRequest) (*model.ParseResult, error)
	// ReconcileQuestions proposes answers for other open questions that the
	// source answer already covers.
	ReconcileQuestions(ctx context.Context, req ReconcileRequest) ([]model.AutoAnswer, error)
}

// ParseRequest carries one question, its live fields, and the user's answer.
type ParseRequest struct {
	Question model.Question
	Fields   []model.Field
	Answer   string
	Time     model.TimeContext
}

// ReconcileRequest carries the just-answered question plus the candidates a
// reconciliation pass may resolve.
type ReconcileRequest struct {
	SourceQuestion model.Question
	SourceAnswer   string
	Candidates     []CandidateQuestion
}

// CandidateQuestion pairs a question with its live fields for prompting.
type CandidateQuestion struct {
	Question model.Question
	Fields   []model.Field
}

type anthropicReasoner struct {
	client  Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewReasoner creates a rate-limited, retrying Reasoner over the given client.
func NewReasoner(client Client, cfg config.AnthropicConfig) Reasoner {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "reasoner")
	return &anthropicReasoner{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   retry,
	}
}

// complete runs one rate-limited, retried message call and returns the
// response text. Exhausted retries surface as ErrUnavailable.
func (r *anthropicReasoner) complete(ctx context.Context, phase, system, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "reasoner: rate limit wait")
	}

	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*MessageResponse, error) {
		return r.client.CreateMessage(ctx, MessageRequest{
			Model:     r.cfg.ReasoningModel,
			MaxTokens: r.cfg.MaxTokens,
			System:    system,
			Messages:  []Message{{Role: "user", Text: prompt}},
		})
	})
	if err != nil {
		return "", eris.Wrapf(ErrUnavailable, "%s: %v", phase, err)
	}

	resp.Usage.LogCost(r.cfg.ReasoningModel, phase)
	return extractText(resp), nil
}

// parseResultWire is the JSON shape the parse prompt asks for.
type parseResultWire struct {
	ParsedValues     []model.ParsedValue `json:"parsed_values"`
	MissingFieldIDs  []string            `json:"missing_field_ids"`
	Confident        bool                `json:"confident"`
	FollowUpQuestion string              `json:"follow_up_question"`
	Warning          string              `json:"warning"`
}

func (r *anthropicReasoner) ParseAnswer(ctx context.Context, req ParseRequest) (*model.ParseResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nFields:\n", req.Question.Text)
	writeFieldLines(&b, req.Fields)
	fmt.Fprintf(&b, "\nUser's answer: %s\n", req.Answer)
	if !req.Time.Now.IsZero() {
		fmt.Fprintf(&b, "\nCurrent time: %s", req.Time.Now.Format("Monday, January 2, 2006 15:04"))
		if req.Time.Timezone != "" {
			fmt.Fprintf(&b, " (%s)", req.Time.Timezone)
		}
		b.WriteString("\n")
	}

	text, err := r.complete(ctx, "parse_answer", parseAnswerSystem, b.String())
	if err != nil {
		return nil, err
	}

	var wire parseResultWire
	if err := json.Unmarshal([]byte(cleanJSON(text)), &wire); err != nil {
		return nil, eris.Wrap(err, "reasoner: parse answer json")
	}

	// Drop values for field ids the question does not actually target.
	known := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		known[f.ID] = true
	}
	result := &model.ParseResult{
		Confident:        wire.Confident,
		FollowUpQuestion: strings.TrimSpace(wire.FollowUpQuestion),
		Warning:          strings.TrimSpace(wire.Warning),
	}
	for _, pv := range wire.ParsedValues {
		if !known[pv.FieldID] {
			zap.L().Warn("reasoner returned unknown field id",
				zap.String("question_id", req.Question.ID),
				zap.String("field_id", pv.FieldID))
			continue
		}
		result.ParsedValues = append(result.ParsedValues, pv)
	}
	for _, id := range wire.MissingFieldIDs {
		if known[id] {
			result.MissingFields = append(result.MissingFields, id)
		}
	}
	return result, nil
}

type reconcileWire struct {
	Answers []model.AutoAnswer `json:"answers"`
}

func (r *anthropicReasoner) ReconcileQuestions(ctx context.Context, req ReconcileRequest) ([]model.AutoAnswer, error) {
	if len(req.Candidates) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answered question: %s\nUser's answer: %s\n\nOpen questions:\n",
		req.SourceQuestion.Text, req.SourceAnswer)
	for _, c := range req.Candidates {
		fmt.Fprintf(&b, "\n[%s] %s\nFields:\n", c.Question.ID, c.Question.Text)
		writeFieldLines(&b, c.Fields)
	}

	text, err := r.complete(ctx, "reconcile", reconcileSystem, b.String())
	if err != nil {
		return nil, err
	}

	var wire reconcileWire
	if err := json.Unmarshal([]byte(cleanJSON(text)), &wire); err != nil {
		return nil, eris.Wrap(err, "reasoner: reconcile json")
	}

	known := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		known[c.Question.ID] = true
	}
	var answers []model.AutoAnswer
	for _, a := range wire.Answers {
		if !known[a.QuestionID] || strings.TrimSpace(a.Answer) == "" {
			continue
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// writeFieldLines renders fields the way both prompts expect them.
func writeFieldLines(b *strings.Builder, fields []model.Field) {
	for _, f := range fields {
		fmt.Fprintf(b, "- id=%s label=%q type=%s", f.ID, f.Label, f.Type)
		if len(f.ChoiceOptions) > 0 {
			labels := make([]string, len(f.ChoiceOptions))
			for i, o := range f.ChoiceOptions {
				labels[i] = o.Label
			}
			fmt.Fprintf(b, " options=[%s]", strings.Join(labels, ", "))
		}
		b.WriteString("\n")
	}
}
