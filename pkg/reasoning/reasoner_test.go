package reasoning

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
)

type fakeClient struct {
	resp    *MessageResponse
	err     error
	lastReq MessageRequest
	calls   int
}

func (c *fakeClient) CreateMessage(_ context.Context, req MessageRequest) (*MessageResponse, error) {
	c.lastReq = req
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func textResponse(text string) *MessageResponse {
	return &MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func testAnthropicConfig() config.AnthropicConfig {
	return config.AnthropicConfig{
		ReasoningModel: "claude-haiku-4-5-20251001",
		VisionModel:    "claude-sonnet-4-5-20250929",
		MaxTokens:      4096,
		RequestsPerSec: 1000,
	}
}

func TestReasoner_ParseAnswer(t *testing.T) {
	question := model.Question{
		ID:       "q-1",
		Text:     "What is your full name?",
		FieldIDs: []string{"f-first", "f-last"},
	}
	fields := []model.Field{
		{ID: "f-first", Label: "First Name", Type: model.FieldText},
		{ID: "f-last", Label: "Last Name", Type: model.FieldText},
	}

	t.Run("full resolution", func(t *testing.T) {
		client := &fakeClient{resp: textResponse(`{
			"parsed_values": [
				{"field_id": "f-first", "value": "Jane"},
				{"field_id": "f-last", "value": "Smith"}
			],
			"confident": true
		}`)}
		r := NewReasoner(client, testAnthropicConfig())

		result, err := r.ParseAnswer(context.Background(), ParseRequest{
			Question: question,
			Fields:   fields,
			Answer:   "Jane Smith",
		})
		require.NoError(t, err)
		assert.True(t, result.Confident)
		assert.Len(t, result.ParsedValues, 2)
		assert.Empty(t, result.MissingFields)
		assert.Equal(t, "claude-haiku-4-5-20251001", client.lastReq.Model)
	})

	t.Run("fenced output still parses", func(t *testing.T) {
		client := &fakeClient{resp: textResponse("```json\n{\"parsed_values\":[{\"field_id\":\"f-first\",\"value\":\"Jane\"}],\"confident\":true}\n```")}
		r := NewReasoner(client, testAnthropicConfig())

		result, err := r.ParseAnswer(context.Background(), ParseRequest{Question: question, Fields: fields, Answer: "Jane"})
		require.NoError(t, err)
		require.Len(t, result.ParsedValues, 1)
		assert.Equal(t, "Jane", result.ParsedValues[0].Value)
	})

	t.Run("hallucinated field ids are dropped", func(t *testing.T) {
		client := &fakeClient{resp: textResponse(`{
			"parsed_values": [
				{"field_id": "f-first", "value": "Jane"},
				{"field_id": "f-bogus", "value": "x"}
			],
			"missing_field_ids": ["f-last", "f-other"],
			"confident": true,
			"follow_up_question": "What is your last name?"
		}`)}
		r := NewReasoner(client, testAnthropicConfig())

		result, err := r.ParseAnswer(context.Background(), ParseRequest{Question: question, Fields: fields, Answer: "Jane"})
		require.NoError(t, err)
		require.Len(t, result.ParsedValues, 1)
		assert.Equal(t, "f-first", result.ParsedValues[0].FieldID)
		assert.Equal(t, []string{"f-last"}, result.MissingFields)
		assert.Equal(t, "What is your last name?", result.FollowUpQuestion)
	})

	t.Run("not confident", func(t *testing.T) {
		client := &fakeClient{resp: textResponse(`{"confident": false, "warning": "answer does not mention a name"}`)}
		r := NewReasoner(client, testAnthropicConfig())

		result, err := r.ParseAnswer(context.Background(), ParseRequest{Question: question, Fields: fields, Answer: "maybe later"})
		require.NoError(t, err)
		assert.False(t, result.Confident)
		assert.NotEmpty(t, result.Warning)
		assert.Empty(t, result.ParsedValues)
	})

	t.Run("time context reaches the prompt", func(t *testing.T) {
		client := &fakeClient{resp: textResponse(`{"confident": true}`)}
		r := NewReasoner(client, testAnthropicConfig())

		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		_, err := r.ParseAnswer(context.Background(), ParseRequest{
			Question: question,
			Fields:   fields,
			Answer:   "next Tuesday",
			Time:     model.TimeContext{Now: now, Timezone: "America/Chicago"},
		})
		require.NoError(t, err)
		assert.Contains(t, client.lastReq.Messages[0].Text, "March 10, 2026")
		assert.Contains(t, client.lastReq.Messages[0].Text, "America/Chicago")
	})

	t.Run("client failure surfaces as unavailable", func(t *testing.T) {
		client := &fakeClient{err: eris.New("boom")}
		r := NewReasoner(client, testAnthropicConfig())

		_, err := r.ParseAnswer(context.Background(), ParseRequest{Question: question, Fields: fields, Answer: "Jane"})
		assert.True(t, eris.Is(err, ErrUnavailable))
		assert.Equal(t, 1, client.calls, "permanent errors are not retried")
	})

	t.Run("malformed json", func(t *testing.T) {
		client := &fakeClient{resp: textResponse("I could not help with that.")}
		r := NewReasoner(client, testAnthropicConfig())

		_, err := r.ParseAnswer(context.Background(), ParseRequest{Question: question, Fields: fields, Answer: "Jane"})
		assert.Error(t, err)
		assert.False(t, eris.Is(err, ErrUnavailable))
	})
}

func TestReasoner_ReconcileQuestions(t *testing.T) {
	req := ReconcileRequest{
		SourceQuestion: model.Question{ID: "q-src", Text: "What is your full name?"},
		SourceAnswer:   "Jane Smith, born 05/01/1990",
		Candidates: []CandidateQuestion{
			{Question: model.Question{ID: "q-dob", Text: "What is your date of birth?"},
				Fields: []model.Field{{ID: "f-dob", Label: "DOB", Type: model.FieldDate}}},
			{Question: model.Question{ID: "q-phone", Text: "What is your phone number?"},
				Fields: []model.Field{{ID: "f-phone", Label: "Phone", Type: model.FieldText}}},
		},
	}

	t.Run("proposes only known questions with non-empty answers", func(t *testing.T) {
		client := &fakeClient{resp: textResponse(`{
			"answers": [
				{"question_id": "q-dob", "answer": "05/01/1990", "reasoning": "stated in the name answer"},
				{"question_id": "q-unknown", "answer": "x"},
				{"question_id": "q-phone", "answer": "  "}
			]
		}`)}
		r := NewReasoner(client, testAnthropicConfig())

		answers, err := r.ReconcileQuestions(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, answers, 1)
		assert.Equal(t, "q-dob", answers[0].QuestionID)
		assert.Equal(t, "05/01/1990", answers[0].Answer)
	})

	t.Run("no candidates short-circuits", func(t *testing.T) {
		client := &fakeClient{}
		r := NewReasoner(client, testAnthropicConfig())

		answers, err := r.ReconcileQuestions(context.Background(), ReconcileRequest{
			SourceQuestion: req.SourceQuestion,
			SourceAnswer:   req.SourceAnswer,
		})
		require.NoError(t, err)
		assert.Empty(t, answers)
		assert.Zero(t, client.calls)
	})
}
