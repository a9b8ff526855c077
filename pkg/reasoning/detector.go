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

// Detector finds fillable fields on a rendered page image.
type Detector interface {
	DetectFields(ctx context.Context, req DetectRequest) ([]model.CandidateField, error)
}

// DetectRequest carries one page render. Existing fields, when provided, let
// the pass correct labels and types instead of detecting blind.
type DetectRequest struct {
	PageNumber int
	Image      Image
	Existing   []model.Field
}

type anthropicDetector struct {
	client  Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewDetector creates a vision-mode field detector over the given client.
func NewDetector(client Client, cfg config.AnthropicConfig) Detector {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "detector")
	return &anthropicDetector{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   retry,
	}
}

// detectWire is the JSON shape the detection prompt asks for.
type detectWire struct {
	Fields []struct {
		Label          string               `json:"label"`
		FieldType      string               `json:"field_type"`
		Coordinates    model.Coordinates    `json:"coordinates"`
		Confidence     *float64             `json:"confidence"`
		SuggestedValue string               `json:"suggested_value"`
		ChoiceOptions  []model.ChoiceOption `json:"choice_options"`
	} `json:"fields"`
}

func (d *anthropicDetector) DetectFields(ctx context.Context, req DetectRequest) ([]model.CandidateField, error) {
	if req.Image.Data == "" {
		return nil, model.Validationf("detector: page %d image is empty", req.PageNumber)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "detector: rate limit wait")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detect every fillable field on this form page (page %d).\n", req.PageNumber)
	if len(req.Existing) > 0 {
		b.WriteString("\nKnown fields on this page:\n")
		for _, f := range req.Existing {
			fmt.Fprintf(&b, "- label=%q type=%s left=%.1f top=%.1f width=%.1f height=%.1f\n",
				f.Label, f.Type, f.Coordinates.Left, f.Coordinates.Top,
				f.Coordinates.Width, f.Coordinates.Height)
		}
	}

	resp, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) (*MessageResponse, error) {
		return d.client.CreateMessage(ctx, MessageRequest{
			Model:     d.cfg.VisionModel,
			MaxTokens: d.cfg.MaxTokens,
			System:    detectSystem,
			Messages: []Message{{
				Role:  "user",
				Text:  b.String(),
				Image: &req.Image,
			}},
		})
	})
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "detect page %d: %v", req.PageNumber, err)
	}

	resp.Usage.LogCost(d.cfg.VisionModel, "detect_fields")

	var wire detectWire
	if err := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &wire); err != nil {
		return nil, eris.Wrapf(err, "detector: page %d json", req.PageNumber)
	}

	candidates := make([]model.CandidateField, 0, len(wire.Fields))
	for _, f := range wire.Fields {
		ft := model.FieldType(f.FieldType)
		if !ft.Valid() {
			zap.L().Warn("detector returned unknown field type",
				zap.Int("page", req.PageNumber),
				zap.String("field_type", f.FieldType),
				zap.String("label", f.Label))
			continue
		}
		c := model.CandidateField{
			Label:         strings.TrimSpace(f.Label),
			Type:          ft,
			Coordinates:   f.Coordinates.Clamp(),
			Confidence:    f.Confidence,
			ChoiceOptions: f.ChoiceOptions,
		}
		if v := strings.TrimSpace(f.SuggestedValue); v != "" {
			c.AISuggestedValue = &v
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
