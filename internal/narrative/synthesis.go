// Package narrative turns structured scoring output into free-text
// expansion commentary via Claude. The scoring layer never depends on this
// package; it only consumes the metrics the scoring layer produces.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/pkg/anthropic"
)

// cityPrompt is the system prompt for city expansion evaluation.
const cityPrompt = `You are evaluating a city for grocery store chain expansion.
Consider: existing chain presence, competitor density, demographics, market saturation, and expansion opportunity.

Respond with ONLY valid JSON, no other text:
{"score": 0.0, "summary": "...", "strengths": ["..."], "concerns": ["..."], "recommendation": "..."}`

// parcelPrompt is the system prompt for candidate parcel evaluation.
const parcelPrompt = `You are evaluating a commercial parcel for grocery store development.
Consider: acreage (15-25 acres ideal), zoning status, proximity to existing and competitor stores, co-tenancy quality, demographic fit, and market opportunity.

Respond with ONLY valid JSON, no other text:
{"score": 0.0, "summary": "...", "strengths": ["..."], "concerns": ["..."], "recommendation": "..."}`

// Evaluation is the structured form a model reply may take.
type Evaluation struct {
	Score          *float64 `json:"score,omitempty"`
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths,omitempty"`
	Concerns       []string `json:"concerns,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Result is the typed union of what narrative synthesis returns: a parsed
// Evaluation when the reply carried JSON, otherwise just the raw text.
// Callers branch on IsStructured instead of probing loose maps.
type Result struct {
	Structured *Evaluation
	Raw        string
}

// IsStructured reports whether the model reply parsed into an Evaluation.
func (r Result) IsStructured() bool {
	return r.Structured != nil
}

// CityContext bundles the metrics fed to a city evaluation.
type CityContext struct {
	City          string                    `json:"city"`
	State         string                    `json:"state"`
	Demographics  *model.DemographicProfile `json:"demographics,omitempty"`
	Density       *model.DensityMetrics     `json:"density,omitempty"`
	Opportunity   *model.OpportunityScore   `json:"opportunity,omitempty"`
	NearestBrands map[string]float64        `json:"nearest_competitors_miles,omitempty"`
}

// ParcelContext bundles the metrics fed to a parcel evaluation.
type ParcelContext struct {
	Parcel            model.Parcel           `json:"parcel"`
	NearbyChain       int                    `json:"nearby_chain_stores"`
	NearbyCompetitors int                    `json:"nearby_competitors"`
	CoTenancy         *model.CoTenancyResult `json:"co_tenancy,omitempty"`
	ROI               *model.ROIEstimate     `json:"roi,omitempty"`
}

// Synthesizer generates narrative evaluations through an Anthropic client.
type Synthesizer struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
}

// NewSynthesizer creates a Synthesizer for the given model.
func NewSynthesizer(ai anthropic.Client, model string, maxTokens int64) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Synthesizer{ai: ai, model: model, maxTokens: maxTokens}
}

// EvaluateCity synthesizes an expansion evaluation for one city.
func (s *Synthesizer) EvaluateCity(ctx context.Context, cc CityContext) (Result, error) {
	task := fmt.Sprintf("Evaluate %s, %s for expansion:\n\n", cc.City, cc.State)
	return s.synthesize(ctx, "city_eval", cityPrompt, task, cc)
}

// EvaluateParcel synthesizes a suitability evaluation for one parcel.
func (s *Synthesizer) EvaluateParcel(ctx context.Context, pc ParcelContext) (Result, error) {
	task := fmt.Sprintf("Evaluate parcel %s in %s, %s for store development:\n\n",
		pc.Parcel.ParcelID, pc.Parcel.City, pc.Parcel.State)
	return s.synthesize(ctx, "parcel_eval", parcelPrompt, task, pc)
}

// synthesize sends the serialized context to Claude and wraps the reply.
// The metrics payload is opaque to this layer beyond JSON serialization.
func (s *Synthesizer) synthesize(ctx context.Context, phase, system, task string, payload any) (Result, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Result{}, eris.Wrap(err, "narrative: marshal context")
	}

	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: task + string(data)}},
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "narrative: claude request")
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Result{}, eris.New("narrative: empty claude response")
	}

	resp.Usage.LogUsage(s.model, phase)
	return parseReply(text), nil
}

// parseReply extracts JSON from a model reply when present. Replies without
// parseable JSON degrade to raw text rather than failing the call.
func parseReply(text string) Result {
	result := Result{Raw: text}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return result
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(text[start:end+1]), &eval); err != nil {
		zap.L().Debug("narrative: reply JSON did not parse, keeping raw text", zap.Error(err))
		return result
	}

	result.Structured = &eval
	return result
}
