package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/pkg/anthropic"
)

// mockClient returns a canned response and records the last request.
type mockClient struct {
	response *anthropic.MessageResponse
	err      error
	lastReq  anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestEvaluateCity_StructuredReply(t *testing.T) {
	ai := &mockClient{response: textResponse(
		`{"score": 0.82, "summary": "strong market", "strengths": ["low saturation"], "concerns": ["flood zone"], "recommendation": "expand"}`,
	)}
	s := NewSynthesizer(ai, "claude-sonnet-4-5-20250929", 1024)

	result, err := s.EvaluateCity(context.Background(), CityContext{
		City:  "Ocala",
		State: "FL",
		Density: &model.DensityMetrics{
			TargetStoreCount: 1,
			SaturationScore:  0.2,
		},
	})
	require.NoError(t, err)

	require.True(t, result.IsStructured())
	require.NotNil(t, result.Structured.Score)
	assert.InDelta(t, 0.82, *result.Structured.Score, 0.001)
	assert.Equal(t, "strong market", result.Structured.Summary)
	assert.Equal(t, []string{"low saturation"}, result.Structured.Strengths)
	assert.Equal(t, "expand", result.Structured.Recommendation)

	// The city and the metrics travel in the user message.
	require.Len(t, ai.lastReq.Messages, 1)
	assert.Contains(t, ai.lastReq.Messages[0].Content, "Ocala")
	assert.Contains(t, ai.lastReq.Messages[0].Content, "saturation_score")
}

func TestEvaluateCity_RawTextReply(t *testing.T) {
	ai := &mockClient{response: textResponse("The market looks promising but data is thin.")}
	s := NewSynthesizer(ai, "claude-sonnet-4-5-20250929", 1024)

	result, err := s.EvaluateCity(context.Background(), CityContext{City: "Ocala", State: "FL"})
	require.NoError(t, err)

	assert.False(t, result.IsStructured())
	assert.Equal(t, "The market looks promising but data is thin.", result.Raw)
}

func TestEvaluateParcel_EmbeddedJSON(t *testing.T) {
	ai := &mockClient{response: textResponse(
		`Here is my analysis: {"score": 0.6, "summary": "workable site"} Done.`,
	)}
	s := NewSynthesizer(ai, "claude-sonnet-4-5-20250929", 0)

	result, err := s.EvaluateParcel(context.Background(), ParcelContext{
		Parcel: model.Parcel{ParcelID: "P-100", City: "Ocala", State: "FL", Acreage: 18},
	})
	require.NoError(t, err)

	require.True(t, result.IsStructured())
	assert.Equal(t, "workable site", result.Structured.Summary)
	// Raw reply is preserved alongside the parsed form.
	assert.Contains(t, result.Raw, "Here is my analysis")
}

func TestSynthesize_EmptyResponse(t *testing.T) {
	ai := &mockClient{response: &anthropic.MessageResponse{}}
	s := NewSynthesizer(ai, "claude-sonnet-4-5-20250929", 1024)

	_, err := s.EvaluateCity(context.Background(), CityContext{City: "Ocala", State: "FL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseReply_MalformedJSON(t *testing.T) {
	result := parseReply(`{"score": not json}`)
	assert.False(t, result.IsStructured())
	assert.Equal(t, `{"score": not json}`, result.Raw)
}
