package emotion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
)

func TestNewServiceWithoutModelUsesKeywords(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, svc.Enabled())
	assert.Equal(t, SourceKeywords, svc.Mode())

	guidance := svc.Resolve(context.Background(), nil, "I feel so sad and alone")
	assert.Equal(t, analysis.Sadness, guidance.Label)
	assert.Equal(t, SourceKeywords, guidance.Source)
	assert.InDelta(t, 0.55, guidance.Confidence, 0.001)
}

func TestResolveFallbackConfidenceWhenNothingMatches(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{})
	require.NoError(t, err)

	guidance := svc.Resolve(context.Background(), nil, "the bus is at seven")
	assert.Equal(t, analysis.Neutral, guidance.Label)
	assert.InDelta(t, 0.3, guidance.Confidence, 0.001)
}

func TestNilServiceResolves(t *testing.T) {
	var svc *Service
	assert.False(t, svc.Enabled())
	assert.Equal(t, analysis.Anger, svc.Resolve(context.Background(), nil, "I hate this").Label)
}

func TestParseClassifierOutput(t *testing.T) {
	payload, err := parseClassifierOutput("Sure!\n```json\n{\"emotion\":\"fear\",\"confidence\":0.8,\"reason\":\"worried\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "fear", payload.Emotion)
	assert.InDelta(t, 0.8, payload.Confidence, 0.001)

	_, err = parseClassifierOutput("no json here")
	assert.Error(t, err)
}

func TestFormatHistoryRespectsLimit(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []chat.Record{
		chat.NewRecord("1", ts, "first", "r", analysis.Joy),
		chat.NewRecord("2", ts, "second", "r", analysis.Sadness),
		chat.NewRecord("3", ts, "third", "r", analysis.Fear),
	}

	got := formatHistory(records, 2)
	assert.Equal(t, "User: second [sadness]\nUser: third [fear]", got)
	assert.Equal(t, "(no earlier messages)", formatHistory(nil, 2))
}

func TestClampConfidence(t *testing.T) {
	assert.InDelta(t, 0.6, clampConfidence(0), 0.001)
	assert.InDelta(t, 1, clampConfidence(3), 0.001)
	assert.InDelta(t, 0.4, clampConfidence(0.4), 0.001)
}

func TestLabelList(t *testing.T) {
	assert.Equal(t, "joy/sadness/anger/fear/neutral/disgust", labelList())
}

// cannedModel answers every Generate call with content or err.
type cannedModel struct {
	content string
	err     error
	block   bool
	inputs  [][]*schema.Message
}

func (m *cannedModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.inputs = append(m.inputs, input)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *cannedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *cannedModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func newModelService(t *testing.T, m *cannedModel, timeout time.Duration) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), m, Config{Enabled: true, HistoryLimit: 2, Timeout: timeout})
	require.NoError(t, err)
	require.True(t, svc.Enabled())
	require.Equal(t, SourceModel, svc.Mode())
	return svc
}

func TestResolveUsesModelLabel(t *testing.T) {
	m := &cannedModel{content: "```json\n{\"emotion\":\"Fear\",\"confidence\":0.9,\"reason\":\"exam worries\"}\n```"}
	svc := newModelService(t, m, time.Second)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []chat.Record{chat.NewRecord("1", ts, "I feel great", "r", analysis.Joy)}

	guidance := svc.Resolve(context.Background(), history, "  the exam is tomorrow  ")
	assert.Equal(t, analysis.Fear, guidance.Label)
	assert.Equal(t, SourceModel, guidance.Source)
	assert.InDelta(t, 0.9, guidance.Confidence, 0.001)
	assert.Equal(t, "exam worries", guidance.Reason)

	require.Len(t, m.inputs, 1)
	var prompt strings.Builder
	for _, msg := range m.inputs[0] {
		prompt.WriteString(msg.Content)
	}
	assert.Contains(t, prompt.String(), "joy/sadness/anger/fear/neutral/disgust")
	assert.Contains(t, prompt.String(), "User: I feel great [joy]")
	assert.Contains(t, prompt.String(), "the exam is tomorrow")
}

func TestResolveFallsBackOnModelProblems(t *testing.T) {
	tests := []struct {
		name    string
		model   *cannedModel
		timeout time.Duration
	}{
		{name: "unknown label", model: &cannedModel{content: `{"emotion":"bored","confidence":0.7}`}, timeout: time.Second},
		{name: "not json", model: &cannedModel{content: "I think they are sad"}, timeout: time.Second},
		{name: "empty answer", model: &cannedModel{content: "   "}, timeout: time.Second},
		{name: "invoke error", model: &cannedModel{err: errors.New("upstream unavailable")}, timeout: time.Second},
		{name: "timeout", model: &cannedModel{block: true}, timeout: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newModelService(t, tt.model, tt.timeout)

			guidance := svc.Resolve(context.Background(), nil, "I hate this so much")
			assert.Equal(t, analysis.Anger, guidance.Label)
			assert.Equal(t, SourceKeywords, guidance.Source)
		})
	}
}
