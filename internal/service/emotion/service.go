package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	analysis "github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
)

// Source 标识情绪结果来自哪条路径。
const (
	SourceKeywords = "keywords"
	SourceModel    = "model"
)

// Config 控制情绪分析服务的行为。
type Config struct {
	Enabled      bool
	HistoryLimit int
	Timeout      time.Duration
}

// Guidance 表示情绪分析的结果。
type Guidance struct {
	Label      analysis.Label
	Confidence float32
	Reason     string
	Source     string
}

// Service resolves a message's emotion with a chat model when one is
// configured and the keyword scorer otherwise.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(text string) analysis.Result
	historyLimit int
	timeout      time.Duration
}

// NewService 创建情绪分析服务。chatModel 为空时只使用关键词规则。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     analysis.Classify,
		historyLimit: historyLimit,
		timeout:      timeout,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回是否启用了模型分类。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Mode names the active classification path.
func (s *Service) Mode() string {
	if s.Enabled() {
		return SourceModel
	}
	return SourceKeywords
}

// Resolve returns the emotion for text. The result is always one of the
// closed labels; model failures fall back to the keyword scorer.
func (s *Service) Resolve(ctx context.Context, history []chat.Record, text string) Guidance {
	if !s.Enabled() {
		return s.fallbackGuidance(text)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := map[string]any{
		"labels":       labelList(),
		"history":      formatHistory(history, s.historyLimit),
		"user_message": strings.TrimSpace(text),
	}

	msg, err := s.classifier.Invoke(callCtx, input)
	if err != nil {
		log.Warn().Str("component", "emotion").Err(err).Msg("classifier invoke failed, use fallback")
		return s.fallbackGuidance(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallbackGuidance(text)
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Warn().Str("component", "emotion").Err(err).Msg("classifier output parse failed, use fallback")
		return s.fallbackGuidance(text)
	}

	label, ok := analysis.ParseLabel(result.Emotion)
	if !ok {
		log.Warn().Str("component", "emotion").Str("emotion", result.Emotion).Msg("classifier returned unknown label, use fallback")
		return s.fallbackGuidance(text)
	}

	return Guidance{
		Label:      label,
		Confidence: clampConfidence(result.Confidence),
		Reason:     strings.TrimSpace(result.Reason),
		Source:     SourceModel,
	}
}

func (s *Service) fallbackGuidance(text string) Guidance {
	fallback := analysis.Classify
	if s != nil && s.fallback != nil {
		fallback = s.fallback
	}
	result := fallback(text)

	confidence := float32(0.55)
	reason := "keyword match"
	if result.Fallback {
		confidence = 0.3
		reason = "no keyword match"
	}

	return Guidance{
		Label:      result.Label,
		Confidence: confidence,
		Reason:     reason,
		Source:     SourceKeywords,
	}
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formatHistory(records []chat.Record, limit int) string {
	if len(records) == 0 {
		return "(no earlier messages)"
	}
	if limit < 1 {
		limit = 1
	}
	start := len(records) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for _, record := range records[start:] {
		user := strings.TrimSpace(record.User)
		if user == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("User: ")
		builder.WriteString(user)
		builder.WriteString(" [")
		builder.WriteString(string(record.Emotion))
		builder.WriteString("]")
	}
	if builder.Len() == 0 {
		return "(no earlier messages)"
	}
	return builder.String()
}

func labelList() string {
	labels := analysis.Labels()
	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = string(label)
	}
	return strings.Join(names, "/")
}

func clampConfidence(val float32) float32 {
	if val <= 0 {
		return 0.6
	}
	if val > 1 {
		return 1
	}
	return val
}

type classifierPayload struct {
	Emotion    string  `json:"emotion"`
	Confidence float32 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const classifierSystemPrompt = "You classify the emotion of a message sent to a supportive listening companion.\n" +
	"Return only one JSON object with the fields: emotion (exactly one of {labels}), " +
	"confidence (a number between 0 and 1) and reason (one short sentence). Output nothing else."

const classifierUserPrompt = "Earlier messages:\n{history}\n\nLatest message:\n{user_message}\n\nReturn the JSON now."
