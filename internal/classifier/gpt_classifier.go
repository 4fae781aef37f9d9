package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/models"
)

// GPTClassifier is the LLM-backed classification strategy. Any API or parse
// failure falls back to the keyword classifier so the pipeline keeps working
// without the model.
type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	fallback    *KeywordClassifier
	logger      *zap.Logger
}

func NewGPTClassifier(apiKey, model string, maxTokens int, temperature float64, fallback *KeywordClassifier, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		fallback:    fallback,
		logger:      logger,
	}
}

var _ Classifier = (*GPTClassifier)(nil)

type gptIntent struct {
	Intent                string         `json:"intent"`
	Confidence            float64        `json:"confidence"`
	Parameters            map[string]any `json:"parameters"`
	RequiresClarification bool           `json:"requires_clarification"`
	Clarification         string         `json:"clarification"`
	Suggestions           []string       `json:"suggestions"`
}

func (c *GPTClassifier) Classify(ctx context.Context, text string, conv Context) models.Intent {
	if !hasContent(text) {
		return models.Intent{Type: models.IntentUnknown}
	}

	prompt := fmt.Sprintf(`Classify the following todo-assistant message into exactly one intent:
create, update, complete, delete, list, help, greeting or unknown.

Extract parameters where present: title, todo_id, description, due_date (RFC3339),
priority (low|medium|high), category, completed.
Set requires_clarification when the message is ambiguous, and provide a single
clarifying question plus at most two suggested rephrasings.

Return only a JSON object with this structure:
{
    "intent": "create",
    "confidence": 0.9,
    "parameters": {"title": "..."},
    "requires_clarification": false,
    "clarification": "",
    "suggestions": []
}

Last referenced task id (0 means none): %d
Message: %s`, conv.LastTodoID, text)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("failed to get GPT classification", zap.Error(err))
		return c.fallback.Classify(ctx, text, conv)
	}

	var parsed gptIntent
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.logger.Error("failed to parse GPT classification",
			zap.Error(err),
			zap.String("response", raw))
		return c.fallback.Classify(ctx, text, conv)
	}

	intentType := models.IntentType(strings.ToLower(parsed.Intent))
	switch intentType {
	case models.IntentCreate, models.IntentUpdate, models.IntentComplete,
		models.IntentDelete, models.IntentList, models.IntentHelp,
		models.IntentGreeting, models.IntentUnknown:
	default:
		return c.fallback.Classify(ctx, text, conv)
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
	if len(parsed.Suggestions) > 2 {
		parsed.Suggestions = parsed.Suggestions[:2]
	}

	return models.Intent{
		Type:                  intentType,
		Confidence:            parsed.Confidence,
		Parameters:            parsed.Parameters,
		RequiresClarification: parsed.RequiresClarification,
		Clarification:         parsed.Clarification,
		Suggestions:           parsed.Suggestions,
	}
}
