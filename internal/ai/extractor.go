package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultChatModel   = "gpt-4o-mini"
	defaultTemperature = 0.1
)

type IntentExtractor struct {
	client openai.Client
	model  string
}

func NewIntentExtractor(client openai.Client, model string) *IntentExtractor {
	if model == "" {
		model = DefaultChatModel
	}
	return &IntentExtractor{client: client, model: model}
}

// Extract asks the chat model for the structured command behind transcript.
// Replies that are not a JSON object fail with ErrIntentParse.
func (e *IntentExtractor) Extract(ctx context.Context, transcript string, now time.Time) (models.Intent, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Instruction(now)),
			openai.UserMessage(transcript),
		},
		Model:       openai.ChatModel(e.model),
		Temperature: openai.Float(defaultTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return models.Intent{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Intent{}, fmt.Errorf("%w: no choices in response", errors.ErrIntentParse)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("intent reply", "model", e.model, "data", content)

	intent, err := models.ParseIntent(content)
	if err != nil {
		return models.Intent{}, err
	}
	return intent, nil
}
