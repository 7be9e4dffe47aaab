package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	openai "github.com/sashabaranov/go-openai"
)

const DefaultModel = openai.GPT4oMini

// OpenAI produces chat replies from a chat-completions model.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, modelName, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: modelName}
}

func (o *OpenAI) Reply(ctx context.Context, conversation []model.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(conversation))
	for _, m := range conversation {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}
