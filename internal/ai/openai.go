package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIProvider adapts the OpenAI Chat Completions API to the
// Provider interface. The API key comes from the environment via the
// SDK's default client.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(model string) *OpenAIProvider {
	client := openai.NewClient()
	return NewOpenAIProviderFromClient(&client, model)
}

func NewOpenAIProviderFromClient(client *openai.Client, model string) *OpenAIProvider {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIProvider{client: client, model: model}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Completion) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               p.model,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
