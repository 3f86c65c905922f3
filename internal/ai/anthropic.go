package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicProvider adapts the Anthropic Messages API to the Provider
// interface.
type AnthropicProvider struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicProvider(model string) *AnthropicProvider {
	client := anthropic.NewClient()
	return NewAnthropicProviderFromClient(&client, model)
}

func NewAnthropicProviderFromClient(client *anthropic.Client, model string) *AnthropicProvider {
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5Sonnet20241022
	}
	return &AnthropicProvider{client: client, model: m}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req Completion) (string, error) {
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
