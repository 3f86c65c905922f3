// Package ai relays chat and review requests to the external AI
// collaborator. It never touches room state: the engine's only
// room-visible trace of an AI interaction is the ai-help-requested
// notification, which the router broadcasts independently.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrEmptyResponse = errors.New("no response from AI")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the normalized request handed to a provider.
type Completion struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
}

// Provider produces a completion from the external model. Implemented
// by the OpenAI and Anthropic adapters; tests substitute their own.
type Provider interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// Client wraps a Provider with the prompt construction the
// collaboration app uses for code help and review.
type Client struct {
	provider Provider
}

func NewClient(p Provider) *Client {
	return &Client{provider: p}
}

// ChatRequest carries either a free-form conversation or a code
// question; exactly one of Messages / Code is expected.
type ChatRequest struct {
	Messages []Message
	Code     string
	Language string
	Question string
}

// Chat forwards a help conversation to the collaborator and returns
// the raw response text. Provider failures are returned to the caller
// only; they are never surfaced to the room.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	comp := Completion{Temperature: 0.7, MaxTokens: 1000}

	if req.Code != "" {
		lang := req.Language
		if lang == "" {
			lang = "programming"
		}
		comp.System = fmt.Sprintf("You are an expert programming assistant helping users with their %s code. "+
			"Provide helpful, constructive feedback and suggestions. Be concise but thorough. "+
			"Focus on code quality, best practices, and potential improvements.", lang)
		var user string
		if req.Question != "" {
			user = fmt.Sprintf("Question: %s\n\nCode:\n%s", req.Question, req.Code)
		} else {
			user = fmt.Sprintf("Please review this %s and provide suggestions:\n\n%s", lang, req.Code)
		}
		comp.Messages = []Message{{Role: "user", Content: user}}
	} else {
		comp.Messages = req.Messages
	}

	resp, err := c.provider.Complete(ctx, comp)
	if err != nil {
		return "", fmt.Errorf("ai chat: %w", err)
	}
	if resp == "" {
		return "", ErrEmptyResponse
	}
	return resp, nil
}

// ReviewRequest asks for a structured review of a code snippet.
type ReviewRequest struct {
	Code     string
	Language string
	Context  string
}

// Review forwards a review request and parses the structured result.
// Unparsable model output is recovered via the fallback contract in
// ParseReview, so the only error paths are transport/provider ones.
func (c *Client) Review(ctx context.Context, req ReviewRequest) (Review, string, error) {
	lang := req.Language
	if lang == "" {
		lang = "programming"
	}
	system := fmt.Sprintf(`You are an expert code reviewer for %s.
Analyze the provided code and give a comprehensive review including:
1. Overall code quality score (1-100)
2. Strengths of the code
3. Areas for improvement
4. Specific suggestions with line-by-line feedback when possible
5. Best practices recommendations
6. Potential bugs or issues

Format your response as JSON with the following structure:
{
  "score": number,
  "strengths": string[],
  "improvements": string[],
  "suggestions": string[],
  "bestPractices": string[],
  "potentialIssues": string[],
  "summary": string
}`, lang)

	user := fmt.Sprintf("Please review this %s", lang)
	if req.Context != "" {
		user += fmt.Sprintf(" in the context of: %s", req.Context)
	}
	user += fmt.Sprintf(":\n\n%s", req.Code)

	raw, err := c.provider.Complete(ctx, Completion{
		System:      system,
		Messages:    []Message{{Role: "user", Content: user}},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return Review{}, "", fmt.Errorf("ai review: %w", err)
	}
	if raw == "" {
		return Review{}, "", ErrEmptyResponse
	}

	review := ParseReview(raw)
	log.Debug().Str("module", "ai").Int("score", review.Score).Msg("review parsed")
	return review, raw, nil
}
