package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	last Completion
	resp string
	err  error
}

func (s *stubProvider) Complete(_ context.Context, req Completion) (string, error) {
	s.last = req
	return s.resp, s.err
}

func TestChatWithCodeBuildsReviewPrompt(t *testing.T) {
	stub := &stubProvider{resp: "looks good"}
	c := NewClient(stub)

	resp, err := c.Chat(context.Background(), ChatRequest{Code: "x = 1", Language: "python"})
	require.NoError(t, err)
	require.Equal(t, "looks good", resp)
	require.Contains(t, stub.last.System, "python")
	require.Len(t, stub.last.Messages, 1)
	require.Contains(t, stub.last.Messages[0].Content, "x = 1")
	require.InDelta(t, 0.7, stub.last.Temperature, 1e-9)
	require.EqualValues(t, 1000, stub.last.MaxTokens)
}

func TestChatWithQuestionLeadsWithQuestion(t *testing.T) {
	stub := &stubProvider{resp: "because"}
	c := NewClient(stub)

	_, err := c.Chat(context.Background(), ChatRequest{Code: "x = 1", Question: "why?"})
	require.NoError(t, err)
	require.Contains(t, stub.last.Messages[0].Content, "Question: why?")
	require.Contains(t, stub.last.System, "programming")
}

func TestChatWithMessagesPassesConversation(t *testing.T) {
	stub := &stubProvider{resp: "hello"}
	c := NewClient(stub)

	msgs := []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hey"}}
	_, err := c.Chat(context.Background(), ChatRequest{Messages: msgs})
	require.NoError(t, err)
	require.Equal(t, msgs, stub.last.Messages)
	require.Empty(t, stub.last.System)
}

func TestChatPropagatesProviderError(t *testing.T) {
	wantErr := errors.New("boom")
	c := NewClient(&stubProvider{err: wantErr})

	_, err := c.Chat(context.Background(), ChatRequest{Code: "x"})
	require.ErrorIs(t, err, wantErr)
}

func TestChatEmptyResponseIsError(t *testing.T) {
	c := NewClient(&stubProvider{resp: ""})
	_, err := c.Chat(context.Background(), ChatRequest{Code: "x"})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestReviewParsesStructuredResponse(t *testing.T) {
	stub := &stubProvider{resp: `{"score":91,"summary":"tidy"}`}
	c := NewClient(stub)

	rv, raw, err := c.Review(context.Background(), ReviewRequest{Code: "x = 1", Language: "python", Context: "homework"})
	require.NoError(t, err)
	require.Equal(t, 91, rv.Score)
	require.Equal(t, stub.resp, raw)
	require.Contains(t, stub.last.System, "code reviewer for python")
	require.Contains(t, stub.last.Messages[0].Content, "in the context of: homework")
	require.InDelta(t, 0.3, stub.last.Temperature, 1e-9)
	require.EqualValues(t, 2000, stub.last.MaxTokens)
}

func TestReviewFallsBackOnUnstructuredResponse(t *testing.T) {
	stub := &stubProvider{resp: "just some prose"}
	c := NewClient(stub)

	rv, raw, err := c.Review(context.Background(), ReviewRequest{Code: "x"})
	require.NoError(t, err)
	require.Equal(t, 75, rv.Score)
	require.Equal(t, "just some prose", raw)
	require.Equal(t, []string{"just some prose"}, rv.Suggestions)
}

func TestReviewPropagatesProviderError(t *testing.T) {
	wantErr := errors.New("offline")
	c := NewClient(&stubProvider{err: wantErr})

	_, _, err := c.Review(context.Background(), ReviewRequest{Code: "x"})
	require.ErrorIs(t, err, wantErr)
}
