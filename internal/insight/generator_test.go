package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavelength-ai/chat-insights/internal/apperr"
	"github.com/wavelength-ai/chat-insights/internal/llm"
	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
)

// fakeClient scripts llm.Client responses per call.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
	requests  []*llm.CompletionRequest
	block     bool
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &llm.CompletionResponse{Content: content, Model: "fake"}, nil
}

func (f *fakeClient) Name() string { return "fake" }

func newGenerator(client llm.Client, maxRetries int) *LLMGenerator {
	return NewLLMGenerator(client, Options{
		Timeout:    10 * time.Second,
		MaxRetries: maxRetries,
	}, logger.NewNop())
}

func conversation() []model.Message {
	return []model.Message{
		{ConversationID: "c1", UserID: "alice", Body: "hi"},
		{ConversationID: "c1", UserID: "bot", Body: "hello, how can I help?"},
	}
}

func TestReply_IncludesTranscript(t *testing.T) {
	client := &fakeClient{responses: []string{"sure thing"}}
	g := newGenerator(client, 0)

	text, err := g.Reply(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "sure thing", text)

	require.Len(t, client.requests, 1)
	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "alice: hi")
	assert.Contains(t, prompt, "bot: hello, how can I help?")
}

func TestSummarize_IncludesTranscript(t *testing.T) {
	client := &fakeClient{responses: []string{"a short greeting"}}
	g := newGenerator(client, 0)

	text, err := g.Summarize(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "a short greeting", text)
	assert.Contains(t, client.requests[0].Messages[0].Content, "summary")
}

func TestAnalyze_ParsesResponse(t *testing.T) {
	client := &fakeClient{responses: []string{"Sentiment: positive\nKeywords: greetings, help"}}
	g := newGenerator(client, 0)

	sentiment, keywords, err := g.Analyze(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, model.SentimentPositive, sentiment)
	assert.Equal(t, []string{"greetings", "help"}, keywords)
}

func TestComplete_RetriesTransientFailures(t *testing.T) {
	client := &fakeClient{
		errs:      []error{errors.New("boom"), errors.New("boom again"), nil},
		responses: []string{"", "", "third time lucky"},
	}
	g := newGenerator(client, 2)

	text, err := g.Reply(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", text)
	assert.Equal(t, 3, client.calls)
}

func TestComplete_ExhaustedRetriesSurfaceGeneratorError(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("boom"), errors.New("boom")}}
	g := newGenerator(client, 1)

	_, err := g.Reply(context.Background(), conversation())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindGenerator))
	assert.False(t, apperr.IsTimeout(err))
}

func TestComplete_TimeoutIsDistinct(t *testing.T) {
	client := &fakeClient{block: true}
	g := NewLLMGenerator(client, Options{
		Timeout:    50 * time.Millisecond,
		MaxRetries: 0,
	}, logger.NewNop())

	_, err := g.Reply(context.Background(), conversation())
	require.Error(t, err)
	assert.True(t, apperr.IsTimeout(err))
}

func TestComplete_NilClient(t *testing.T) {
	g := newGenerator(nil, 0)

	_, err := g.Summarize(context.Background(), conversation())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindGenerator))
}
