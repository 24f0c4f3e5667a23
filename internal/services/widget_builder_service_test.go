package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hunteros-backend/config"
	"hunteros-backend/internal/generation"
	"hunteros-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStreamer struct {
	deltas   []string
	err      error
	messages []ChatMessage
}

func (f *fakeStreamer) StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(string) error) error {
	f.messages = messages
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return f.err
}

func TestBuildGenerationMessages(t *testing.T) {
	fresh := BuildGenerationMessages(generation.Request{Message: "a clock"})
	require.Len(t, fresh, 2)
	assert.Equal(t, "system", fresh[0].Role)
	assert.Equal(t, "a clock", fresh[1].Content)

	edit := BuildGenerationMessages(generation.Request{Message: "make it red", CurrentCode: "<p>12:00</p>", CurrentTitle: "Clock"})
	require.Len(t, edit, 4)
	assert.Contains(t, edit[1].Content, "<p>12:00</p>")
	assert.Contains(t, edit[1].Content, `"Clock"`)
	assert.Equal(t, "make it red", edit[3].Content)
}

func TestGenerateWidget(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"```html\n<title>Tiny Clock</title>", "<p>12:00</p>\n```"}}

	var forwarded []string
	title, err := GenerateWidget(context.Background(), streamer, generation.Request{Message: "a clock"}, func(d string) error {
		forwarded = append(forwarded, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, streamer.deltas, forwarded)
	assert.Equal(t, "Tiny Clock", title)

	keep, err := GenerateWidget(context.Background(), &fakeStreamer{deltas: []string{"<p>x</p>"}},
		generation.Request{Message: "tweak", CurrentTitle: "Mine"}, func(string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "Mine", keep)

	_, err = GenerateWidget(context.Background(), &fakeStreamer{err: errors.New("boom")},
		generation.Request{Message: "x"}, func(string) error { return nil })
	assert.EqualError(t, err, "boom")
}

func TestLLMClientStreams(t *testing.T) {
	logger.Log = zap.NewNop()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"<p>\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi</p>\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	client, err := NewLLMClient(&config.Config{LLMBaseURL: upstream.URL + "/", LLMAPIKey: "sk-test", LLMModel: "m", LLMTimeout: 5 * time.Second})
	require.NoError(t, err)

	var got string
	err = client.StreamChatCompletion(context.Background(), []ChatMessage{{Role: "user", Content: "x"}}, func(d string) error {
		got += d
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", got)
}

func TestLLMClientTruncatedStream(t *testing.T) {
	logger.Log = zap.NewNop()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"<p>half\"}}]}\n\n")
	}))
	defer upstream.Close()

	client, err := NewLLMClient(&config.Config{LLMBaseURL: upstream.URL, LLMAPIKey: "k", LLMTimeout: 5 * time.Second})
	require.NoError(t, err)

	var got string
	err = client.StreamChatCompletion(context.Background(), nil, func(d string) error {
		got += d
		return nil
	})
	assert.ErrorIs(t, err, ErrStreamIncomplete)
	assert.Equal(t, "<p>half", got)
}

func TestLLMClientFinishReasonCompletesStream(t *testing.T) {
	logger.Log = zap.NewNop()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"<p>ok</p>\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
	}))
	defer upstream.Close()

	client, err := NewLLMClient(&config.Config{LLMBaseURL: upstream.URL, LLMAPIKey: "k", LLMTimeout: 5 * time.Second})
	require.NoError(t, err)

	err = client.StreamChatCompletion(context.Background(), nil, func(string) error { return nil })
	assert.NoError(t, err)
}

func TestLLMClientUpstreamError(t *testing.T) {
	logger.Log = zap.NewNop()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	}))
	defer upstream.Close()

	client, err := NewLLMClient(&config.Config{LLMBaseURL: upstream.URL, LLMAPIKey: "k"})
	require.NoError(t, err)

	err = client.StreamChatCompletion(context.Background(), nil, func(string) error { return nil })
	assert.EqualError(t, err, "LLM API error [429]: rate limited")

	_, err = NewLLMClient(&config.Config{})
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}
