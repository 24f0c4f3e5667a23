package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hunteros-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprint(w, line)
			flusher.Flush()
		}
	}))
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    FrameKind
		content string
		errMsg  string
		bad     bool
	}{
		{name: "content", line: `data: {"content":"a"}`, kind: FrameContent, content: "a"},
		{name: "empty content", line: `data: {"content":""}`, kind: FrameContent},
		{name: "no space", line: `data:{"content":"b"}`, kind: FrameContent, content: "b"},
		{name: "done", line: "data: {\"done\":true}\r\n", kind: FrameDone},
		{name: "error", line: `data: {"error":"quota exceeded"}`, kind: FrameError, errMsg: "quota exceeded"},
		{name: "error wins", line: `data: {"done":true,"error":"x"}`, kind: FrameError, errMsg: "x"},
		{name: "unknown shape", line: `data: {"usage":42}`, kind: FrameIgnored},
		{name: "done false", line: `data: {"done":false}`, kind: FrameIgnored},
		{name: "comment", line: ": keep-alive", kind: FrameIgnored},
		{name: "blank", line: "\n", kind: FrameIgnored},
		{name: "event field", line: "event: delta", kind: FrameIgnored},
		{name: "garbage json", line: `data: {"content":`, kind: FrameIgnored, bad: true},
		{name: "openai done marker", line: "data: [DONE]", kind: FrameIgnored, bad: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFrame(tt.line)
			if tt.bad {
				assert.ErrorIs(t, err, ErrMalformedFrame)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.kind, frame.Kind)
			assert.Equal(t, tt.content, frame.Content)
			assert.Equal(t, tt.errMsg, frame.Error)
		})
	}
}

func TestEncodedFramesRoundTrip(t *testing.T) {
	frame, err := ParseFrame(string(ContentFrame("<div>\"x\"\n</div>")))
	require.NoError(t, err)
	assert.Equal(t, FrameContent, frame.Kind)
	assert.Equal(t, "<div>\"x\"\n</div>", frame.Content)

	frame, err = ParseFrame(string(DoneFrame("Clock")))
	require.NoError(t, err)
	assert.Equal(t, FrameDone, frame.Kind)
	assert.Equal(t, "Clock", frame.Title)

	frame, err = ParseFrame(string(ErrorFrame("boom")))
	require.NoError(t, err)
	assert.Equal(t, FrameError, frame.Kind)
	assert.Equal(t, "boom", frame.Error)
}

func TestGenerate_AccumulatesInOrder(t *testing.T) {
	server := streamServer(t,
		"data: {\"content\":\"a\"}\n\n",
		"data: {\"content\":\"\"}\n\n",
		"data: {\"content\":\"b\"}\n\n",
		"data: {\"done\":true}\n\n",
	)
	defer server.Close()

	var deltas []string
	client := NewClient(server.URL, "", nil)
	result, err := client.Generate(context.Background(), Request{Message: "make a clock"}, func(delta string) {
		deltas = append(deltas, delta)
	})

	require.NoError(t, err)
	assert.Equal(t, "ab", result.Code)
	assert.Equal(t, []string{"a", "b"}, deltas)
	assert.Equal(t, "make a clock", result.Title)
}

func TestGenerate_SkipsMalformedFrames(t *testing.T) {
	server := streamServer(t,
		"data: {\"content\":\"a\"}\n\n",
		"data: {this is not json}\n\n",
		"data: {\"content\":\"b\"}\n\n",
		"data: {\"done\":true}\n\n",
	)
	defer server.Close()

	result, err := NewClient(server.URL, "", nil).Generate(context.Background(), Request{Message: "x"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ab", result.Code)
	assert.Equal(t, 1, result.MalformedFrames)
}

func TestGenerate_ErrorFrameAborts(t *testing.T) {
	server := streamServer(t,
		"data: {\"content\":\"a\"}\n\n",
		"data: {\"error\":\"x\"}\n\n",
		"data: {\"content\":\"b\"}\n\n",
		"data: {\"done\":true}\n\n",
	)
	defer server.Close()

	var deltas []string
	result, err := NewClient(server.URL, "", nil).Generate(context.Background(), Request{Message: "x"}, func(delta string) {
		deltas = append(deltas, delta)
	})

	assert.Nil(t, result)
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "x", backendErr.Message)
	assert.Equal(t, []string{"a"}, deltas, "no deltas may be applied after the error frame")
}

func TestGenerate_StreamEndsWithoutDone(t *testing.T) {
	server := streamServer(t, "data: {\"content\":\"partial\"}\n\n")
	defer server.Close()

	result, err := NewClient(server.URL, "", nil).Generate(context.Background(), Request{Message: "x"}, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestGenerate_SendFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":401,"message":"Invalid or expired token"}`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "bad", nil).Generate(context.Background(), Request{Message: "x"}, nil)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "401")

	unreachable := httptest.NewServer(http.NotFoundHandler())
	url := unreachable.URL
	unreachable.Close()

	_, err = NewClient(url, "", nil).Generate(context.Background(), Request{Message: "x"}, nil)
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestNewClient_DefaultsToLoggingClient(t *testing.T) {
	client := NewClient("http://localhost", "", nil)
	assert.IsType(t, &utils.LoggingTransport{}, client.httpClient.Transport)
	assert.Zero(t, client.httpClient.Timeout, "generations are bounded by ctx only")

	custom := &http.Client{}
	assert.Same(t, custom, NewClient("http://localhost", "", custom).httpClient)
}

func TestGenerate_SendsRequestBody(t *testing.T) {
	var got Request
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GeneratePath, r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, "data: {\"content\":\"```html\\n<title>Weather</title><p>sun</p>\\n```\"}\n\n")
		fmt.Fprint(w, "data: {\"done\":true}\n\n")
	}))
	defer server.Close()

	result, err := NewClient(server.URL+"/", "tok", nil).Generate(context.Background(), Request{
		Message:     "add an icon",
		CurrentCode: "<p>sun</p>",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "add an icon", got.Message)
	assert.Equal(t, "<p>sun</p>", got.CurrentCode)
	assert.Equal(t, "<title>Weather</title><p>sun</p>", result.Code)
	assert.Equal(t, "Weather", result.Title)
}

func TestConsume_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Consume(ctx, strings.NewReader("data: {\"done\":true}\n"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsume_FinalLineWithoutNewline(t *testing.T) {
	out, err := Consume(context.Background(), strings.NewReader("data: {\"content\":\"z\"}\ndata: {\"done\":true,\"title\":\"Z\"}"), nil)
	require.NoError(t, err)
	assert.Equal(t, "z", out.Content)
	assert.Equal(t, "Z", out.Title)
}

func TestExtractCodeAndTitle(t *testing.T) {
	assert.Equal(t, "<div>x</div>", ExtractCode("```html\n<div>x</div>\n```"))
	assert.Equal(t, "<div>x</div>", ExtractCode("  <div>x</div>\n"))
	assert.Equal(t, "a ``` b", ExtractCode("a ``` b"))

	assert.Equal(t, "Explicit", InferTitle("Explicit", "Prior", "", "msg"))
	assert.Equal(t, "Prior", InferTitle("", " Prior ", "<title>Doc</title>", "msg"))
	assert.Equal(t, "Doc", InferTitle("", "", "<TITLE> Doc </TITLE>", "msg"))
	assert.Equal(t, "first line", InferTitle("", "", "", "first line\nsecond"))
	assert.Equal(t, DefaultTitle, InferTitle("", "", "", "  "))

	long := InferTitle("", "", "", strings.Repeat("word ", 20))
	assert.LessOrEqual(t, len([]rune(long)), maxTitleRunes)
	assert.True(t, strings.HasSuffix(long, "..."))
}
