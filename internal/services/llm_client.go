package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hunteros-backend/config"
	"hunteros-backend/internal/utils"
	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrLLMNotConfigured = errors.New("LLM_API_KEY is not configured")
	ErrStreamIncomplete = errors.New("upstream stream ended before completion")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ChatStreamer streams a chat completion, calling onDelta for every content
// delta in order. Returning an error from onDelta stops the stream.
type ChatStreamer interface {
	StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(string) error) error
}

// LLMClient calls an OpenAI-compatible chat completions endpoint.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewLLMClient(cfg *config.Config) (*LLMClient, error) {
	if cfg.LLMAPIKey == "" {
		return nil, ErrLLMNotConfigured
	}
	return &LLMClient{
		baseURL: strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:  cfg.LLMAPIKey,
		model:   cfg.LLMModel,
		// LLMTimeout bounds the whole stream, body included
		httpClient: utils.NewHTTPClient(cfg.LLMTimeout),
	}, nil
}

func (c *LLMClient) StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(string) error) error {
	body, err := json.Marshal(ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		Temperature: 0.7,
		MaxTokens:   8192,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp chatErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return fmt.Errorf("LLM API error [%d]: %s", resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("LLM API error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// a stream is complete once it sends [DONE] or a choice carries a finish_reason
	finished := false
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				if finished {
					return nil
				}
				return ErrStreamIncomplete
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.Named("llm").Debug("skipping malformed upstream chunk", zap.Error(err))
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.FinishReason != nil && *choice.FinishReason != "" {
				finished = true
			}
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}
