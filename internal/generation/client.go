package generation

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

	"hunteros-backend/internal/utils"
	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
)

const GeneratePath = "/api/v1/widget-builder/generate"

var (
	// ErrSendFailed means no stream was established; nothing was generated.
	ErrSendFailed = errors.New("failed to send generation request")
	// ErrIncomplete means the stream ended before the completion marker.
	ErrIncomplete = errors.New("generation stream ended before completion")
)

// BackendError carries the message of an explicit error frame verbatim.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// Request is the body of one generation call.
type Request struct {
	Message      string `json:"message"`
	CurrentCode  string `json:"currentCode,omitempty"`
	CurrentTitle string `json:"currentTitle,omitempty"`
}

// DeltaFunc observes each non-empty content delta in arrival order.
type DeltaFunc func(delta string)

// Client talks to the widget builder endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client. httpClient may be nil; a logging client without
// an overall timeout is used so long generations are bounded by ctx only.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(0)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// Generate runs one generation and blocks until the stream completes, fails,
// or ctx is cancelled.
func (c *Client) Generate(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	out, err := Consume(ctx, resp.Body, onDelta)
	if err != nil {
		return nil, err
	}
	return &Result{
		Code:            ExtractCode(out.Content),
		Title:           InferTitle(out.Title, req.CurrentTitle, out.Content, req.Message),
		MalformedFrames: out.Malformed,
	}, nil
}

// Outcome is what Consume accumulated from a completed stream.
type Outcome struct {
	Content   string
	Title     string
	Malformed int
}

// Consume reads frames sequentially from r. Content deltas are appended in
// arrival order; malformed frames are skipped; an error frame stops reading at
// once. A stream that ends without a done frame is ErrIncomplete.
func Consume(ctx context.Context, r io.Reader, onDelta DeltaFunc) (*Outcome, error) {
	log := logger.Named("generation")
	reader := bufio.NewReader(r)
	var (
		content   strings.Builder
		malformed int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := reader.ReadString('\n')
		if line != "" {
			frame, err := ParseFrame(line)
			if err != nil {
				malformed++
				log.Debug("skipping malformed frame", zap.Error(err))
			}

			switch frame.Kind {
			case FrameContent:
				if frame.Content != "" {
					content.WriteString(frame.Content)
					if onDelta != nil {
						onDelta(frame.Content)
					}
				}
			case FrameDone:
				return &Outcome{Content: content.String(), Title: frame.Title, Malformed: malformed}, nil
			case FrameError:
				return nil, &BackendError{Message: frame.Error}
			}
		}

		if readErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if readErr == io.EOF {
				return nil, ErrIncomplete
			}
			return nil, fmt.Errorf("%w: %v", ErrIncomplete, readErr)
		}
	}
}
