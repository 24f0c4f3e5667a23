package utils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
)

const maxLoggedBody = 2000

// LoggingTransport implements http.RoundTripper and logs requests and responses.
// Streaming responses are passed through untouched; only their headers are logged.
type LoggingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip executes a single HTTP transaction and logs the request and response
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.Named("http_client")

	reqBodyLog := ""
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			bodyBytes, _ := io.ReadAll(body)
			body.Close()
			reqBodyLog = truncateBody(bodyBytes)
		}
	}
	log.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.String("body", reqBodyLog))

	start := time.Now()

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		log.Warn("request failed", zap.String("method", req.Method), zap.String("url", req.URL.String()),
			zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	}

	if resp.Body != nil && !isStream(resp) {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes)) // Restore body
		fields = append(fields, zap.String("body", truncateBody(bodyBytes)))
	}
	log.Debug("response", fields...)

	return resp, nil
}

func isStream(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream")
}

func truncateBody(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}

// NewHTTPClient returns a new http.Client with logging enabled.
// A zero timeout leaves the client unbounded, for streaming calls that rely on ctx.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &LoggingTransport{
			Transport: http.DefaultTransport,
		},
	}
}
