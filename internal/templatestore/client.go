// Package templatestore is a REST client for the template store and the
// widget endpoints it backs.
package templatestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hunteros-backend/internal/api/v1/templates"
	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/utils"
)

const DefaultTimeout = 30 * time.Second

// ErrNotFound is returned for missing or invisible templates and widgets.
var ErrNotFound = binding.ErrTemplateNotFound

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client. httpClient may be nil.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(DefaultTimeout)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type ListOptions struct {
	Filter string
	Search string
	Page   int
	Limit  int
}

type Page struct {
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Items []models.Template `json:"items"`
}

func (c *Client) List(ctx context.Context, opts ListOptions) (*Page, error) {
	q := url.Values{}
	if opts.Filter != "" {
		q.Set("filter", opts.Filter)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/v1/templates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, id uint) (*models.Template, error) {
	var t models.Template
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/templates/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Create(ctx context.Context, req templates.CreateTemplateRequest) (*models.Template, error) {
	var t models.Template
	if err := c.do(ctx, http.MethodPost, "/api/v1/templates", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Update(ctx context.Context, id uint, req templates.UpdateTemplateRequest) (*models.Template, error) {
	var t models.Template
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/templates/%d", id), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Delete(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/templates/%d", id), nil, nil)
}

func (c *Client) Versions(ctx context.Context, id uint) ([]models.TemplateVersion, error) {
	var versions []models.TemplateVersion
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/templates/%d/versions", id), nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Widget reads one of the caller's widgets.
func (c *Client) Widget(ctx context.Context, id uint) (*models.Widget, error) {
	var w models.Widget
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/widgets/%d", id), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// FetchTemplate implements binding.Fetcher over the REST API.
func (c *Client) FetchTemplate(ctx context.Context, id uint) (*binding.Template, error) {
	t, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &binding.Template{ID: t.ID, Name: t.Name, Code: t.Code, IsPublic: t.IsPublic}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, envelope.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a not-found response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
