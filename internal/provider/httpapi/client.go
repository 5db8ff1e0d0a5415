package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/provider"
)

// Config holds the automation service endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements provider.FormAutomation against the browser
// automation service's JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the given endpoint.
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type detectRequest struct {
	Target provider.Target `json:"target"`
}

type loginRequest struct {
	Target      provider.Target      `json:"target"`
	Credentials provider.Credentials `json:"credentials"`
}

type fillStepRequest struct {
	Target provider.Target   `json:"target"`
	Step   int               `json:"step"`
	Values map[string]string `json:"values"`
}

type submitRequest struct {
	Target provider.Target       `json:"target"`
	Values map[string]string     `json:"values"`
	Form   *domain.FormStructure `json:"form"`
}

func (c *Client) DetectForm(ctx context.Context, target provider.Target) (*domain.FormStructure, error) {
	var form domain.FormStructure
	if err := c.post(ctx, "/v1/detect-form", detectRequest{Target: target}, &form); err != nil {
		return nil, domain.NewProviderError("detect", err)
	}

	c.logger.Debug("Form detected",
		slog.Int64("directory_id", target.DirectoryID),
		slog.Int("field_count", len(form.Fields)),
		slog.Bool("multi_step", form.IsMultiStep),
	)

	return &form, nil
}

func (c *Client) Login(ctx context.Context, target provider.Target, creds provider.Credentials) error {
	if err := c.post(ctx, "/v1/login", loginRequest{Target: target, Credentials: creds}, nil); err != nil {
		return domain.NewProviderError("login", err)
	}
	return nil
}

func (c *Client) FillStep(ctx context.Context, target provider.Target, step int, values map[string]string) error {
	req := fillStepRequest{Target: target, Step: step, Values: values}
	if err := c.post(ctx, "/v1/fill-step", req, nil); err != nil {
		return domain.NewProviderError("fill", err)
	}
	return nil
}

func (c *Client) Submit(ctx context.Context, target provider.Target, values map[string]string, form *domain.FormStructure) (*provider.SubmitResult, error) {
	var result provider.SubmitResult
	req := submitRequest{Target: target, Values: values, Form: form}
	if err := c.post(ctx, "/v1/submit", req, &result); err != nil {
		return nil, domain.NewProviderError("submit", err)
	}

	if !result.Status.Valid() {
		return nil, domain.NewProviderError("submit",
			fmt.Errorf("provider returned unknown status %q", result.Status))
	}

	return &result, nil
}

// post sends a JSON request and decodes the response into out when non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

var _ provider.FormAutomation = (*Client)(nil)
