package chatapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"chatline/config"
	"chatline/model"
)

// Client talks to the chat service over HTTP.
type Client struct {
	baseURL string
	client  *resty.Client
}

// NewClient creates a client for baseURL. A missing scheme defaults to http.
func NewClient(baseURL string) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(normalized).
		SetHeader("Accept", "application/json").
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			config.DebugLog.Debug().
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL).
				Int("status", resp.StatusCode()).
				Dur("elapsed", resp.Time()).
				Msg("chat service request")
			return nil
		})

	return &Client{
		baseURL: normalized,
		client:  client,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server url cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one message. An empty sessionID starts a new conversation.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (*model.Reply, error) {
	body := ChatRequest{Message: message}
	if sessionID != "" {
		body.SessionID = &sessionID
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var decoded ChatResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return nil, ErrEmptyReply
	}

	return &model.Reply{
		Text:      decoded.Response,
		SessionID: decoded.SessionID,
		Timestamp: decoded.Timestamp.Time,
	}, nil
}

// ResetSession asks the service to forget sessionID.
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("sessionID", sessionID).
		Post("/reset-chat/{sessionID}")
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// Ping checks the service's health endpoint.
func (c *Client) Ping(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("cannot reach chat service at %s: %w", c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var health HealthResponse
	if err := json.Unmarshal(resp.Body(), &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

var _ model.Backend = (*Client)(nil)
