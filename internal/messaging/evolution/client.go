package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "aurora-whatsapp-relay/0.1"
)

// Config controls how the Evolution client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Instance   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Client wraps the Evolution API endpoints the relay needs. Calls are made
// once; there are no retries.
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *logging.Logger
	userAgent  string
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("evolution: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("evolution: invalid base url: %w", err)
	}
	instance := strings.TrimSpace(cfg.Instance)
	if instance == "" {
		return nil, errors.New("evolution: instance name is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		instance:   instance,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the gateway root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Instance returns the gateway instance name.
func (c *Client) Instance() string { return c.instance }

// SendText delivers a text message to a WhatsApp number.
func (c *Client) SendText(ctx context.Context, req SendTextRequest) (*SendTextResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(struct {
		Number string `json:"number"`
		Text   string `json:"text"`
	}{
		Number: req.Number,
		Text:   req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("evolution: marshal send body: %w", err)
	}
	data, err := c.invoke(ctx, "/message/sendText/"+url.PathEscape(c.instance), body)
	if err != nil {
		return nil, err
	}
	var resp SendTextResponse
	if len(bytes.TrimSpace(data)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("evolution: decode send response: %w", err)
	}
	return &resp, nil
}

// SendPresence sets the chat presence (for example "composing") for a number.
func (c *Client) SendPresence(ctx context.Context, number, presence string) error {
	if strings.TrimSpace(number) == "" {
		return errors.New("evolution: recipient number required")
	}
	if strings.TrimSpace(presence) == "" {
		presence = PresenceComposing
	}
	body, err := json.Marshal(map[string]string{
		"number":   number,
		"presence": presence,
	})
	if err != nil {
		return fmt.Errorf("evolution: marshal presence body: %w", err)
	}
	_, err = c.invoke(ctx, "/chat/markPresence/"+url.PathEscape(c.instance), body)
	return err
}

func (c *Client) invoke(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("evolution: build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("evolution: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("evolution: read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	apiErr := decodeAPIError(resp.StatusCode, data)
	c.logger.Debug("evolution request rejected", "path", path, "status", resp.StatusCode)
	return nil, apiErr
}

// APIError is returned for non-2xx gateway responses.
type APIError struct {
	StatusCode int             `json:"-"`
	Status     int             `json:"status,omitempty"`
	Err        string          `json:"error,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
	Body       string          `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != "" {
		return fmt.Sprintf("evolution: %s (status=%d)", e.Err, e.StatusCode)
	}
	if e.Body != "" {
		return fmt.Sprintf("evolution: %s (status=%d)", e.Body, e.StatusCode)
	}
	return fmt.Sprintf("evolution: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var parsed APIError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	parsed.StatusCode = status
	return &parsed
}
