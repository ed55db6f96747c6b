// Package provider is the adapter for the kiosk's cloud AI provider. It
// speaks the TC3-signed JSON API used by the embedding, chat, transcription
// and synthesis services, and validates every response shape at this
// boundary so malformed provider output fails fast with a clear error
// instead of leaking half-formed data downstream.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config carries credentials and service endpoints. Endpoints are host
// names by default and may be full URLs, which tests use to point the
// client at a local server.
type Config struct {
	SecretID  string
	SecretKey string
	Region    string

	ChatModel string // e.g. "hunyuan-turbo"

	LLMEndpoint string // embedding + chat service
	ASREndpoint string // transcription service
	TTSEndpoint string // synthesis service
}

// Default service endpoints.
const (
	DefaultRegion      = "ap-guangzhou"
	DefaultChatModel   = "hunyuan-turbo"
	DefaultLLMEndpoint = "hunyuan.tencentcloudapi.com"
	DefaultASREndpoint = "asr.tencentcloudapi.com"
	DefaultTTSEndpoint = "tts.tencentcloudapi.com"
)

// API versions per service.
const (
	llmVersion = "2023-09-01"
	asrVersion = "2019-06-14"
	ttsVersion = "2019-08-23"
)

// Client calls the provider over HTTP. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time // injectable for signature tests
}

// New creates a Client, filling unset Config fields with defaults.
func New(cfg Config) *Client {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.LLMEndpoint == "" {
		cfg.LLMEndpoint = DefaultLLMEndpoint
	}
	if cfg.ASREndpoint == "" {
		cfg.ASREndpoint = DefaultASREndpoint
	}
	if cfg.TTSEndpoint == "" {
		cfg.TTSEndpoint = DefaultTTSEndpoint
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// apiError is the provider's error payload inside the response envelope.
type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// APIError is a provider-reported request failure.
type APIError struct {
	Action  string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider %s failed: %s (%s)", e.Action, e.Message, e.Code)
}

// call signs and posts payload to the given service endpoint and decodes
// the Response envelope into out.
func (c *Client) call(ctx context.Context, endpoint, service, version, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", action, err)
	}

	url, host := endpointURL(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}

	t := c.now().UTC()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Host", host)
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Version", version)
	req.Header.Set("X-TC-Region", c.cfg.Region)
	req.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", t.Unix()))
	req.Header.Set("Authorization", sign(c.cfg.SecretID, c.cfg.SecretKey, service, host, body, t))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", action, resp.StatusCode)
	}

	var envelope struct {
		Response json.RawMessage `json:"Response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding %s envelope: %w", action, err)
	}
	if len(envelope.Response) == 0 {
		return fmt.Errorf("%s response missing Response field", action)
	}

	var errCheck struct {
		Error *apiError `json:"Error"`
	}
	if err := json.Unmarshal(envelope.Response, &errCheck); err == nil && errCheck.Error != nil {
		return &APIError{Action: action, Code: errCheck.Error.Code, Message: errCheck.Error.Message}
	}

	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", action, err)
	}
	return nil
}

// endpointURL turns a configured endpoint into a request URL and Host
// header value. Bare hosts get https; full URLs pass through.
func endpointURL(endpoint string) (url, host string) {
	if strings.Contains(endpoint, "://") {
		host = endpoint[strings.Index(endpoint, "://")+3:]
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		return endpoint, host
	}
	return "https://" + endpoint, endpoint
}
