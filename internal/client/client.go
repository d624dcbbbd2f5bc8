// Package client is the explicitly constructed store client shared by the
// gateway and the realtime bridge.
package client

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
	"sync"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"

	"go.uber.org/zap"
)

const (
	functionsPath = "/functions/v1/"
	realtimePath  = "/realtime/v1/websocket"

	DefaultClientInfo = "hangar-go/1.0"
)

// RemoteError is a failure envelope returned by the server.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s", e.StatusCode, e.Message)
}

// ErrUnauthorized matches any 401 RemoteError via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

func (e *RemoteError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type Client struct {
	baseURL    string
	apiKey     string
	clientInfo string
	httpClient *http.Client
	log        *zap.SugaredLogger

	mu          sync.RWMutex
	accessToken string
}

type Option func(*Client)

func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

func WithClientInfo(info string) Option {
	return func(c *Client) { c.clientInfo = info }
}

// New builds a client for the server at baseURL. apiKey is the anon key (or
// the service key for privileged tooling).
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		clientInfo: DefaultClientInfo,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.Named("client")
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Logger() *zap.SugaredLogger { return c.log }

// SetAccessToken replaces the bearer token used by later calls.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// bearer falls back to the api key so service-key clients need no token.
func (c *Client) bearer() string {
	if t := c.AccessToken(); t != "" {
		return t
	}
	return c.apiKey
}

// Invoke calls a named procedure. in is JSON-encoded as the body (nil sends
// an empty object); on success the envelope's data is decoded into out when
// out is non-nil.
func (c *Client) Invoke(ctx context.Context, procedure string, in, out any) error {
	if in == nil {
		in = struct{}{}
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("failed to encode %s request: %w", procedure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+functionsPath+procedure, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAPIKey, c.apiKey)
	req.Header.Set(constants.HeaderClientInfo, c.clientInfo)
	req.Header.Set("Authorization", "Bearer "+c.bearer())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", procedure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", procedure, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &RemoteError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode %s response: %w", procedure, err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", procedure, err)
	}
	return nil
}

// RealtimeURL is the websocket endpoint with credentials in the query, since
// browsers cannot set headers on a websocket handshake.
func (c *Client) RealtimeURL() (string, error) {
	u, err := url.Parse(c.baseURL + realtimePath)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("access_token", c.bearer())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
