package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aaron/voicedoc-traffic/internal/config"
)

// TransportError is returned when a turn could not be sent or its stream
// could not be drained. HTTP error statuses are not transport errors.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client posts chat turns to a VoiceDoc app.
type Client struct {
	baseURL    string
	httpClient *http.Client
	chunkSize  int
	timeout    time.Duration
	logger     *zap.SugaredLogger
}

// Option customises a Client.
type Option func(c *Client)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the limit applied to connecting, to waiting for response
// headers, and to each read of the streamed reply.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a client for the configured base URL.
func NewClient(opts ...Option) *Client {
	return NewClientWithURL(config.BaseURL(), opts...)
}

// NewClientWithURL creates a client with a custom base URL.
func NewClientWithURL(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		chunkSize: config.ChunkSize,
		timeout:   config.RequestTimeout,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.timeout)
	}
	return c
}

// newHTTPClient bounds connect and time to headers. There is no overall
// timeout: a reply may stream for as long as it keeps producing data.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}

// BaseURL returns the app base URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Send posts one chat turn tagged with scenario and drains the streamed reply
// in fixed-size chunks without keeping it. Any status code counts as a
// completed turn; only transport failures are returned as errors.
func (c *Client) Send(ctx context.Context, scenario string, payload Payload) (*Response, error) {
	if payload.History == nil {
		payload.History = []Message{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	url := c.baseURL + config.ChatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(config.TrafficHeader, config.TrafficSynthetic)
	req.Header.Set(config.ScenarioHeader, scenario)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugw("close response body", "error", err)
		}
	}()

	// Each read must produce data within the timeout; an idle stream is cut by
	// cancelling the request.
	var idle atomic.Bool
	timer := time.AfterFunc(c.timeout, func() {
		idle.Store(true)
		cancel()
	})
	defer timer.Stop()

	out := &Response{StatusCode: resp.StatusCode}
	if err := c.drain(resp.Body, out, timer); err != nil {
		if idle.Load() {
			err = fmt.Errorf("no data for %s: %w", c.timeout, err)
		}
		return out, &TransportError{Op: "read stream", Err: err}
	}
	return out, nil
}

func (c *Client) drain(r io.Reader, out *Response, timer *time.Timer) error {
	buf := make([]byte, c.chunkSize)
	for {
		timer.Reset(c.timeout)
		n, err := r.Read(buf)
		if n > 0 {
			out.Bytes += int64(n)
			out.Chunks++
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Describe fetches the chat endpoint descriptor. Unlike Send, a non-2xx
// status is an error here.
func (c *Client) Describe(ctx context.Context) (*Descriptor, error) {
	url := c.baseURL + config.ChatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugw("close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat endpoint: status %d: %s", resp.StatusCode, string(body))
	}
	var d Descriptor
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &d, nil
}
