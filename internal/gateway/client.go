// Package gateway sends composed prompts to the generateContent endpoint and
// turns the reply into a validated Response.
package gateway

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

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the generative language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemma-3-27b-it"

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 60 * time.Second

	maxResponseSize = 1 << 20
)

// DefaultDelays are the waits between attempts. Their count is the retry budget.
var DefaultDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Client calls the model with retry and validation.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	delays     []time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel sets the model name.
func WithModel(m string) Option {
	return func(c *Client) {
		if m = strings.TrimSpace(m); m != "" {
			c.model = m
		}
	}
}

// WithHTTPClient sets the HTTP client used for every attempt.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithDelays sets the backoff schedule. len(delays) is the number of retries.
func WithDelays(delays ...time.Duration) Option {
	return func(c *Client) { c.delays = delays }
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client with the default endpoint, model and retry schedule.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		delays:     DefaultDelays,
		sleep:      sleepContext,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// step is a state of the retry machine.
type step int

const (
	stepAttempt step = iota
	stepRetry
	stepFail
	stepDone
)

// Send delivers prompt to the model and returns the parsed response.
// Fatal failures return after the first attempt; retryable ones are retried
// on the backoff schedule and the last error is returned once it is spent.
func (c *Client) Send(ctx context.Context, prompt, apiKey string) (*Response, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, newError(KindAuth, "API key not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: defaultGenerationConfig,
	})
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Detail: "failed to encode request", Err: err}
	}

	var (
		resp     *Response
		last     *Error
		attempt  int
		maxTries = len(c.delays) + 1
	)
	for next := stepAttempt; ; {
		switch next {
		case stepAttempt:
			attempt++
			c.logger.Debug("calling model",
				zap.String("model", c.model),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxTries),
				zap.Int("prompt_len", len(prompt)))
			resp, last = c.attempt(ctx, body, apiKey)
			next = c.classify(attempt, last)

		case stepRetry:
			delay := c.delays[attempt-1]
			c.logger.Debug("attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.String("kind", string(last.Kind)),
				zap.String("detail", last.Detail),
				zap.Duration("backoff", delay))
			if err := c.sleep(ctx, delay); err != nil {
				c.logger.Warn("retry wait interrupted", zap.Error(err))
				return nil, last
			}
			next = stepAttempt

		case stepFail:
			c.logger.Warn("model call failed",
				zap.Int("attempts", attempt),
				zap.String("kind", string(last.Kind)),
				zap.Bool("fatal", last.Kind.Fatal()),
				zap.String("detail", last.Detail))
			return nil, last

		case stepDone:
			if n := resp.Dropped(); n > 0 {
				c.logger.Debug("ignored unrecognised actions", zap.Int("count", n))
			}
			c.logger.Debug("model call succeeded",
				zap.Int("attempts", attempt),
				zap.Int("actions", len(resp.Actions)))
			return resp, nil
		}
	}
}

// classify decides the transition after an attempt.
func (c *Client) classify(attempt int, err *Error) step {
	switch {
	case err == nil:
		return stepDone
	case err.Kind.Fatal():
		return stepFail
	case attempt > len(c.delays):
		return stepFail
	default:
		return stepRetry
	}
}

// attempt performs one HTTP round trip and validates the reply.
func (c *Client) attempt(ctx context.Context, body []byte, apiKey string) (*Response, *Error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Detail: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = endpoint
		}
		return nil, &Error{Kind: KindNetwork, Detail: err.Error(), Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Detail: "failed to read response: " + err.Error(), Err: err}
	}

	return validate(httpResp.StatusCode, data)
}

// validate runs the response pipeline; each stage fails with its own kind.
func validate(status int, data []byte) (*Response, *Error) {
	if status < 200 || status > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		var message string
		if eb.Error != nil {
			message = eb.Error.Message
		}
		return nil, classifyStatus(status, message)
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, &Error{Kind: KindEmptyResponse, Detail: "malformed response body", Err: err}
	}
	if len(gr.Candidates) == 0 {
		return nil, newError(KindEmptyResponse, "no candidates returned")
	}

	cand := gr.Candidates[0]
	if cand.FinishReason == "SAFETY" || cand.FinishReason == "BLOCKED" {
		return nil, newError(KindContentBlocked, "response blocked by safety filters")
	}

	text := strings.TrimSpace(cand.text())
	if text == "" {
		return nil, newError(KindEmptyText, "no text in response")
	}

	return parseText(text)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
