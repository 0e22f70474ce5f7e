// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package openaiclient implements the bridge against any OpenAI-compatible
// chat completions endpoint. Reasoning models that expose a separate
// reasoning_content channel are supported in both streaming and
// non-streaming modes.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sqlpilot/cli/internal/bridge/model"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/httperrors"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a non-streaming request, the wait for response headers,
	// and the silence allowed between two chunks of a stream.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	api     *openai.Client
	host    string
	timeout time.Duration
	log     *slog.Logger
}

// New creates a client. It does not contact the endpoint.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		}
	}

	return &Client{
		api:     openai.NewClientWithConfig(oc),
		host:    httperrors.ExtractHostFromURL(oc.BaseURL),
		timeout: timeout,
		log:     logger,
	}
}

// Stream issues a streaming chat completion.
func (c *Client) Stream(ctx context.Context, req model.Request) (model.FragmentStream, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Wrap(errs.Transport, "invalid request", err)
	}

	c.log.Debug("opening completion stream", "model", req.Model, "messages", len(req.Messages))
	sctx, cancel := context.WithCancel(ctx)
	s, err := c.api.CreateChatCompletionStream(sctx, toOpenAI(req))
	if err != nil {
		cancel()
		return nil, c.classify(ctx, err)
	}
	st := &stream{ctx: ctx, cancel: cancel, s: s, client: c}
	st.idle = time.AfterFunc(c.timeout, st.expire)
	return st, nil
}

// Complete issues a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	if err := req.Validate(); err != nil {
		return model.Response{}, errs.Wrap(errs.Transport, "invalid request", err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.Debug("requesting completion", "model", req.Model, "messages", len(req.Messages))
	oreq := toOpenAI(req)
	oreq.Stream = false
	resp, err := c.api.CreateChatCompletion(cctx, oreq)
	if err != nil {
		return model.Response{}, c.classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, errs.New(errs.Transport, "model returned no choices")
	}
	msg := resp.Choices[0].Message
	return model.Response{Reasoning: msg.ReasoningContent, Content: msg.Content}, nil
}

type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	s      *openai.ChatCompletionStream
	client *Client

	// idle cancels the request when Recv waits longer than the timeout.
	idle     *time.Timer
	expired  atomic.Bool
	finished bool
}

func (s *stream) expire() {
	s.expired.Store(true)
	s.cancel()
}

// Recv returns the next non-empty fragment, or io.EOF once the model has
// reported a finish reason. A stream that ends without one is an error.
func (s *stream) Recv() (model.Fragment, error) {
	for {
		s.idle.Reset(s.client.timeout)
		chunk, err := s.s.Recv()
		s.idle.Stop()
		if s.expired.Load() {
			return model.Fragment{}, errs.Wrap(errs.Timeout,
				fmt.Sprintf("The model sent nothing for %s", s.client.timeout), context.DeadlineExceeded)
		}
		if errors.Is(err, io.EOF) {
			if s.finished {
				return model.Fragment{}, io.EOF
			}
			return model.Fragment{}, errs.Wrap(errs.Transport, "stream ended early", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return model.Fragment{}, s.client.classify(s.ctx, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			s.finished = true
		}
		if f, ok := model.NewFragment(choice.Delta.ReasoningContent, choice.Delta.Content); ok {
			return f, nil
		}
	}
}

func (s *stream) Close() error {
	s.idle.Stop()
	s.cancel()
	return s.s.Close()
}

func toOpenAI(req model.Request) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: roleOf(m.Role), Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:            req.Model,
		Messages:         msgs,
		Stream:           req.Stream,
		MaxTokens:        req.Params.MaxTokens,
		Temperature:      nonZero(req.Params.Temperature),
		TopP:             nonZero(req.Params.TopP),
		PresencePenalty:  float32(req.Params.PresencePenalty),
		FrequencyPenalty: float32(req.Params.FrequencyPenalty),
	}
}

// nonZero keeps an explicit 0 on the wire; go-openai omits zero floats.
func nonZero(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

func roleOf(r model.Role) string {
	switch r {
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// classify converts a client error into a typed error exactly once.
func (c *Client) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return errs.Wrap(errs.Canceled, "request canceled", err)
	}

	category := Category(err)
	msg, _ := httperrors.Explain(category, c.host)
	c.log.Debug("model request failed", "category", category.String(), "error", err)

	switch category {
	case httperrors.Canceled:
		return errs.Wrap(errs.Canceled, msg, err)
	case httperrors.Timeout:
		return errs.Wrap(errs.Timeout, msg, err)
	case httperrors.Auth:
		return errs.Wrap(errs.Auth, msg, err)
	default:
		return errs.Wrap(errs.Transport, msg, err)
	}
}

// Category returns the transport category of a client error. HTTP status
// codes take precedence over network-level inspection.
func Category(err error) httperrors.Category {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	category := httperrors.Unknown
	switch {
	case errors.As(err, &apiErr):
		category = httperrors.FromStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		category = httperrors.FromStatus(reqErr.HTTPStatusCode)
	}
	if category == httperrors.Unknown {
		category = httperrors.Classify(err)
	}
	return category
}
