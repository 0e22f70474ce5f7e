// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge defines the interface between the session engine and the
// remote chat model. Implementations own the wire protocol and classify their
// failures into typed errors before returning them; callers never see raw
// transport errors.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"sqlpilot/cli/internal/bridge/model"
	"sqlpilot/cli/internal/bridge/openaiclient"
)

// FragmentStream is re-exported for callers that only import bridge.
type FragmentStream = model.FragmentStream

// Bridge represents a connection to an OpenAI-compatible chat endpoint.
type Bridge interface {
	// Stream issues a streaming request. The returned stream must be closed.
	Stream(ctx context.Context, req model.Request) (FragmentStream, error)
	// Complete issues a non-streaming request.
	Complete(ctx context.Context, req model.Request) (model.Response, error)
}

// Options configures the default bridge.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates the default bridge backed by the OpenAI-compatible client.
func New(opts Options) Bridge {
	return openaiclient.New(openaiclient.Config{
		APIKey:  opts.APIKey,
		BaseURL: opts.BaseURL,
		Timeout: opts.Timeout,
		Logger:  opts.Logger,
	})
}
