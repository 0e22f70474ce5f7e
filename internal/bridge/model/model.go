// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the transport-agnostic shapes exchanged with a chat
// model: requests, response fragments and final responses.
//
// Fragments are validated once where they enter the program, so everything
// downstream can rely on the fields instead of probing for them.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged conversation entry.
type Message struct {
	Role    Role
	Content string
}

// Params are the sampling and timeout settings sent with every request.
type Params struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Request is a single chat exchange.
type Request struct {
	Model    string
	Messages []Message
	Stream   bool
	Params   Params
}

// Validate checks the request before it leaves the process.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	if r.Params.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", r.Params.MaxTokens)
	}
	return nil
}

// Fragment is one streamed delta. Either field may be empty, not both.
type Fragment struct {
	Reasoning string
	Content   string
}

// NewFragment builds a fragment from raw deltas and reports whether it
// carries anything worth forwarding.
func NewFragment(reasoning, content string) (Fragment, bool) {
	f := Fragment{Reasoning: reasoning, Content: content}
	return f, !f.Empty()
}

// Empty reports whether the fragment carries no text.
func (f Fragment) Empty() bool {
	return f.Reasoning == "" && f.Content == ""
}

// Response is a complete, non-streamed answer.
type Response struct {
	Reasoning string
	Content   string
}

// Fragments returns the response as the fragment sequence a stream of the
// same answer would have produced.
func (r Response) Fragments() []Fragment {
	var out []Fragment
	if f, ok := NewFragment(r.Reasoning, ""); ok {
		out = append(out, f)
	}
	if f, ok := NewFragment("", r.Content); ok {
		out = append(out, f)
	}
	return out
}

// FragmentStream is a sequential pull over a streamed response. Recv returns
// io.EOF once the response is complete.
type FragmentStream interface {
	Recv() (Fragment, error)
	Close() error
}
