// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tools exposes schema and SQL helpers as named tools that can be
// invoked from the interactive shell or served to MCP clients.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTool is returned by Registry.Invoke for unregistered names.
var ErrUnknownTool = errors.New("unknown tool")

// Param describes one string argument of a tool.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Tool is a named operation with string arguments and a text result.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t. Names must be non-empty and unique.
func (r *Registry) Register(t Tool) error {
	if t == nil || strings.TrimSpace(t.Name()) == "" {
		return errors.New("tool must have a name")
	}
	if _, dup := r.tools[t.Name()]; dup {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns every tool sorted by name.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Invoke checks required arguments and runs the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	for _, p := range t.Params() {
		if p.Required {
			if _, err := stringArg(args, p.Name); err != nil {
				return "", err
			}
		}
	}
	return t.Invoke(ctx, args)
}

// funcTool adapts a function to Tool.
type funcTool struct {
	name        string
	description string
	params      []Param
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

func (f *funcTool) Name() string        { return f.name }
func (f *funcTool) Description() string { return f.description }
func (f *funcTool) Params() []Param     { return f.params }

func (f *funcTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f.fn(ctx, args)
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q is empty", name)
	}
	return s, nil
}

func optionalString(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}
