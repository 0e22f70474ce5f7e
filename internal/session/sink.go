// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import "sqlpilot/cli/internal/stream"

// Sink receives the output of a session as it happens.
type Sink interface {
	// Begin is called before a request is sent.
	Begin()
	// Event delivers one display unit in arrival order.
	Event(ev stream.Event)
	// End closes the turn opened by Begin, with its result or error.
	End(res *Result, err error)
	// Notice shows informational output from commands and the loop.
	Notice(text string)
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Begin()             {}
func (Discard) Event(stream.Event) {}
func (Discard) End(*Result, error) {}
func (Discard) Notice(string)      {}
