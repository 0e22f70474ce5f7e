// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package stream splits a model response into its reasoning and content
// channels and turns it into display events.
package stream

import (
	"strings"

	"sqlpilot/cli/internal/bridge/model"
)

// Phase is the demultiplexer state.
type Phase int

const (
	PhaseReasoning Phase = iota
	PhaseContent
)

func (p Phase) String() string {
	if p == PhaseContent {
		return "content"
	}
	return "reasoning"
}

// EventKind tags a display event.
type EventKind int

const (
	// EventReasoningHeader opens the reasoning section.
	EventReasoningHeader EventKind = iota
	// EventReasoning carries reasoning text.
	EventReasoning
	// EventTransition separates reasoning from the SQL that follows.
	EventTransition
	// EventContent carries SQL text.
	EventContent
)

// Markers rendered for the structural events.
const (
	ReasoningHeader  = "Reasoning:\n"
	TransitionMarker = "\n\nGenerated SQL:\n"
)

// Event is one display unit produced from the stream.
type Event struct {
	Kind EventKind
	Text string
}

// Demux is a single-response state machine. It is not safe for concurrent
// use and must not be reused across responses.
type Demux struct {
	phase        Phase
	sawReasoning bool
	reasoning    strings.Builder
	content      strings.Builder
	transitions  int
}

// NewDemux returns a demultiplexer in the reasoning phase.
func NewDemux() *Demux {
	return &Demux{phase: PhaseReasoning}
}

// Push consumes one fragment and returns the events to display, in order.
// A fragment may carry both channels; reasoning is handled first.
func (d *Demux) Push(f model.Fragment) []Event {
	var events []Event

	if f.Reasoning != "" {
		d.reasoning.WriteString(f.Reasoning)
		if d.phase == PhaseReasoning {
			if !d.sawReasoning {
				d.sawReasoning = true
				events = append(events, Event{Kind: EventReasoningHeader, Text: ReasoningHeader})
			}
			events = append(events, Event{Kind: EventReasoning, Text: f.Reasoning})
		}
	}

	if f.Content != "" {
		if d.phase == PhaseReasoning {
			if d.sawReasoning {
				d.transitions++
				events = append(events, Event{Kind: EventTransition, Text: TransitionMarker})
			}
			d.phase = PhaseContent
		}
		d.content.WriteString(f.Content)
		events = append(events, Event{Kind: EventContent, Text: f.Content})
	}

	return events
}

// Phase returns the current state.
func (d *Demux) Phase() Phase { return d.phase }

// Reasoning returns all reasoning text received, including any that arrived
// after the switch to content and was not displayed.
func (d *Demux) Reasoning() string { return d.reasoning.String() }

// Content returns the accumulated SQL content.
func (d *Demux) Content() string { return d.content.String() }

// Transitions returns the number of transition markers emitted (0 or 1).
func (d *Demux) Transitions() int { return d.transitions }
