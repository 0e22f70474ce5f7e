// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"io"
	"strings"
	"sync"

	"sqlpilot/cli/internal/bridge/model"
	"sqlpilot/cli/internal/history"
	"sqlpilot/cli/internal/stream"
)

// reply scripts one model exchange.
type reply struct {
	fragments []model.Fragment
	err       error
	// block makes the stream wait for its context to end.
	block bool
}

type fakeBridge struct {
	mu       sync.Mutex
	replies  []reply
	requests []model.Request
	started  chan struct{}
}

func newFakeBridge(replies ...reply) *fakeBridge {
	return &fakeBridge{replies: replies, started: make(chan struct{}, 16)}
}

func (f *fakeBridge) next(req model.Request) reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if len(f.replies) == 0 {
		return reply{}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r
}

func (f *fakeBridge) calls() []model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Request(nil), f.requests...)
}

func (f *fakeBridge) Stream(ctx context.Context, req model.Request) (model.FragmentStream, error) {
	r := f.next(req)
	if r.err != nil {
		return nil, r.err
	}
	return &fakeStream{ctx: ctx, fragments: r.fragments, block: r.block}, nil
}

func (f *fakeBridge) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	r := f.next(req)
	if r.err != nil {
		return model.Response{}, r.err
	}
	var resp model.Response
	for _, fr := range r.fragments {
		resp.Reasoning += fr.Reasoning
		resp.Content += fr.Content
	}
	return resp, nil
}

type fakeStream struct {
	ctx       context.Context
	fragments []model.Fragment
	block     bool
	closed    bool
}

func (s *fakeStream) Recv() (model.Fragment, error) {
	if len(s.fragments) > 0 {
		f := s.fragments[0]
		s.fragments = s.fragments[1:]
		return f, nil
	}
	if s.block {
		<-s.ctx.Done()
		return model.Fragment{}, s.ctx.Err()
	}
	return model.Fragment{}, io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func think(text string) model.Fragment { return model.Fragment{Reasoning: text} }
func say(text string) model.Fragment   { return model.Fragment{Content: text} }

// recordingSink keeps everything a session reports.
type recordingSink struct {
	mu      sync.Mutex
	begins  int
	events  []stream.Event
	results []*Result
	errors  []error
	notices []string
}

func (s *recordingSink) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
}

func (s *recordingSink) Event(ev stream.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) End(res *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errors = append(s.errors, err)
		return
	}
	s.results = append(s.results, res)
}

func (s *recordingSink) Notice(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, text)
}

func (s *recordingSink) lastNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notices) == 0 {
		return ""
	}
	return s.notices[len(s.notices)-1]
}

func (s *recordingSink) hasNotice(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notices {
		if n == text {
			return true
		}
	}
	return false
}

func (s *recordingSink) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, ev := range s.events {
		b.WriteString(ev.Text)
	}
	return b.String()
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (h *fakeHistory) Record(_ context.Context, e history.Entry) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return int64(len(h.entries)), nil
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]history.Entry(nil), h.entries...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
