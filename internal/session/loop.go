// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sqlpilot/cli/internal/schema"
)

// ExitReason says why Run returned.
type ExitReason string

const (
	ExitUser        ExitReason = "user"
	ExitIdleTimeout ExitReason = "idle_timeout"
	ExitInterrupted ExitReason = "interrupted"
	ExitEOF         ExitReason = "eof"
)

// Run reads lines until the user quits, input ends, an interrupt arrives
// while waiting for input, or the session sits idle past its timeout. An
// interrupt during a turn abandons only that turn. The idle watchdog does
// not run while a turn is in flight.
func (e *Engine) Run(ctx context.Context, lines <-chan string, interrupts <-chan struct{}, sink Sink) ExitReason {
	reloads := e.reloads
	if reloads == nil && e.watch {
		w, err := schema.NewWatcher(e.store, e.logger)
		if err != nil {
			e.logger.Warn("schema watch disabled", "err", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
			reloads = w.Changes()
		}
	}

	e.touch()
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ExitInterrupted

		case <-interrupts:
			return ExitInterrupted

		case path := <-reloads:
			e.reload(path, sink)

		case <-ticker.C:
			if e.idle() {
				sink.Notice(fmt.Sprintf("Session idle for %s; exiting.", e.idleTimeout))
				e.logger.Info("session ended", "reason", ExitIdleTimeout)
				return ExitIdleTimeout
			}

		case line, ok := <-lines:
			if !ok {
				return ExitEOF
			}
			e.touch()
			if quit := e.handle(ctx, line, interrupts, sink); quit {
				e.logger.Info("session ended", "reason", ExitUser)
				return ExitUser
			}
			e.touch()
		}
	}
}

func (e *Engine) handle(ctx context.Context, line string, interrupts <-chan struct{}, sink Sink) bool {
	text := strings.TrimSpace(line)
	switch strings.ToLower(text) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	if strings.HasPrefix(text, "/") {
		e.command(ctx, text, sink)
		return false
	}
	e.turnInterruptible(ctx, text, interrupts, sink)
	return false
}

// turnInterruptible runs one turn whose context is canceled by the next
// interrupt. Errors have already been delivered to sink by Turn.
func (e *Engine) turnInterruptible(ctx context.Context, text string, interrupts <-chan struct{}, sink Sink) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupts:
			cancel()
		case <-done:
		}
	}()

	_, _ = e.Turn(turnCtx, text, sink)
}

func (e *Engine) reload(path string, sink Sink) {
	report := e.store.Reload()
	e.logger.Info("schema reloaded", "trigger", path, "tables", e.store.TableCount(), "failed", len(report.Failed))
	sink.Notice(fmt.Sprintf("Schema reloaded: %d tables.", e.store.TableCount()))
	for _, f := range report.Failed {
		sink.Notice(f.Error())
	}
}

func (e *Engine) touch() {
	e.mu.Lock()
	e.lastActivity = e.now()
	e.mu.Unlock()
}

func (e *Engine) idle() bool {
	if e.idleTimeout <= 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Sub(e.lastActivity) >= e.idleTimeout
}
