// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpilot/cli/internal/bridge/model"
	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/history"
)

type harness struct {
	lines      chan string
	interrupts chan struct{}
	sink       *recordingSink
	done       chan ExitReason
}

func start(t *testing.T, e *Engine) *harness {
	t.Helper()
	h := &harness{
		lines:      make(chan string),
		interrupts: make(chan struct{}, 1),
		sink:       &recordingSink{},
		done:       make(chan ExitReason, 1),
	}
	go func() { h.done <- e.Run(context.Background(), h.lines, h.interrupts, h.sink) }()
	return h
}

func (h *harness) send(t *testing.T, line string) {
	t.Helper()
	select {
	case h.lines <- line:
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not accept %q", line)
	}
}

func (h *harness) wait(t *testing.T) ExitReason {
	t.Helper()
	select {
	case reason := <-h.done:
		return reason
	case <-time.After(3 * time.Second):
		t.Fatal("session did not exit")
		return ""
	}
}

func TestRunExitsOnQuit(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", "/exit"} {
		t.Run(word, func(t *testing.T) {
			h := start(t, newEngine(t, newFakeBridge()))
			h.send(t, word)
			assert.Equal(t, ExitUser, h.wait(t))
		})
	}
}

func TestRunExitsOnEOF(t *testing.T) {
	h := start(t, newEngine(t, newFakeBridge()))
	close(h.lines)
	assert.Equal(t, ExitEOF, h.wait(t))
}

func TestRunInterruptWhileWaiting(t *testing.T) {
	h := start(t, newEngine(t, newFakeBridge()))
	h.interrupts <- struct{}{}
	assert.Equal(t, ExitInterrupted, h.wait(t))
}

func TestRunContextCanceled(t *testing.T) {
	e := newEngine(t, newFakeBridge())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan ExitReason, 1)
	go func() { done <- e.Run(ctx, make(chan string), nil, Discard{}) }()
	cancel()
	select {
	case reason := <-done:
		assert.Equal(t, ExitInterrupted, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not exit")
	}
}

func TestRunIdleTimeout(t *testing.T) {
	e := newEngine(t, newFakeBridge(), func(o *Options) { o.IdleTimeout = time.Second })

	began := time.Now()
	reason := e.Run(context.Background(), make(chan string), make(chan struct{}), &recordingSink{})
	elapsed := time.Since(began)

	assert.Equal(t, ExitIdleTimeout, reason)
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRunIdleWatchdogPausedDuringTurn(t *testing.T) {
	b := newFakeBridge(reply{block: true})
	e := newEngine(t, b, func(o *Options) {
		o.IdleTimeout = 100 * time.Millisecond
		o.PollInterval = 10 * time.Millisecond
	})
	h := start(t, e)
	h.send(t, "slow question")
	<-b.started

	// Far past the idle timeout while the turn is in flight.
	time.Sleep(300 * time.Millisecond)
	select {
	case reason := <-h.done:
		t.Fatalf("session exited during a turn: %s", reason)
	default:
	}

	h.interrupts <- struct{}{}
	assert.Equal(t, ExitIdleTimeout, h.wait(t))
	require.Len(t, h.sink.errors, 1)
	assert.True(t, errs.Is(h.sink.errors[0], errs.Canceled))
}

func TestRunInterruptAbandonsTurnOnly(t *testing.T) {
	b := newFakeBridge(
		reply{fragments: []model.Fragment{say("partial")}, block: true},
		reply{fragments: []model.Fragment{say("SELECT 1")}},
	)
	e := newEngine(t, b)
	h := start(t, e)

	h.send(t, "first")
	<-b.started
	h.interrupts <- struct{}{}

	h.send(t, "second")
	h.send(t, "exit")
	assert.Equal(t, ExitUser, h.wait(t))

	require.Len(t, h.sink.errors, 1)
	assert.True(t, errs.Is(h.sink.errors[0], errs.Canceled))
	require.Len(t, h.sink.results, 1)
	log := e.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "second", log[0].Content)
}

func TestRunBlankLineSendsNothing(t *testing.T) {
	b := newFakeBridge()
	h := start(t, newEngine(t, b))
	h.send(t, "   ")
	h.send(t, "exit")
	h.wait(t)
	assert.Empty(t, b.calls())
}

func TestRunAppliesSchemaReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "orders.yaml", ordersSchema)
	e := newEngine(t, newFakeBridge(), func(o *Options) { o.SchemaFiles = []string{path} })
	reloads := make(chan string, 1)
	e.reloads = reloads

	h := start(t, e)
	writeSchema(t, dir, "orders.yaml", "tables:\n  - name: orders\n  - name: refunds\n")
	reloads <- path
	require.Eventually(t, func() bool { return h.sink.hasNotice("Schema reloaded: 2 tables.") },
		2*time.Second, 10*time.Millisecond)
	h.send(t, "/tables")
	h.send(t, "exit")
	h.wait(t)

	assert.Equal(t, "orders\nrefunds", h.sink.lastNotice())
}

func TestSlashCommands(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir, "orders.yaml", ordersSchema)
	hist := &fakeHistory{}
	_, _ = hist.Record(context.Background(), history.Entry{Dialect: "hive", Path: "generated_sql/x.sql", Description: "demo"})

	e := newEngine(t, newFakeBridge(), func(o *Options) { o.History = hist })
	sink := &recordingSink{}
	run := func(line string) string {
		e.command(context.Background(), line, sink)
		return sink.lastNotice()
	}

	assert.Contains(t, run("/help"), "/schema load <path>")
	assert.Equal(t, "Current dialect: hive", run("/dialect"))
	assert.Equal(t, "Dialect set to trino", run("/dialect Trino"))
	assert.Contains(t, run("/dialect cobol"), "unsupported dialect")
	assert.Equal(t, dialect.Trino, e.Dialect())
	assert.Contains(t, run("/dialects"), "snowflake *")

	assert.Equal(t, "No schema loaded.", run("/tables"))
	assert.Equal(t, "Loaded 1 tables from 1 files.", run("/schema load "+schemaPath))
	reloaded := run("/schema load " + dir)
	assert.Contains(t, reloaded, "Loaded 1 tables from 1 files.")
	assert.Contains(t, reloaded, "Replaced from "+schemaPath+": orders")
	assert.Equal(t, "orders", run("/tables"))
	assert.Contains(t, run("/describe orders"), "- id BIGINT NOT NULL")
	assert.Contains(t, run("/describe"), `argument "table" is empty`)
	assert.Contains(t, run("/schema load "+filepath.Join(dir, "nope.yaml")), "Error:")
	assert.Equal(t, "Schema cleared.", run("/schema clear"))
	assert.Equal(t, 0, e.Store().TableCount())

	assert.Equal(t, "Valid SQL (checked for trino), 1 statement(s)\n1. select, read-only, tables: orders", run("/analyze select id from orders"))
	assert.Contains(t, run("/analyze selec"), "Syntax error (checked for trino)")
	assert.Equal(t, "select 1 from dual;", run("/format SELECT 1 FROM dual"))

	assert.Contains(t, run("/history"), "generated_sql/x.sql  demo")
	assert.Contains(t, run("/bogus"), "unknown command /bogus")
}
