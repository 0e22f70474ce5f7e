// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session drives the conversation with the model: it composes the
// system prompt, runs one turn at a time, keeps a bounded conversation log,
// saves generated SQL and runs the interactive loop with its idle watchdog.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sqlpilot/cli/internal/analyzer"
	"sqlpilot/cli/internal/artifact"
	"sqlpilot/cli/internal/bridge"
	"sqlpilot/cli/internal/bridge/model"
	"sqlpilot/cli/internal/dialect"
	errs "sqlpilot/cli/internal/errors"
	"sqlpilot/cli/internal/history"
	"sqlpilot/cli/internal/logging"
	"sqlpilot/cli/internal/prompt"
	"sqlpilot/cli/internal/schema"
	"sqlpilot/cli/internal/stream"
	"sqlpilot/cli/internal/tools"
)

const (
	DefaultMaxHistory   = 20
	DefaultPollInterval = time.Second
)

// HistoryLog indexes saved artifacts.
type HistoryLog interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configures an Engine. Bridge and Model are required.
type Options struct {
	Bridge bridge.Bridge
	Model  string
	Params model.Params
	Stream bool

	// Dialect defaults to dialect.Default.
	Dialect string

	SchemaFiles []string
	SchemaDirs  []string
	Recursive   bool
	// Watch reloads the schema between turns when its files change.
	Watch bool

	// IdleTimeout ends Run after this long without input; 0 disables it.
	IdleTimeout  time.Duration
	PollInterval time.Duration
	MaxHistory   int

	// Writer saves generated SQL; nil disables saving.
	Writer *artifact.Writer
	// History indexes saved files; nil disables it.
	History HistoryLog

	Logger *slog.Logger
	Clock  func() time.Time
}

// Result describes a completed turn.
type Result struct {
	// Skipped is set for blank input; nothing was sent.
	Skipped   bool
	Reasoning string
	Content   string
	// SQL is Content without markdown fences.
	SQL string
	// Path is the saved artifact, empty when nothing was written.
	Path string
	// SaveErr reports a failed save; the turn itself still succeeded.
	SaveErr  error
	Duration time.Duration
}

// Engine is one interactive session. Turn and Run must not be called
// concurrently; the dialect and log are guarded for readers such as tools.
type Engine struct {
	id     string
	bridge bridge.Bridge
	model  string
	params model.Params
	stream bool

	mu      sync.Mutex
	dialect dialect.Name
	log     []model.Message

	store     *schema.Store
	composer  *prompt.Composer
	analyzer  *analyzer.Analyzer
	tools     *tools.Registry
	recursive bool
	watch     bool
	reloads   <-chan string

	maxHistory   int
	idleTimeout  time.Duration
	pollInterval time.Duration
	lastActivity time.Time

	writer  *artifact.Writer
	history HistoryLog

	logger *slog.Logger
	now    func() time.Time
}

// New validates opts, loads the schema sources and returns a ready engine.
// Schema files that fail to load are reported, not fatal.
func New(opts Options) (*Engine, schema.DirReport, error) {
	var report schema.DirReport

	if opts.Bridge == nil {
		return nil, report, errs.New(errs.ConfigInvalid, "no model transport configured")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, report, errs.New(errs.ConfigInvalid, "api.model is required")
	}
	name := opts.Dialect
	if strings.TrimSpace(name) == "" {
		name = string(dialect.Default)
	}
	if !dialect.IsSupported(name) {
		return nil, report, unsupported(name)
	}

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("session", id)

	e := &Engine{
		id:           id,
		bridge:       opts.Bridge,
		model:        opts.Model,
		params:       opts.Params,
		stream:       opts.Stream,
		dialect:      dialect.Normalize(name),
		store:        schema.NewStore(logger),
		analyzer:     analyzer.New(),
		recursive:    opts.Recursive,
		watch:        opts.Watch,
		maxHistory:   opts.MaxHistory,
		idleTimeout:  opts.IdleTimeout,
		pollInterval: opts.PollInterval,
		writer:       opts.Writer,
		history:      opts.History,
		logger:       logger,
		now:          opts.Clock,
	}
	if e.maxHistory <= 0 {
		e.maxHistory = DefaultMaxHistory
	}
	if e.pollInterval <= 0 {
		e.pollInterval = DefaultPollInterval
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.composer = prompt.NewComposer(e.store)
	e.tools = tools.Builtin(tools.Deps{Catalog: e.store, Analyzer: e.analyzer, CurrentDialect: e.Dialect})

	for _, f := range opts.SchemaFiles {
		r, err := e.store.LoadFile(f)
		if err != nil {
			report.Failed = append(report.Failed, asLoadError(f, err))
			continue
		}
		report.Files = append(report.Files, r)
	}
	for _, d := range opts.SchemaDirs {
		r, err := e.store.LoadDirectory(d, opts.Recursive)
		if err != nil {
			report.Failed = append(report.Failed, asLoadError(d, err))
			continue
		}
		report.Files = append(report.Files, r.Files...)
		report.Failed = append(report.Failed, r.Failed...)
	}

	logger.Info("session started", "dialect", e.dialect, "model", e.model, "tables", e.store.TableCount())
	return e, report, nil
}

// ID returns the session identifier recorded in history.
func (e *Engine) ID() string { return e.id }

// Store returns the schema catalog.
func (e *Engine) Store() *schema.Store { return e.store }

// Tools returns the tool registry bound to this session.
func (e *Engine) Tools() *tools.Registry { return e.tools }

// Dialect returns the active dialect.
func (e *Engine) Dialect() dialect.Name {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dialect
}

// SetDialect switches the active dialect. An unsupported name leaves the
// current dialect in place.
func (e *Engine) SetDialect(name string) error {
	if !dialect.IsSupported(name) {
		return unsupported(name)
	}
	e.mu.Lock()
	e.dialect = dialect.Normalize(name)
	e.mu.Unlock()
	e.logger.Debug("dialect changed", "dialect", e.dialect)
	return nil
}

// Log returns a copy of the conversation log.
func (e *Engine) Log() []model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Message(nil), e.log...)
}

// SystemPrompt returns the prompt the next turn will send.
func (e *Engine) SystemPrompt() string {
	return e.composer.Compose(e.Dialect())
}

// Turn sends utterance to the model and streams the answer to sink. Blank
// input is skipped without a request. On failure the log is left untouched
// and the returned error is an *errors.E of kind transport, timeout, auth or
// canceled.
func (e *Engine) Turn(ctx context.Context, utterance string, sink Sink) (*Result, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return &Result{Skipped: true}, nil
	}
	start := e.now()

	req := model.Request{
		Model:    e.model,
		Messages: e.messages(text),
		Stream:   e.stream,
		Params:   e.params,
	}

	sink.Begin()
	demux := stream.NewDemux()
	if err := e.exchange(ctx, req, demux, sink); err != nil {
		err = classify(ctx, err)
		e.logger.Warn("turn failed", "kind", kindOf(err), "err", err)
		sink.End(nil, err)
		return nil, err
	}

	e.commit(text, demux.Content())

	res := &Result{
		Reasoning: demux.Reasoning(),
		Content:   demux.Content(),
		SQL:       artifact.StripMarkdown(demux.Content()),
	}
	if e.writer != nil && res.SQL != "" {
		res.Path, res.SaveErr = e.save(ctx, res.SQL, text)
	}
	res.Duration = e.now().Sub(start)

	e.logger.Info("turn completed", "reasoning_bytes", len(res.Reasoning), "content_bytes", len(res.Content), "path", res.Path, "duration", res.Duration)
	sink.End(res, nil)
	return res, nil
}

func (e *Engine) messages(text string) []model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := make([]model.Message, 0, len(e.log)+2)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: e.composer.Compose(e.dialect)})
	msgs = append(msgs, e.log...)
	return append(msgs, model.Message{Role: model.RoleUser, Content: text})
}

func (e *Engine) exchange(ctx context.Context, req model.Request, demux *stream.Demux, sink Sink) error {
	emit := func(f model.Fragment) {
		for _, ev := range demux.Push(f) {
			sink.Event(ev)
		}
	}

	if !req.Stream {
		resp, err := e.bridge.Complete(ctx, req)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, f := range resp.Fragments() {
			emit(f)
		}
		return nil
	}

	s, err := e.bridge.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer s.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		emit(f)
	}
}

// commit appends the exchange and evicts the oldest exchanges beyond the cap.
// Eviction works in user/assistant pairs, so an odd cap keeps one slot free.
func (e *Engine) commit(user, assistant string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log,
		model.Message{Role: model.RoleUser, Content: user},
		model.Message{Role: model.RoleAssistant, Content: assistant},
	)
	if over := len(e.log) - e.maxHistory; over > 0 {
		over += over % 2
		e.log = append([]model.Message(nil), e.log[over:]...)
	}
}

func (e *Engine) save(ctx context.Context, sql, description string) (string, error) {
	path, err := e.writer.Write(sql, description)
	if err != nil {
		e.logger.Warn("artifact not saved", "err", err)
		return "", err
	}
	if e.history != nil {
		_, herr := e.history.Record(ctx, history.Entry{
			CreatedAt:   e.now(),
			SessionID:   e.id,
			Dialect:     string(e.Dialect()),
			Model:       e.model,
			Description: description,
			Path:        path,
		})
		if herr != nil {
			e.logger.Warn("history not recorded", "path", path, "err", herr)
		}
	}
	return path, nil
}

// classify maps a turn failure to a typed error. Context cancellation wins
// over whatever the transport reported.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errs.Wrap(errs.Timeout, "The request timed out", err)
		}
		return errs.Wrap(errs.Canceled, "Request canceled; partial output discarded", err)
	}
	if _, ok := errs.KindOf(err); ok {
		return err
	}
	return errs.Wrap(errs.Transport, "The model request failed", err)
}

func kindOf(err error) errs.Kind {
	k, _ := errs.KindOf(err)
	return k
}

func unsupported(name string) error {
	return errs.New(errs.DialectUnsupported,
		fmt.Sprintf("unsupported dialect %q; supported: %s", name, strings.Join(dialect.Supported(), ", ")))
}

func asLoadError(path string, err error) *schema.LoadError {
	var le *schema.LoadError
	if errors.As(err, &le) {
		return le
	}
	return &schema.LoadError{Path: path, Reason: "cannot load", Err: err}
}
