// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the files a Store was loaded from. It never
// touches the store itself; the owner decides when to call Reload.
//
// Sources recorded after the watcher starts are picked up while Run is
// active, as are directories created under a recursive source.
type Watcher struct {
	fs      *fsnotify.Watcher
	store   *Store
	files   map[string]bool
	dirs    []Source
	known   map[Source]bool
	watched map[string]bool
	changes chan string
	log     *slog.Logger
}

// NewWatcher watches every source currently recorded by the store.
// Parent directories are watched rather than files so that editors which
// replace files on save are still observed.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = store.log
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create schema watcher: %w", err)
	}

	w := &Watcher{
		fs:      fw,
		store:   store,
		files:   make(map[string]bool),
		known:   make(map[Source]bool),
		watched: make(map[string]bool),
		changes: make(chan string, 1),
		log:     logger,
	}
	if err := w.sync(); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// sync starts watching every store source not seen before.
func (w *Watcher) sync() error {
	for _, src := range w.store.Sources() {
		if w.known[src] {
			continue
		}
		if err := w.watch(src); err != nil {
			return fmt.Errorf("watch %s: %w", src.Path, err)
		}
		w.known[src] = true
	}
	return nil
}

func (w *Watcher) watch(src Source) error {
	abs, err := filepath.Abs(src.Path)
	if err != nil {
		abs = src.Path
	}
	if !src.Dir {
		w.files[abs] = true
		return w.add(filepath.Dir(abs))
	}
	w.dirs = append(w.dirs, Source{Path: abs, Dir: true, Recursive: src.Recursive})
	if !src.Recursive {
		return w.add(abs)
	}
	return w.addTree(abs)
}

func (w *Watcher) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.add(p)
		}
		return nil
	})
}

// Changes delivers the path of a changed schema file. Bursts of events are
// coalesced: at most one notification is pending at a time.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run forwards relevant filesystem events until ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.store.added:
			if err := w.sync(); err != nil {
				w.log.Warn("schema watcher error", "error", err)
			}
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 && w.underRecursive(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Warn("schema watcher error", "error", err)
					}
					w.notify(ev.Name)
					continue
				}
			}
			if !w.relevant(ev.Name) {
				continue
			}
			w.log.Debug("schema file changed", "path", ev.Name, "op", ev.Op.String())
			w.notify(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("schema watcher error", "error", err)
		}
	}
}

func (w *Watcher) notify(name string) {
	select {
	case w.changes <- name:
	default:
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) underRecursive(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	for _, d := range w.dirs {
		if d.Recursive && strings.HasPrefix(abs, d.Path+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	if w.files[abs] {
		return true
	}
	if !isSchemaFile(abs) {
		return false
	}
	for _, d := range w.dirs {
		if d.Recursive {
			if abs == d.Path || strings.HasPrefix(abs, d.Path+string(filepath.Separator)) {
				return true
			}
			continue
		}
		if filepath.Dir(abs) == d.Path {
			return true
		}
	}
	return false
}
