// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - run --watch: re-run the battery when its inputs change.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/jeranaias/meshbench/internal/config"
)

const (
	// watchDebounce is how long a file must be quiet before a rerun.
	watchDebounce = 500 * time.Millisecond

	// watchMinInterval is the minimum time between two reruns.
	watchMinInterval = 2 * time.Second
)

// =============================================================================
// RERUN LOOP
// =============================================================================

// rerunLoop collects change events for a set of files and calls run once
// the files have been quiet for debounce. Reruns are throttled by limiter.
type rerunLoop struct {
	targets  map[string]bool
	debounce time.Duration
	limiter  *rate.Limiter
	run      func(ctx context.Context) error
	now      func() time.Time
}

func newRerunLoop(paths []string, run func(ctx context.Context) error) *rerunLoop {
	targets := make(map[string]bool, len(paths))
	for _, p := range paths {
		targets[filepath.Clean(p)] = true
	}
	return &rerunLoop{
		targets:  targets,
		debounce: watchDebounce,
		limiter:  rate.NewLimiter(rate.Every(watchMinInterval), 1),
		run:      run,
		now:      time.Now,
	}
}

// relevant reports whether ev changes one of the watched files. Editors
// often save by rename, so Create and Rename count as changes.
func (l *rerunLoop) relevant(ev fsnotify.Event) bool {
	if !l.targets[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// loop runs until ctx is done or events is closed. Errors from run are
// passed to onErr and the loop keeps watching.
func (l *rerunLoop) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onErr func(error)) error {
	ticker := time.NewTicker(l.debounce / 5)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if l.relevant(ev) {
				pending = l.now()
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)

		case <-ticker.C:
			if pending.IsZero() || l.now().Sub(pending) < l.debounce {
				continue
			}
			pending = time.Time{}
			if err := l.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := l.run(ctx); err != nil && ctx.Err() == nil {
				onErr(err)
			}
		}
	}
}

// =============================================================================
// WATCH COMMAND
// =============================================================================

// watchedPaths returns the files whose change triggers a rerun: the test
// case and the backend executable or replay mesh.
func watchedPaths(cfg *config.Config) []string {
	var paths []string
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}

	add(cfg.Suite.TestCase)
	if cfg.Backend.Kind == "exec" {
		if resolved, err := exec.LookPath(cfg.Backend.Command); err == nil {
			add(resolved)
		}
	} else {
		add(cfg.Backend.Command)
	}
	return paths
}

// watchAndRun runs once, then again whenever a watched file changes, until
// interrupted.
func watchAndRun(ctx context.Context, cfg *config.Config, opts runOptions) error {
	paths := watchedPaths(cfg)
	if len(paths) == 0 {
		return fmt.Errorf("nothing to watch: test case %s not found", cfg.Suite.TestCase)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directories so files replaced on save stay watched.
	dirs := make(map[string]bool)
	for _, p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	// runOnce re-reads the test case and backend on every call.
	run := func(ctx context.Context) error {
		_, err := runOnce(ctx, cfg, opts)
		return err
	}
	onErr := func(err error) {
		DisplayError(os.Stderr, "run", err, false)
	}

	if err := run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		onErr(err)
	}
	fmt.Printf("\n%s\n", DimStyle.Render(fmt.Sprintf("Watching %d files, Ctrl+C to stop", len(paths))))
	for _, p := range paths {
		fmt.Printf("  %s\n", DimStyle.Render(p))
	}

	l := newRerunLoop(paths, func(ctx context.Context) error {
		fmt.Printf("\n%s\n", SectionStyle.Render("Change detected, re-running "+cfg.Software))
		return run(ctx)
	})
	return l.loop(ctx, watcher.Events, watcher.Errors, onErr)
}
