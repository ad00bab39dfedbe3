package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/nnviz/pkg/pipeline"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// watchRender renders input and re-renders on every change until ctx ends.
// Failed renders are logged and the previous output stays in place.
func (c *CLI) watchRender(ctx context.Context, runner *pipeline.Runner, input string, ro renderOpts, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)

	path, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	render := func() {
		if _, err := c.runRender(ctx, runner, input, ro, opts, os.Stdout); err != nil {
			if isParseError(err) {
				printWarning("%v (keeping previous output)", err)
				return
			}
			logger.Warn("render failed", "err", err)
		}
	}
	render()
	printInfo("Watching %s (ctrl+c to stop)", input)

	return watchLoop(ctx, watcher, path, render, func(err error) {
		logger.Warn("watcher error", "err", err)
	})
}

// watchLoop calls fn once per debounced burst of changes to path.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, fn func(), onErr func(error)) error {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			onErr(err)
		}
	}
}
