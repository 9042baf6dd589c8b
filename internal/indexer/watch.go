package indexer

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher is the running handle returned by StartWatching; callers hold
// onto it only to call Stop during shutdown.
type Watcher struct {
	ix      *Indexer
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// StartWatching implements the watch-mode supplement: when
// cfg.Indexing.WatchMode is enabled, write/create events on any currently
// tracked file trigger a debounced evaluate_file, so an embedder doesn't
// have to wire its own filesystem watcher and re-call evaluate_file to
// keep the Symbol Database current between explicit edits it already
// knows about through its own editor buffers. Returns (nil, nil) when
// watch mode is disabled, so callers can invoke it unconditionally.
func (ix *Indexer) StartWatching() (*Watcher, error) {
	if !ix.cfg.Indexing.WatchMode {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, file := range ix.trackedFiles() {
		_ = fw.Add(file) // best-effort: a file removed from disk since AddFile just yields no events
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{ix: ix, watcher: fw, cancel: cancel, done: make(chan struct{})}
	go w.loop(ctx)
	return w, nil
}

// Stop cancels the watch goroutine, closes the underlying fsnotify
// watcher, and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.cancel()
	_ = w.watcher.Close()
	<-w.done
}

// loop coalesces bursts of events into a single evaluate_file per changed
// file, fired WatchDebounceMs after the last event for that file's batch
// (spec.md's debounce tunable, config.Indexing.WatchDebounceMs).
func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	debounce := time.Duration(w.ix.cfg.Indexing.WatchDebounceMs) * time.Millisecond
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	flush := func() {
		for file := range pending {
			_ = w.ix.EvaluateFile(context.Background(), file)
		}
		pending = make(map[string]struct{})
	}

	for {
		select {
		case <-ctx.Done():
			if timerActive {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timerActive && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerActive = true
		case <-timer.C:
			timerActive = false
			flush()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
