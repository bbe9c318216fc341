// Package watcher re-runs folder reconciliation when the folder changes.
package watcher

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// Watcher coalesces filesystem events into scan passes. At most one pass runs
// at a time and at most one more is pending behind it.
type Watcher struct {
	folder   string
	debounce time.Duration
	scan     func()
	logger   *log.Logger

	pending chan struct{}
}

// New returns a watcher for folder. After an event it waits debounce before
// scanning so bursts collapse into one pass; zero scans right away.
func New(folder string, debounce time.Duration, scan func(), logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Watcher{
		folder:   folder,
		debounce: debounce,
		scan:     scan,
		logger:   logger.With("component", "watcher", "folder", folder),
		pending:  make(chan struct{}, 1),
	}
}

// Trigger requests a pass. It never blocks.
func (w *Watcher) Trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// Run watches the folder until ctx is done. It returns an error only when the
// watch cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.folder); err != nil {
		return fmt.Errorf("watch %s: %w", w.folder, err)
	}
	w.logger.Info("watching folder")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			w.logger.Debug("change detected", "name", event.Name, "op", event.Op.String())
			w.Trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pending:
		}

		if w.debounce > 0 {
			timer := time.NewTimer(w.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			// the pass below reads the folder fresh, so it covers these too
			select {
			case <-w.pending:
			default:
			}
		}

		w.scan()
	}
}
