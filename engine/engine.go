// Package engine wires the command store, folder reconciliation, folder
// watching, matching and dispatch into one startup sequence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"voicecmd/config"
	"voicecmd/matcher"
	"voicecmd/model"
	"voicecmd/reconcile"
	"voicecmd/runner"
	"voicecmd/store"
	"voicecmd/watcher"

	"github.com/charmbracelet/log"
)

// ErrNoMatch is returned by Handle when no command matches the text.
var ErrNoMatch = errors.New("no matching command")

// Engine is safe for concurrent use once Start returns.
type Engine struct {
	Store      *store.Store
	Matcher    *matcher.Matcher
	Reconciler *reconcile.Reconciler
	Dispatcher *runner.Dispatcher

	cfg    config.Config
	root   *log.Logger
	logger *log.Logger

	mu          sync.Mutex
	onReconcile []func(reconcile.Result)
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Open initializes storage and loads the command table. It fails only when
// storage is unavailable.
func Open(cfg config.Config, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.Load(); err != nil {
		s.Close()
		return nil, err
	}
	if cfg.SeedDefaults {
		if _, err := s.SeedDefaultsOnce(); err != nil {
			logger.Warn("failed to seed default commands", "err", err)
		}
	}

	strategies := make([]matcher.Strategy, 0, len(cfg.Match.Strategies))
	for _, name := range cfg.Match.Strategies {
		st, err := matcher.ParseStrategy(name)
		if err != nil {
			s.Close()
			return nil, err
		}
		strategies = append(strategies, st)
	}

	threshold := cfg.Match.Threshold
	m := matcher.New(s, matcher.Options{
		Threshold:  &threshold,
		Strategies: strategies,
	})

	e := &Engine{
		Store:      s,
		Matcher:    m,
		Dispatcher: runner.NewDispatcher(logger),
		cfg:        cfg,
		root:       logger,
		logger:     logger.With("component", "engine"),
	}
	if cfg.Notifications {
		e.Dispatcher.Notifier = runner.DesktopNotifier{}
	}
	if cfg.AppsFolder != "" {
		e.Reconciler = reconcile.New(cfg.AppsFolder, cfg.SidecarSuffix, s, logger)
	}
	return e, nil
}

// OnReconcile registers fn to run after every successful reconciliation pass.
func (e *Engine) OnReconcile(fn func(reconcile.Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReconcile = append(e.onReconcile, fn)
}

// Reconcile runs one pass over the apps folder. Failures are logged and
// returned but never affect existing commands.
func (e *Engine) Reconcile() (reconcile.Result, error) {
	if e.Reconciler == nil {
		return reconcile.Result{}, fmt.Errorf("%w: no apps folder configured", reconcile.ErrFolderUnavailable)
	}
	res, err := e.Reconciler.Scan()
	if err != nil {
		return res, err
	}

	e.mu.Lock()
	hooks := append([]func(reconcile.Result){}, e.onReconcile...)
	e.mu.Unlock()
	for _, fn := range hooks {
		fn(res)
	}
	return res, nil
}

// Start runs the initial reconciliation pass and, when enabled, starts
// watching the apps folder in the background. Folder and watcher problems
// are logged and leave the engine usable without live updates.
func (e *Engine) Start(ctx context.Context) {
	if e.Reconciler == nil {
		return
	}
	_, _ = e.Reconcile()

	if !e.cfg.Watch.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	w := watcher.New(e.Reconciler.Folder(), e.cfg.Watch.Debounce, func() {
		_, _ = e.Reconcile()
	}, e.root)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := w.Run(ctx); err != nil {
			e.logger.Warn("folder watch unavailable; continuing without live updates", "err", err)
		}
	}()
}

// Handle matches text and dispatches the resulting command.
func (e *Engine) Handle(text string) (matcher.Result, error) {
	r, ok := e.Matcher.Match(text)
	if !ok {
		e.logger.Info("no command matched", "text", text)
		return matcher.Result{}, ErrNoMatch
	}
	e.logger.Info("matched command", "text", text, "phrase", r.Command.Phrase, "strategy", r.Strategy, "score", r.Score)
	return r, e.Dispatcher.Dispatch(r.Command)
}

// Serve handles utterances until ctx is done or the channel is closed.
// Errors from individual utterances are logged and do not stop the loop.
func (e *Engine) Serve(ctx context.Context, utterances <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-utterances:
			if !ok {
				return nil
			}
			if _, err := e.Handle(text); err != nil && !errors.Is(err, ErrNoMatch) {
				e.logger.Warn("utterance not handled", "text", text, "err", err)
			}
		}
	}
}

// Commands returns the current command table.
func (e *Engine) Commands() []model.Command {
	return e.Store.List()
}

// Close stops the watcher and closes storage.
func (e *Engine) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	return e.Store.Close()
}
