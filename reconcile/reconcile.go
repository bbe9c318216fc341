// Package reconcile keeps app commands in sync with a folder of launchable
// files. It only ever adds or updates app commands; nothing is deleted.
package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"voicecmd/model"

	"github.com/charmbracelet/log"
)

var (
	ErrFolderUnavailable = errors.New("folder unavailable")
	ErrParse             = errors.New("sidecar parse error")
)

// DefaultSidecarSuffix is appended to a file name to locate its sidecar.
const DefaultSidecarSuffix = ".voice.json"

// Store is the subset of the command store the reconciler needs.
type Store interface {
	FindByPhrase(phrase string, typ model.CommandType) (model.Command, bool)
	Add(in model.CommandInput) (model.Command, error)
	Update(id string, in model.CommandInput) (model.Command, error)
}

// Result counts what one pass did.
type Result struct {
	Added     int
	Updated   int
	Unchanged int
	Skipped   int
}

type Reconciler struct {
	folder string
	suffix string
	store  Store
	logger *log.Logger

	mu sync.Mutex
}

func New(folder, sidecarSuffix string, store Store, logger *log.Logger) *Reconciler {
	if sidecarSuffix == "" {
		sidecarSuffix = DefaultSidecarSuffix
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{
		folder: folder,
		suffix: sidecarSuffix,
		store:  store,
		logger: logger.With("component", "reconcile", "folder", folder),
	}
}

func (r *Reconciler) Folder() string { return r.folder }

type derived struct {
	phrase      string
	action      string
	description string
}

// Scan runs one reconciliation pass. Passes on the same Reconciler never
// overlap. Per-file failures are logged and counted in Skipped; only an
// unreadable folder fails the pass.
func (r *Reconciler) Scan() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.folder)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrFolderUnavailable, err)
		r.logger.Warn("reconciliation aborted", "err", err)
		return Result{}, err
	}

	var res Result
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, r.suffix) {
			continue
		}
		path := filepath.Join(r.folder, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		d, err := r.derive(name, path)
		if err != nil {
			r.logger.Warn("skipping file", "file", name, "err", err)
			res.Skipped++
			continue
		}
		if err := r.apply(d, &res); err != nil {
			r.logger.Warn("failed to reconcile file", "file", name, "err", err)
			res.Skipped++
		}
	}

	r.logger.Info("reconciled folder",
		"added", res.Added, "updated", res.Updated,
		"unchanged", res.Unchanged, "skipped", res.Skipped)
	return res, nil
}

func (r *Reconciler) derive(name, path string) (derived, error) {
	phrase := name
	if ext := filepath.Ext(name); len(ext) < len(name) {
		phrase = strings.TrimSuffix(name, ext)
	}
	d := derived{
		phrase:      phrase,
		action:      path,
		description: "Launch " + name,
	}

	data, err := os.ReadFile(path + r.suffix)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return derived{}, fmt.Errorf("read sidecar: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return derived{}, fmt.Errorf("%w: %s: %v", ErrParse, name+r.suffix, err)
	}

	// valid JSON of any other shape keeps the filename defaults
	fields, _ := doc.(map[string]any)
	if p, _ := fields["phrase"].(string); strings.TrimSpace(p) != "" {
		d.phrase = strings.TrimSpace(p)
	}
	if desc, _ := fields["description"].(string); desc != "" {
		d.description = desc
	}
	return d, nil
}

func (r *Reconciler) apply(d derived, res *Result) error {
	in := model.CommandInput{
		Phrase:      d.phrase,
		Type:        model.TypeApp,
		Action:      d.action,
		Description: d.description,
	}

	existing, ok := r.store.FindByPhrase(d.phrase, model.TypeApp)
	if !ok {
		c, err := r.store.Add(in)
		if err != nil {
			return err
		}
		r.logger.Debug("added app command", "phrase", c.Phrase, "action", c.Action)
		res.Added++
		return nil
	}

	if existing.Action == in.Action && existing.Description == in.Description {
		res.Unchanged++
		return nil
	}
	if _, err := r.store.Update(existing.ID, in); err != nil {
		return err
	}
	r.logger.Debug("updated app command", "phrase", d.phrase, "action", d.action)
	res.Updated++
	return nil
}
