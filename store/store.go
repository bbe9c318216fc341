// Package store owns the command table: the durable SQLite copy and the
// in-memory index that matching and listing read from.
package store

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"voicecmd/db"
	"voicecmd/model"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageCorrupt     = errors.New("storage corrupt")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCommand     = model.ErrInvalidCommand
)

// Store is safe for concurrent use. Writers are serialized and every write
// reaches SQLite before the in-memory index changes.
type Store struct {
	db     *db.DB
	logger *log.Logger
	now    func() time.Time

	mu    sync.RWMutex
	index []model.Command
	pos   map[string]int
}

// LoadResult reports the outcome of Load.
type LoadResult struct {
	Commands []model.Command
	Skipped  int
}

// Open opens or creates the database at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrStorageUnavailable, path, err)
	}
	return &Store{
		db:     conn,
		logger: logger.With("component", "store"),
		now:    time.Now,
		pos:    make(map[string]int),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load replaces the in-memory index with the persisted commands. Unreadable
// rows are skipped and counted rather than failing the load.
func (s *Store) Load() (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmds, skipped, err := s.db.List()
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: load commands: %v", ErrStorageUnavailable, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped unreadable commands", "err", ErrStorageCorrupt, "skipped", skipped)
	}

	s.index = cmds
	s.reindex()
	s.logger.Info("loaded commands", "count", len(cmds))

	return LoadResult{Commands: s.snapshot(), Skipped: skipped}, nil
}

// Add creates a command. It never deduplicates.
func (s *Store) Add(in model.CommandInput) (model.Command, error) {
	if err := in.Validate(); err != nil {
		return model.Command{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Command{
		ID:          uuid.NewString(),
		Phrase:      in.Phrase,
		Type:        in.Type,
		Action:      in.Action,
		Description: in.Description,
		CreatedAt:   time.UnixMilli(s.now().UnixMilli()),
	}
	if err := s.db.Insert(c); err != nil {
		return model.Command{}, fmt.Errorf("add command %q: %w", c.Phrase, err)
	}

	s.pos[c.ID] = len(s.index)
	s.index = append(s.index, c)
	s.logger.Debug("added command", "id", c.ID, "phrase", c.Phrase, "type", c.Type)
	return c, nil
}

// Update replaces the mutable fields of the command with id. ID, CreatedAt and
// listing position are preserved.
func (s *Store) Update(id string, in model.CommandInput) (model.Command, error) {
	if err := in.Validate(); err != nil {
		return model.Command{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.pos[id]
	if !ok {
		return model.Command{}, fmt.Errorf("%w: command %s", ErrNotFound, id)
	}

	c := s.index[i]
	c.Phrase = in.Phrase
	c.Type = in.Type
	c.Action = in.Action
	c.Description = in.Description

	found, err := s.db.Update(c)
	if err != nil {
		return model.Command{}, fmt.Errorf("update command %s: %w", id, err)
	}
	if !found {
		return model.Command{}, fmt.Errorf("%w: command %s", ErrNotFound, id)
	}

	s.index[i] = c
	s.logger.Debug("updated command", "id", c.ID, "phrase", c.Phrase)
	return c, nil
}

// Remove deletes the command with id. Removing an id twice returns ErrNotFound.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.pos[id]
	if !ok {
		return fmt.Errorf("%w: command %s", ErrNotFound, id)
	}

	found, err := s.db.Delete(id)
	if err != nil {
		return fmt.Errorf("remove command %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: command %s", ErrNotFound, id)
	}

	phrase := s.index[i].Phrase
	s.index = append(s.index[:i:i], s.index[i+1:]...)
	s.reindex()
	s.logger.Debug("removed command", "id", id, "phrase", phrase)
	return nil
}

// List returns a copy of the index in listing order.
func (s *Store) List() []model.Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Get(id string) (model.Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.pos[id]
	if !ok {
		return model.Command{}, false
	}
	return s.index[i], true
}

// FindByPhrase returns the first command, in listing order, whose phrase and
// type equal the arguments exactly.
func (s *Store) FindByPhrase(phrase string, typ model.CommandType) (model.Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.index {
		if c.Phrase == phrase && c.Type == typ {
			return c, true
		}
	}
	return model.Command{}, false
}

func (s *Store) Phonetics() ([]model.PhoneticMapping, error) {
	mappings, err := s.db.ListPhonetics()
	if err != nil {
		return nil, fmt.Errorf("list phonetic mappings: %w", err)
	}
	return mappings, nil
}

// SetPhonetic creates or replaces the mapping for word.
func (s *Store) SetPhonetic(word, phonetic string) error {
	word = strings.TrimSpace(word)
	phonetic = strings.TrimSpace(phonetic)
	if word == "" || phonetic == "" {
		return fmt.Errorf("%w: word and phonetic are required", ErrInvalidCommand)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.UpsertPhonetic(model.PhoneticMapping{Word: word, Phonetic: phonetic}); err != nil {
		return fmt.Errorf("set phonetic %q: %w", word, err)
	}
	return nil
}

func (s *Store) RemovePhonetic(word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.db.DeletePhonetic(word)
	if err != nil {
		return fmt.Errorf("remove phonetic %q: %w", word, err)
	}
	if !found {
		return fmt.Errorf("%w: phonetic mapping %q", ErrNotFound, word)
	}
	return nil
}

// snapshot copies the index; callers must hold mu.
func (s *Store) snapshot() []model.Command {
	out := make([]model.Command, len(s.index))
	copy(out, s.index)
	return out
}

// reindex rebuilds pos from index; callers must hold mu for writing.
func (s *Store) reindex() {
	s.pos = make(map[string]int, len(s.index))
	for i, c := range s.index {
		s.pos[c.ID] = i
	}
}
