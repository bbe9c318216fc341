package store

import (
	"fmt"

	"voicecmd/model"
)

const seededKey = "defaults_seeded"

// Defaults is the built-in command set offered on first start.
var Defaults = []model.CommandInput{
	{Phrase: "quit application", Type: model.TypeSystem, Action: "quit", Description: "Quit the voice commander"},
	{Phrase: "minimize window", Type: model.TypeSystem, Action: "minimize", Description: "Minimize the voice commander window"},
	{Phrase: "show window", Type: model.TypeSystem, Action: "show", Description: "Show the voice commander window"},
	{Phrase: "pause video", Type: model.TypeKeyboard, Action: "space", Description: "Press spacebar to pause/play video"},
	{Phrase: "volume up", Type: model.TypeKeyboard, Action: "volumeUp", Description: "Increase system volume"},
	{Phrase: "volume down", Type: model.TypeKeyboard, Action: "volumeDown", Description: "Decrease system volume"},
	{Phrase: "mute", Type: model.TypeKeyboard, Action: "mute", Description: "Mute/unmute system audio"},
}

// SeedDefaults adds each default command whose phrase and type are not
// already present and returns how many were added.
func (s *Store) SeedDefaults() (int, error) {
	added := 0
	for _, in := range Defaults {
		if _, ok := s.FindByPhrase(in.Phrase, in.Type); ok {
			continue
		}
		if _, err := s.Add(in); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		s.logger.Info("seeded default commands", "added", added)
	}
	return added, nil
}

// SeedDefaultsOnce seeds the defaults the first time it runs against a
// database and is a no-op afterwards, so removed defaults stay removed. A
// database that already holds commands is marked seeded without changes.
func (s *Store) SeedDefaultsOnce() (int, error) {
	_, seeded, err := s.db.Meta(seededKey)
	if err != nil {
		return 0, fmt.Errorf("%w: read seed marker: %v", ErrStorageUnavailable, err)
	}
	if seeded {
		return 0, nil
	}

	added := 0
	if len(s.List()) == 0 {
		if added, err = s.SeedDefaults(); err != nil {
			return added, err
		}
	}
	if err := s.db.SetMeta(seededKey, "1"); err != nil {
		return added, fmt.Errorf("%w: write seed marker: %v", ErrStorageUnavailable, err)
	}
	return added, nil
}
