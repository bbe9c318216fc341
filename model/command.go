package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCommand is returned when a command fails validation.
var ErrInvalidCommand = errors.New("invalid command")

// CommandType governs how a command's Action is interpreted.
type CommandType string

const (
	TypeApp      CommandType = "app"
	TypeKeyboard CommandType = "keyboard"
	TypeSystem   CommandType = "system"
)

// Types lists every valid command type.
var Types = []CommandType{TypeApp, TypeKeyboard, TypeSystem}

func (t CommandType) Valid() bool {
	switch t {
	case TypeApp, TypeKeyboard, TypeSystem:
		return true
	}
	return false
}

// ParseType converts user input into a CommandType.
func ParseType(s string) (CommandType, error) {
	t := CommandType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, s)
	}
	return t, nil
}

type Command struct {
	ID          string
	Phrase      string
	Type        CommandType
	Action      string // path for app, key name for keyboard, action name for system
	Description string
	CreatedAt   time.Time
}

// CommandInput carries the mutable fields of a command.
type CommandInput struct {
	Phrase      string
	Type        CommandType
	Action      string
	Description string
}

// Validate checks the phrase is non-empty and the type is known.
func (in CommandInput) Validate() error {
	if strings.TrimSpace(in.Phrase) == "" {
		return fmt.Errorf("%w: phrase is required", ErrInvalidCommand)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, in.Type)
	}
	return nil
}

// Input returns the mutable fields of c.
func (c Command) Input() CommandInput {
	return CommandInput{
		Phrase:      c.Phrase,
		Type:        c.Type,
		Action:      c.Action,
		Description: c.Description,
	}
}
