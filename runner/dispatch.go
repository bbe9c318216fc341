package runner

import (
	"errors"
	"fmt"
	"io"

	"voicecmd/model"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"
)

var (
	ErrUnsupportedType = errors.New("unsupported command type")
	ErrNoHandler       = errors.New("no handler")
)

// Handler performs a keyboard or system action by name.
type Handler func(action string) error

type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows desktop notifications.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Dispatcher executes matched commands according to their type.
type Dispatcher struct {
	Launch   func(path string) error
	Keyboard Handler
	System   map[string]func() error
	Notifier Notifier

	logger *log.Logger
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{
		Launch: Start,
		System: make(map[string]func() error),
		logger: logger.With("component", "dispatch"),
	}
}

func (d *Dispatcher) Dispatch(c model.Command) error {
	var err error
	switch c.Type {
	case model.TypeApp:
		err = d.Launch(c.Action)
	case model.TypeKeyboard:
		if d.Keyboard == nil {
			err = fmt.Errorf("%w for keyboard actions", ErrNoHandler)
			break
		}
		err = d.Keyboard(c.Action)
	case model.TypeSystem:
		fn, ok := d.System[c.Action]
		if !ok {
			err = fmt.Errorf("%w for system action %q", ErrNoHandler, c.Action)
			break
		}
		err = fn()
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedType, c.Type)
	}
	if err != nil {
		d.logger.Error("dispatch failed", "phrase", c.Phrase, "type", c.Type, "action", c.Action, "err", err)
		return err
	}

	d.logger.Info("dispatched command", "phrase", c.Phrase, "type", c.Type, "action", c.Action)
	if d.Notifier != nil {
		if err := d.Notifier.Notify("Voice command", c.Phrase); err != nil {
			d.logger.Debug("notification failed", "err", err)
		}
	}
	return nil
}
