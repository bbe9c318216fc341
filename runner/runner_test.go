package runner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"voicecmd/model"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "app.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func collect(ch <-chan OutputMsg) []OutputMsg {
	var out []OutputMsg
	for msg := range ch {
		out = append(out, msg)
	}
	return out
}

func TestStreamCapturesOutput(t *testing.T) {
	path := writeScript(t, "echo hello\necho oops >&2\n")
	ch := make(chan OutputMsg)
	go Stream(path, ch)

	msgs := collect(ch)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	require.True(t, last.Done)
	require.Empty(t, last.ErrMsg)
	require.Contains(t, msgs, OutputMsg{Line: "hello"})
	require.Contains(t, msgs, OutputMsg{Line: "oops", IsErr: true})
}

func TestStreamReportsExitFailure(t *testing.T) {
	path := writeScript(t, "exit 3\n")
	ch := make(chan OutputMsg)
	go Stream(path, ch)

	msgs := collect(ch)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].Done)
	require.NotEmpty(t, msgs[0].ErrMsg)
}

func TestStreamMissingProgram(t *testing.T) {
	ch := make(chan OutputMsg)
	go Stream(filepath.Join(t.TempDir(), "missing"), ch)

	msgs := collect(ch)
	require.Len(t, msgs, 1)
	require.NotEmpty(t, msgs[0].ErrMsg)
}

type recordingNotifier struct{ messages []string }

func (n *recordingNotifier) Notify(_, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestDispatchRoutesByType(t *testing.T) {
	var launched, pressed []string
	quit := 0
	notes := &recordingNotifier{}

	d := NewDispatcher(nil)
	d.Launch = func(path string) error { launched = append(launched, path); return nil }
	d.Keyboard = func(action string) error { pressed = append(pressed, action); return nil }
	d.System["quit"] = func() error { quit++; return nil }
	d.Notifier = notes

	require.NoError(t, d.Dispatch(model.Command{Phrase: "editor", Type: model.TypeApp, Action: "/usr/bin/vim"}))
	require.NoError(t, d.Dispatch(model.Command{Phrase: "mute", Type: model.TypeKeyboard, Action: "mute"}))
	require.NoError(t, d.Dispatch(model.Command{Phrase: "quit application", Type: model.TypeSystem, Action: "quit"}))

	require.Equal(t, []string{"/usr/bin/vim"}, launched)
	require.Equal(t, []string{"mute"}, pressed)
	require.Equal(t, 1, quit)
	require.Equal(t, []string{"editor", "mute", "quit application"}, notes.messages)
}

func TestDispatchErrors(t *testing.T) {
	d := NewDispatcher(nil)

	err := d.Dispatch(model.Command{Type: model.TypeKeyboard, Action: "space"})
	require.ErrorIs(t, err, ErrNoHandler)

	err = d.Dispatch(model.Command{Type: model.TypeSystem, Action: "reboot"})
	require.ErrorIs(t, err, ErrNoHandler)

	err = d.Dispatch(model.Command{Type: "mouse", Action: "click"})
	require.ErrorIs(t, err, ErrUnsupportedType)

	boom := errors.New("boom")
	d.Launch = func(string) error { return boom }
	err = d.Dispatch(model.Command{Type: model.TypeApp, Action: "/bin/x"})
	require.ErrorIs(t, err, boom)
}

func TestStartLaunchesProgram(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	path := writeScript(t, "touch "+marker+"\n")

	require.NoError(t, Start(path))
	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}
