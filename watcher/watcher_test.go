package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func runWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestRunFailsForMissingFolder(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), 0, func() {}, nil)
	require.Error(t, w.Run(context.Background()))
}

func TestFileCreationTriggersScan(t *testing.T) {
	dir := t.TempDir()
	var passes atomic.Int32
	w := New(dir, 10*time.Millisecond, func() { passes.Add(1) }, nil)
	stop := runWatcher(t, w)
	defer stop()

	// keep touching the file until the watch is registered
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "app.exe"), nil, 0o644)
		return passes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestBurstsCoalesceBehindRunningPass(t *testing.T) {
	dir := t.TempDir()
	var passes atomic.Int32
	started := make(chan struct{}, 16)
	release := make(chan struct{})
	w := New(dir, 0, func() {
		passes.Add(1)
		started <- struct{}{}
		<-release
	}, nil)
	stop := runWatcher(t, w)

	w.Trigger()
	<-started
	for i := 0; i < 10; i++ {
		w.Trigger()
	}
	release <- struct{}{}
	<-started
	release <- struct{}{}

	require.Never(t, func() bool { return passes.Load() > 2 }, 200*time.Millisecond, 10*time.Millisecond)
	close(release)
	stop()
	require.Equal(t, int32(2), passes.Load())
}

func TestDebounceCollapsesTriggers(t *testing.T) {
	dir := t.TempDir()
	var passes atomic.Int32
	w := New(dir, 100*time.Millisecond, func() { passes.Add(1) }, nil)
	stop := runWatcher(t, w)
	defer stop()

	for i := 0; i < 5; i++ {
		w.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return passes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Never(t, func() bool { return passes.Load() > 1 }, 300*time.Millisecond, 20*time.Millisecond)
}
