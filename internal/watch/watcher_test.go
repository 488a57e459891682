package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startWatcher(t *testing.T, root string) (*Watcher, <-chan error) {
	t.Helper()
	w, err := New(root, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() { errc <- w.Run(context.Background()) }()
	return w, errc
}

func waitChange(t *testing.T, w *Watcher, want string) Change {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-w.Changes():
			for _, p := range c.Paths {
				if p == want {
					return c
				}
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", want)
			return Change{}
		}
	}
}

func TestWatcherReportsNewFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, errc := startWatcher(t, root)

	path := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	c := waitChange(t, w, path)
	assert.False(t, c.At.IsZero())

	require.NoError(t, w.Close())
	require.NoError(t, <-errc)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, errc := startWatcher(t, root)

	dir := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(dir, 0o755))
	waitChange(t, w, dir)

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
	waitChange(t, w, path)

	require.NoError(t, w.Close())
	require.NoError(t, <-errc)
}

func TestWatcherIgnoresHiddenPaths(t *testing.T) {
	w := &Watcher{root: "/proj"}
	assert.True(t, w.ignored("/proj/.git/index"))
	assert.True(t, w.ignored("/proj/src/.cache"))
	assert.False(t, w.ignored("/proj/src/main.go"))
}

func TestNewRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := New(path)
	assert.Error(t, err)
}

func TestRunTwiceFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, errc := startWatcher(t, t.TempDir())
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.running
	}, time.Second, 5*time.Millisecond)
	assert.Error(t, w.Run(context.Background()))
	require.NoError(t, w.Close())
	require.NoError(t, <-errc)
}
