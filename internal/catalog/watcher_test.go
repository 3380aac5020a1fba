package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherSignalsManifestWrite(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "assets.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("assets: []\n"), 0o600))

	w, err := NewWatcher(WatcherConfig{ManifestPath: manifest, DebounceDur: 20 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(manifest, []byte("assets: []\n# edited\n"), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "assets.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("assets: []\n"), 0o600))

	w, err := NewWatcher(WatcherConfig{ManifestPath: manifest, DebounceDur: 20 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	select {
	case <-changes:
		t.Fatal("unrelated file should not signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "assets.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("assets: []\n"), 0o600))

	w, err := NewWatcher(WatcherConfig{ManifestPath: manifest, DebounceDur: 100 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(manifest, []byte("assets: []\n"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	// The burst collapses into a single pending signal.
	select {
	case <-changes:
		t.Fatal("burst should debounce into one notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDefaultWatcherConfig(t *testing.T) {
	cfg := DefaultWatcherConfig("assets.yaml")
	require.Equal(t, "assets.yaml", cfg.ManifestPath)
	require.Equal(t, time.Second, cfg.DebounceDur)
}
