package catalog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/cachebox/internal/log"
)

// Watcher monitors a catalog manifest for changes and sends debounced
// notifications so stale resident assets can be flushed.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	manifestPath string
	debounce     time.Duration
	onChange     chan struct{}
	done         chan struct{}
}

// WatcherConfig holds watcher configuration options.
type WatcherConfig struct {
	ManifestPath string
	DebounceDur  time.Duration
}

// DefaultWatcherConfig returns sensible defaults for the watcher.
func DefaultWatcherConfig(manifestPath string) WatcherConfig {
	return WatcherConfig{
		ManifestPath: manifestPath,
		DebounceDur:  1 * time.Second,
	}
}

// NewWatcher creates a new manifest watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:    fsw,
		manifestPath: cfg.ManifestPath,
		debounce:     cfg.DebounceDur,
		onChange:     make(chan struct{}, 1),
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching the manifest directory.
// Returns a channel that receives a signal when the manifest changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	// Watch the directory containing the manifest; editors replace the
	// file rather than writing it in place.
	dir := filepath.Dir(w.manifestPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()
	return w.onChange, nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	base := filepath.Base(w.manifestPath)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug(log.CatCatalog, "Manifest event", "op", event.Op.String(), "file", event.Name)

			// Debounce bursts of writes into a single notification
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case w.onChange <- struct{}{}:
				default:
					// Signal already pending
				}
			})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatCatalog, "Watcher error", err)
		}
	}
}
