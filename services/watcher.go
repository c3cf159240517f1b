package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"hera/logger"
	"hera/types"
	"hera/websocket"
)

// watchDebounce is the quiet period between a filesystem event and the
// rescan it triggers. Capture clients write several files per recording in
// quick succession.
const watchDebounce = 500 * time.Millisecond

// LibraryWatcher rescans the library when recording folders change on disk
// and tells connected clients to refetch. Purely an accelerator: every read
// path reconciles on demand anyway.
type LibraryWatcher struct {
	library LibraryService
	hub     websocket.Hub
	watcher *fsnotify.Watcher
}

// NewLibraryWatcher creates a watcher over the library root.
func NewLibraryWatcher(library LibraryService, hub websocket.Hub) (*LibraryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	return &LibraryWatcher{library: library, hub: hub, watcher: w}, nil
}

// Run watches until the context is cancelled. Failures degrade to
// on-demand scanning rather than stopping the server.
func (lw *LibraryWatcher) Run(ctx context.Context) {
	defer lw.watcher.Close()

	root := lw.library.Root()
	if err := os.MkdirAll(root, 0755); err != nil {
		logger.Warn("creating library root failed",
			logger.String("root", root), logger.ErrorField(err))
		return
	}
	if err := lw.watcher.Add(root); err != nil {
		logger.Warn("watching library root failed, relying on on-demand scans",
			logger.String("root", root), logger.ErrorField(err))
		return
	}
	lw.watchRecordingDirs(root)

	logger.Info("watching library for changes", logger.String("root", root))

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			// Watch new recording folders as they appear so sidecar
			// changes inside them are seen too.
			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == root {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := lw.watcher.Add(event.Name); err != nil {
						logger.Debug("watching new folder failed",
							logger.String("path", event.Name), logger.ErrorField(err))
					}
				}
			}

			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			lw.rescan(ctx)

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem watcher error", logger.ErrorField(err))
		}
	}
}

func (lw *LibraryWatcher) watchRecordingDirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Warn("listing library root failed", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := lw.watcher.Add(filepath.Join(root, entry.Name())); err != nil {
			logger.Debug("watching folder failed",
				logger.String("name", entry.Name()), logger.ErrorField(err))
		}
	}
}

func (lw *LibraryWatcher) rescan(ctx context.Context) {
	_, changed := lw.library.Reconcile(ctx)
	if !changed {
		return
	}

	logger.Info("library changed on disk")
	lw.hub.Broadcast(types.JobEvent{
		JobID:   types.LibraryChannel,
		Type:    "library",
		Message: "library updated",
	})
}
