package processfile

import (
	"path/filepath"
	"sync"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"github.com/fsnotify/fsnotify"
)

// RemovalWatcher signals when a unit's pidfile is removed or renamed away
type RemovalWatcher struct {
	watcher *fsnotify.Watcher
	removed chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchPIDFileRemoval watches the state directory for removal of processID's pidfile.
// It fails if the state directory does not exist.
func (m *ProcessFileManager) WatchPIDFileRemoval(processID string) (*RemovalWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewInternalError("failed to create file watcher", err)
	}

	dir := m.StateDirectory()
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.NewIOError("failed to watch state directory", err).WithContext("directory", dir)
	}

	rw := &RemovalWatcher{
		watcher: watcher,
		removed: make(chan struct{}),
		done:    make(chan struct{}),
	}

	target := filepath.Base(m.GeneratePIDFilePath(processID))
	go rw.loop(target)

	return rw, nil
}

// Removed is closed once the pidfile has gone
func (rw *RemovalWatcher) Removed() <-chan struct{} {
	return rw.removed
}

func (rw *RemovalWatcher) Close() error {
	var err error
	rw.once.Do(func() {
		close(rw.done)
		err = rw.watcher.Close()
	})
	return err
}

func (rw *RemovalWatcher) loop(target string) {
	for {
		select {
		case <-rw.done:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				close(rw.removed)
				return
			}
		case _, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
