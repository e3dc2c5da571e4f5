package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-wesgr/internal/util"
)

// FileEvent is a change notification for the watched file
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports writes to a single file. It watches the parent
// directory so that editors replacing the file by rename are seen too.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan FileEvent
}

// NewFileWatcher starts watching path. The file itself need not exist yet.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan FileEvent, 16),
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Consumers debounce, so a full buffer loses nothing
			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events returns the channel of changes to the watched file. It is closed
// once the watcher stops.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Close stops watching and releases the underlying fsnotify watcher
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
