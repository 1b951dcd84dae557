// Package dropwatch submits images dropped into a folder.
package dropwatch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether name has an image extension the backend decodes.
func IsImage(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return imageExts[strings.ToLower(filepath.Ext(base))]
}

// Watcher reports image files that appear in one directory.
type Watcher struct {
	dir        string
	delay      time.Duration
	fsWatcher  *fsnotify.Watcher
	eventsChan chan string
	done       chan struct{}
	stopOnce   sync.Once
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher for dir. The directory is created if missing.
func New(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop dir: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:        dir,
		delay:      DefaultDebounce,
		fsWatcher:  fsWatcher,
		eventsChan: make(chan string, 100),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events yields the paths of settled image files.
func (w *Watcher) Events() <-chan string {
	return w.eventsChan
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go w.processEvents()
	log.Printf("[dropwatch] watching %s", w.dir)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for p, t := range w.debounce {
			t.Stop()
			delete(w.debounce, p)
		}
		w.debounceMu.Unlock()
	})
}

// Run submits every dropped image until ctx ends.
func (w *Watcher) Run(ctx context.Context, submit func(ctx context.Context, path string) error) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-w.eventsChan:
			if err := submit(ctx, path); err != nil {
				log.Printf("[dropwatch] submit %s: %v", filepath.Base(path), err)
			}
		}
	}
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[dropwatch] watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename covers tools that write a temp file and move it into place.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !IsImage(event.Name) {
		return
	}
	w.debounceEvent(event.Name, func() {
		w.settled(event.Name)
	})
}

func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) settled(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		// Renamed away, or still empty.
		return
	}
	select {
	case w.eventsChan <- path:
	case <-w.done:
	}
}
