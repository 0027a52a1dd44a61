package observer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// InputExtensions are the file types that trigger a replan
var InputExtensions = []string{".csv", ".yaml", ".yml"}

// ChangeCallback is called with the input files changed since the last call
type ChangeCallback func(changedFiles []string)

// InputWatcher monitors input directories for table and scenario changes
type InputWatcher struct {
	watcher  *fsnotify.Watcher
	callback ChangeCallback
	debounce time.Duration

	dirs    map[string]struct{}
	ignored map[string]struct{}

	// Debounce state
	pending map[string]struct{}
	timer   *time.Timer
	mu      sync.Mutex

	cancel context.CancelFunc
}

// NewInputWatcher creates a new watcher for scheduler input files
func NewInputWatcher(callback ChangeCallback) (*InputWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &InputWatcher{
		watcher:  watcher,
		callback: callback,
		debounce: 500 * time.Millisecond,
		dirs:     make(map[string]struct{}),
		ignored:  make(map[string]struct{}),
		pending:  make(map[string]struct{}),
	}, nil
}

// AddDir starts watching dir. Editors that replace files on save emit
// create events on the directory, so the directory is watched rather than
// the files themselves.
func (iw *InputWatcher) AddDir(dir string) error {
	dir = filepath.Clean(dir)

	iw.mu.Lock()
	defer iw.mu.Unlock()

	if _, exists := iw.dirs[dir]; exists {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	if err := iw.watcher.Add(dir); err != nil {
		return err
	}

	iw.dirs[dir] = struct{}{}
	return nil
}

// Ignore excludes path from change detection, typically the schedule written
// into a watched directory.
func (iw *InputWatcher) Ignore(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	iw.mu.Lock()
	defer iw.mu.Unlock()
	iw.ignored[abs] = struct{}{}
	return nil
}

// Start begins watching for file changes
func (iw *InputWatcher) Start(ctx context.Context) {
	ctx, iw.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-iw.watcher.Events:
				if !ok {
					return
				}
				iw.handleEvent(event)
			case err, ok := <-iw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("input watcher: %v", err)
			}
		}
	}()
}

// Stop stops watching for file changes
func (iw *InputWatcher) Stop() {
	if iw.cancel != nil {
		iw.cancel()
	}
	iw.mu.Lock()
	if iw.timer != nil {
		iw.timer.Stop()
	}
	iw.mu.Unlock()
	iw.watcher.Close()
}

// IsInputFile reports whether path has one of the InputExtensions
func IsInputFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (iw *InputWatcher) handleEvent(event fsnotify.Event) {
	if !IsInputFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	iw.mu.Lock()
	defer iw.mu.Unlock()

	if abs, err := filepath.Abs(event.Name); err == nil {
		if _, skip := iw.ignored[abs]; skip {
			return
		}
	}

	iw.pending[event.Name] = struct{}{}

	// Reset or start debounce timer
	if iw.timer != nil {
		iw.timer.Stop()
	}
	iw.timer = time.AfterFunc(iw.debounce, iw.flush)
}

func (iw *InputWatcher) flush() {
	iw.mu.Lock()
	pending := iw.pending
	iw.pending = make(map[string]struct{})
	iw.mu.Unlock()

	if iw.callback == nil || len(pending) == 0 {
		return
	}

	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	sort.Strings(files)
	iw.callback(files)
}

// SetDebounce sets the debounce duration for batching file changes
func (iw *InputWatcher) SetDebounce(d time.Duration) {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	iw.debounce = d
}
