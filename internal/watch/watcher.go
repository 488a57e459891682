package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts such as an editor's save sequence.
const DefaultDebounce = 150 * time.Millisecond

// Change is one coalesced batch of file-tree events.
type Change struct {
	Paths []string
	At    time.Time
}

// Watcher reports changes under a project root. It never touches UI state:
// consumers read Changes and decide what to refresh.
type Watcher struct {
	root      string
	debounce  time.Duration
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher

	changes chan Change

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New watches root and every non-hidden directory below it.
func New(root string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:      filepath.Clean(root),
		debounce:  DefaultDebounce,
		logger:    zap.NewNop(),
		fsWatcher: fsWatcher,
		changes:   make(chan Change, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(w.root); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Changes delivers at most one pending Change; later events merge into the
// next one.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	pending := map[string]struct{}{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory failed", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.publish(pending)
			pending = map[string]struct{}{}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func (w *Watcher) publish(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	// Merge with an undelivered change so nothing is lost.
	select {
	case prev := <-w.changes:
		for _, p := range prev.Paths {
			if _, ok := pending[p]; !ok {
				paths = append(paths, p)
			}
		}
	default:
	}
	sort.Strings(paths)
	w.changes <- Change{Paths: paths, At: time.Now()}
	w.logger.Debug("file tree changed", zap.Int("paths", len(paths)))
}

// Close stops Run and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.fsWatcher.Close()
}
