package spdxer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// WatchMode re-verifies header coverage whenever files under a tree change.
// Events are debounced so editor write bursts trigger a single pass.
type WatchMode struct {
	processor *Processor
	root      string
	logger    *slog.Logger
	fs        afero.Fs

	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	formatter    Formatter

	mu             sync.Mutex
	pendingChanges map[string]time.Time
	debounceTimer  *time.Timer

	stats WatchStats
}

// WatchStats holds statistics about watch mode operation
type WatchStats struct {
	mu            sync.Mutex
	totalPasses   int
	filesVerified int
	lastPassTime  time.Time
}

// WatchConfig holds configuration for watch mode
type WatchConfig struct {
	Root         string
	Processor    *Processor
	Logger       *slog.Logger
	FS           afero.Fs
	DebounceTime time.Duration
	Formatter    Formatter
}

// NewWatchMode creates a new WatchMode instance
func NewWatchMode(cfg WatchConfig) (*WatchMode, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.DebounceTime == 0 {
		cfg.DebounceTime = 100 * time.Millisecond
	}
	if cfg.Formatter == nil {
		cfg.Formatter = NewTextFormatter()
	}
	if cfg.Processor == nil {
		return nil, NewConfigError("watch mode requires a processor", nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewFSError("failed to create file watcher", err)
	}

	return &WatchMode{
		processor:      cfg.Processor,
		root:           cfg.Root,
		logger:         cfg.Logger,
		fs:             cfg.FS,
		watcher:        watcher,
		debounceTime:   cfg.DebounceTime,
		formatter:      cfg.Formatter,
		pendingChanges: make(map[string]time.Time),
	}, nil
}

// Start runs an initial verification pass and then blocks, re-verifying on
// every debounced change, until the context is canceled.
func (w *WatchMode) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addWatchDirs(); err != nil {
		return err
	}

	w.runPass()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// addWatchDirs registers the root and every subdirectory with the watcher.
// fsnotify watches directories, not trees.
func (w *WatchMode) addWatchDirs() error {
	return afero.Walk(w.fs, w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return NewFSError("error accessing path", err).WithFile(path)
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return NewFSError("failed to watch directory", err).WithFile(path)
		}
		return nil
	})
}

func (w *WatchMode) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.processor.cfg.matchesExtension(filepath.Base(event.Name)) {
		// New directories still need a watch registration
		if event.Op&fsnotify.Create != 0 {
			if info, err := w.fs.Stat(event.Name); err == nil && info.IsDir() {
				_ = w.watcher.Add(event.Name)
			}
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pendingChanges[event.Name] = time.Now()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, w.flushPending)
}

func (w *WatchMode) flushPending() {
	w.mu.Lock()
	changed := len(w.pendingChanges)
	w.pendingChanges = make(map[string]time.Time)
	w.mu.Unlock()

	if changed == 0 {
		return
	}
	w.logger.Info("changes detected, re-verifying", "changed_files", changed)
	w.runPass()
}

func (w *WatchMode) runPass() {
	report, err := w.processor.Verify(w.root)
	if err != nil {
		w.logger.Error("verification pass failed", "error", err)
		return
	}

	w.stats.mu.Lock()
	w.stats.totalPasses++
	w.stats.filesVerified += len(report.Results)
	w.stats.lastPassTime = time.Now()
	w.stats.mu.Unlock()

	out, err := w.formatter.Format(report)
	if err != nil {
		w.logger.Error("failed to format report", "error", err)
		return
	}
	fmt.Print(string(out))
}

// Stats returns a snapshot of the watch statistics.
func (w *WatchMode) Stats() (passes, filesVerified int, last time.Time) {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()
	return w.stats.totalPasses, w.stats.filesVerified, w.stats.lastPassTime
}
