// Package watch converts images as they appear in a directory, writing the
// quadrant text next to each one.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/image-text-mcp/internal/config"
	"github.com/ironsheep/image-text-mcp/internal/convert"
)

// Event reports the outcome of converting one file.
type Event struct {
	Path   string // image that changed
	Output string // text file written, empty on error
	Err    error
}

// Watcher monitors one directory for image files.
type Watcher struct {
	dir     string
	cfg     config.WatchConfig
	conv    *convert.Converter
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	events  chan Event

	mu       sync.Mutex
	timers   map[string]*time.Timer
	started  bool
	stopped  bool
	pending  sync.WaitGroup
	loopDone chan struct{}
	quit     chan struct{}
}

// New creates a watcher for dir. Nothing is watched until Start.
func New(dir string, cfg config.WatchConfig, conv *convert.Converter, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		cfg:      cfg,
		conv:     conv,
		logger:   logger.With("dir", dir),
		watcher:  fsWatcher,
		events:   make(chan Event, 100),
		timers:   make(map[string]*time.Timer),
		loopDone: make(chan struct{}),
		quit:     make(chan struct{}),
	}, nil
}

// Start begins monitoring the directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	w.logger.Info("watching folder")

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents()
	return nil
}

// Events returns the channel conversion results are delivered on. It is
// closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops watching, waits for conversions in flight and closes Events.
// Results of conversions still running when nobody is reading are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for name, timer := range w.timers {
		if timer.Stop() {
			w.pending.Done()
		}
		delete(w.timers, name)
	}
	close(w.quit)
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.loopDone
	}
	w.pending.Wait()
	close(w.events)
	return err
}

// Accepts reports whether name is an image file the watcher converts.
func (w *Watcher) Accepts(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, w.cfg.OutputSuffix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range w.cfg.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// OutputPath returns where the text for the image at path is written.
func (w *Watcher) OutputPath(path string) string {
	return path + w.cfg.OutputSuffix
}

func (w *Watcher) processEvents() {
	defer close(w.loopDone)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.Accepts(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// schedule converts path once it has been quiet for the debounce interval.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, exists := w.timers[path]; exists && timer.Stop() {
		timer.Reset(w.cfg.Debounce)
		return
	}

	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.pending.Done()

		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		ev := w.convert(path)
		select {
		case w.events <- ev:
		case <-w.quit:
		}
	})
	w.timers[path] = timer
}

func (w *Watcher) convert(path string) Event {
	logger := w.logger.With("file", path)

	res, err := w.conv.ConvertFile(path)
	if err != nil {
		logger.Error("could not convert image", "error", err)
		return Event{Path: path, Err: err}
	}

	out := w.OutputPath(path)
	if err := convert.WriteText(out, res.Text); err != nil {
		logger.Error("could not write text", "error", err)
		return Event{Path: path, Err: err}
	}

	logger.Info("wrote text", "output", out)
	return Event{Path: path, Output: out}
}
