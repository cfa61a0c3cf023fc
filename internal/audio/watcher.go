package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// watchedCue is a local cue file and the name it is cached under.
type watchedCue struct {
	name   string
	source string
}

// CueWatcher watches local cue files and reloads them into the engine when
// they change on disk. A cue that is the playing foreground voice is restarted
// with the new audio.
type CueWatcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	engine  *Engine
	watcher *fsnotify.Watcher

	// Absolute file path -> cue
	cues map[string]watchedCue
	dirs map[string]bool

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewCueWatcher creates a watcher that reloads cues into engine.
func NewCueWatcher(engine *Engine, logger *slog.Logger) (*CueWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &CueWatcher{
		logger:  logger,
		engine:  engine,
		watcher: watcher,
		cues:    make(map[string]watchedCue),
		dirs:    make(map[string]bool),
	}, nil
}

// Watch starts watching the file behind source. Remote and builtin sources are ignored.
func (w *CueWatcher) Watch(name, source string) error {
	path := LocalPath(source)
	if path == "" {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.cues[abs] = watchedCue{name: name, source: source}

	// Watch the directory containing the file (more reliable for writes)
	dir := filepath.Dir(abs)
	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		delete(w.cues, abs)
		return err
	}
	w.dirs[dir] = true
	return nil
}

// Start begins processing file events until ctx is done or Stop is called.
func (w *CueWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	w.mu.Unlock()

	go w.watch(ctx)
	w.logger.Debug("cue watcher started")
}

func (w *CueWatcher) watch(ctx context.Context) {
	defer close(w.stopped)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			w.mu.Lock()
			cue, ok := w.cues[abs]
			w.mu.Unlock()
			if !ok {
				continue
			}

			w.reload(ctx, cue)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("cue watcher error", "error", err)

		case <-w.done:
			return

		case <-ctx.Done():
			return
		}
	}
}

// reload drops the cached buffer and loads the file again.
func (w *CueWatcher) reload(ctx context.Context, cue watchedCue) {
	w.logger.Debug("cue file changed, reloading", "cue", cue.name, "source", cue.source)

	w.engine.Invalidate(cue.name)
	<-w.engine.Load(ctx, cue.name, cue.source)

	if current, ok := w.engine.CurrentCue(); ok && current == cue.name && w.engine.IsPlaying() {
		w.engine.Play(cue.name)
	}
}

// Stop stops watching and releases the underlying watcher.
func (w *CueWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.stopped
	w.logger.Debug("cue watcher stopped")
	return err
}
