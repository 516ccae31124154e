// Package watcher reports changes to the models directory so the UI can
// refresh its model list.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"eigend/internal/common/fsutil"
	"eigend/internal/events"
)

const defaultInterval = time.Second

// Config configures a Watcher.
type Config struct {
	// Dir is the models directory. Its direct subdirectories are watched too.
	Dir       string
	Publisher events.Publisher
	Logger    *zerolog.Logger
	// Interval is the minimum spacing between models:changed events.
	Interval time.Duration
}

// Watcher emits models:changed when files under the models directory are
// created, written, renamed or removed. Bursts collapse into at most one
// event per interval, with a trailing event after the burst.
type Watcher struct {
	dir string
	pub events.Publisher
	log zerolog.Logger

	limiter *rate.Limiter
	mu      sync.Mutex
	pending bool
	timer   *time.Timer
}

// New constructs a Watcher. Call Run to start watching.
func New(cfg Config) *Watcher {
	w := &Watcher{
		dir: cfg.Dir,
		pub: events.Safe(cfg.Publisher),
		log: zerolog.Nop(),
	}
	if cfg.Logger != nil {
		w.log = cfg.Logger.With().Str("component", "watcher").Logger()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	w.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return w
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := fsutil.EnsureDir(w.dir); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	defer w.stopTimer()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			w.add(fw, filepath.Join(w.dir, e.Name()))
		}
	}
	w.log.Info().Str("event", "watch_start").Str("dir", w.dir).Msg("watching models directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == filepath.Clean(w.dir) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.add(fw, ev.Name)
				}
			}
			w.notify()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn().Str("event", "watch_error").Err(err).Msg("fsnotify")
			}
			w.notify()
		}
	}
}

func (w *Watcher) add(fw *fsnotify.Watcher, dir string) {
	if err := fw.Add(dir); err != nil {
		w.log.Debug().Str("event", "watch_add_failed").Str("dir", dir).Err(err).Msg("fsnotify add")
	}
}

// notify emits now when the limiter allows, otherwise schedules one
// trailing emission.
func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending {
		return
	}
	if w.limiter.Allow() {
		w.emit()
		return
	}
	w.pending = true
	delay := w.limiter.Reserve().Delay()
	w.timer = time.AfterFunc(delay, func() {
		w.mu.Lock()
		w.pending = false
		w.timer = nil
		w.mu.Unlock()
		w.emit()
	})
}

func (w *Watcher) emit() {
	w.pub.Publish(events.Event{Name: events.ModelsChanged, Payload: struct{}{}})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
		w.pending = false
	}
}
