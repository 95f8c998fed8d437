package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the descriptor directory watcher.
type WatcherConfig struct {
	// Dir is the descriptor directory to watch.
	Dir string

	// PollInterval is how often to check for file changes.
	// Defaults to 5 seconds if zero.
	PollInterval time.Duration

	// RescanSchedule is an optional cron expression (standard 5-field
	// syntax) that triggers an unconditional rescan, independent of
	// modification-time polling. Empty disables scheduled rescans.
	RescanSchedule string
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// EventType describes the type of change event.
type EventType string

// Event types.
const (
	// EventModified indicates a descriptor file changed on disk.
	EventModified EventType = "modified"

	// EventScheduled indicates a cron-scheduled rescan fired.
	EventScheduled EventType = "scheduled"
)

// Event is a change notification. The consumer is expected to call
// Store.Reload in response.
type Event struct {
	Type EventType
	Dir  string
}

// Watcher polls a descriptor directory for modifications and optionally
// fires cron-scheduled rescans. Events are delivered on a buffered channel;
// bursts collapse into a single pending event.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}
	sched   *cron.Cron

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a new directory watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling. Safe to call multiple times; only the first call
// starts the goroutine. Returns an error if the rescan schedule does not
// parse.
func (w *Watcher) Start(ctx context.Context) error {
	var schedErr error
	w.startOnce.Do(func() {
		if w.cfg.RescanSchedule != "" {
			w.sched = cron.New()
			_, schedErr = w.sched.AddFunc(w.cfg.RescanSchedule, func() {
				w.emit(Event{Type: EventScheduled, Dir: w.cfg.Dir})
			})
			if schedErr != nil {
				return
			}
			w.sched.Start()
		}
		w.started.Store(true)
		go w.poll(ctx)
	})
	return schedErr
}

// Events returns the channel of change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher and the cron scheduler. Safe to call multiple
// times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.sched != nil {
			w.sched.Stop()
		}
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) emit(evt Event) {
	select {
	case w.events <- evt:
	default:
		// Drop event if channel is full (debounce).
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	lastMod := w.latestModTime()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.latestModTime()
			if current.IsZero() {
				continue
			}
			if current.After(lastMod) {
				lastMod = current
				w.emit(Event{Type: EventModified, Dir: w.cfg.Dir})
			}
		}
	}
}

// latestModTime returns the newest modification time across the directory
// and its descriptor files. Zero when the directory is unreadable.
func (w *Watcher) latestModTime() time.Time {
	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return time.Time{}
	}
	latest := info.ModTime()

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return latest
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	return latest
}
