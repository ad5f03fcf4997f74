// Package syncbus delivers invalidate-and-reload consistency across
// concurrently open instances of the same project. Instances share nothing
// in memory; the broadcast channel is a journal file beside the database,
// watched through the OS file notification API.
package syncbus

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Event is one broadcast commit notification.
type Event struct {
	Action    string `json:"action"`
	Instance  string `json:"instance"`
	Timestamp int64  `json:"timestamp"`
}

// Broker publishes commit events and invokes the registered handler when a
// sibling instance publishes. A disabled broker is inert: Publish is a
// no-op and no watcher runs, leaving each instance an independent replica.
type Broker struct {
	enabled  bool
	dir      string
	journal  string
	instance string
	watcher  *fsnotify.Watcher
	log      *slog.Logger
	done     chan struct{}
	wg       sync.WaitGroup

	mu        sync.Mutex
	handler   func(Event)
	watermark []byte
}

// New creates a broker around the journal file at the given path. When
// enabled is false the broker starts inert.
func New(journal string, enabled bool) (*Broker, error) {
	b := &Broker{
		enabled:  enabled,
		dir:      filepath.Dir(journal),
		journal:  journal,
		instance: uuid.NewString(),
		log:      slog.With("component", "syncbus"),
		done:     make(chan struct{}),
	}
	if !enabled {
		return b, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: the journal is replaced by rename
	// and a file watch would be lost on the first publish.
	if err := watcher.Add(b.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	b.watcher = watcher

	b.wg.Add(1)
	go b.watch()
	return b, nil
}

// Enabled reports whether the broker participates in synchronization.
func (b *Broker) Enabled() bool {
	return b != nil && b.enabled
}

// SetHandler registers the single reload callback. Registering replaces any
// prior handler.
func (b *Broker) SetHandler(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = fn
}

// Publish broadcasts a commit notification to sibling instances. The
// serialized event is retained as the re-entrancy watermark so this
// instance's own journal write is never mistaken for a sibling's.
func (b *Broker) Publish(action string) error {
	if !b.Enabled() {
		return nil
	}

	event := Event{
		Action:    action,
		Instance:  b.instance,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.watermark = data
	b.mu.Unlock()

	tmp, err := os.CreateTemp(b.dir, ".journal-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, b.journal); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Close stops the watcher. Safe on a disabled broker.
func (b *Broker) Close() error {
	if b == nil || b.watcher == nil {
		return nil
	}
	close(b.done)
	err := b.watcher.Close()
	b.wg.Wait()
	return err
}

func (b *Broker) watch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(b.journal) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			b.dispatch()
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.log.Warn("sync watcher error", "error", err)
		}
	}
}

func (b *Broker) dispatch() {
	data, err := os.ReadFile(b.journal)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.log.Warn("read sync journal", "error", err)
		}
		return
	}

	b.mu.Lock()
	own := b.watermark != nil && bytes.Equal(data, b.watermark)
	handler := b.handler
	b.mu.Unlock()

	// Own write echoed back by the watcher; reloading here would re-trigger
	// a broadcast and loop.
	if own {
		return
	}
	if handler == nil {
		return
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		b.log.Warn("malformed sync journal entry", "error", err)
		return
	}
	if event.Instance == b.instance {
		return
	}
	handler(event)
}
