package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"minuta/internal/models"
	"minuta/internal/store"
)

// Autosaver persists session continuity state. Non-immediate saves are
// deferred to an idle delay on a background goroutine so the interactive
// path never blocks on storage I/O; only the latest deferred state survives.
type Autosaver struct {
	slot  *Slot
	store *store.Store
	idle  time.Duration
	warn  func(error)
	log   *slog.Logger

	mu      sync.Mutex
	pending *models.ProjectState
	timer   *time.Timer
	closed  bool
}

// NewAutosaver wires the slot and durable store. warn receives user-facing
// persistence warnings (quota exhaustion); nil is allowed.
func NewAutosaver(slot *Slot, st *store.Store, idle time.Duration, warn func(error)) *Autosaver {
	if warn == nil {
		warn = func(error) {}
	}
	return &Autosaver{
		slot:  slot,
		store: st,
		idle:  idle,
		warn:  warn,
		log:   slog.With("component", "autosave"),
	}
}

// Save persists state. With immediate=true the write happens now; otherwise
// it is deferred to the next idle window and this call returns instantly.
func (a *Autosaver) Save(ctx context.Context, state *models.ProjectState, immediate bool) error {
	if immediate {
		return a.save(ctx, state)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.pending = state
	if a.timer == nil {
		a.timer = time.AfterFunc(a.idle, a.flushPending)
	} else {
		a.timer.Reset(a.idle)
	}
	return nil
}

// Flush writes any deferred state now.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	state := a.pending
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	if state == nil {
		return nil
	}
	return a.save(ctx, state)
}

// Close flushes deferred state and stops the idle timer.
func (a *Autosaver) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(context.Background())
}

// HasSaved reports whether a previous session exists.
func (a *Autosaver) HasSaved() bool {
	return a.slot.Exists()
}

// Clear removes the session document and purges every durable domain of the
// current project. Domain purges proceed independently of each other.
func (a *Autosaver) Clear(ctx context.Context) error {
	a.mu.Lock()
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	if err := a.slot.Remove(); err != nil {
		return err
	}
	a.store.PurgeAll(ctx)
	return nil
}

func (a *Autosaver) flushPending() {
	a.mu.Lock()
	state := a.pending
	a.pending = nil
	a.mu.Unlock()

	if state == nil {
		return
	}
	if err := a.save(context.Background(), state); err != nil {
		a.log.Warn("deferred autosave failed", "error", err)
	}
}

func (a *Autosaver) save(ctx context.Context, state *models.ProjectState) error {
	if state == nil {
		return nil
	}

	doc, err := a.buildDocument(ctx, state)
	if err != nil {
		return err
	}

	if err := a.slot.Write(doc); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			// Abandon the write; no partial persistence.
			a.warn(err)
		}
		return err
	}
	return nil
}

// buildDocument projects state into the reference-based session shape. Every
// large body is persisted into the durable store first; the document embeds
// only ids.
func (a *Autosaver) buildDocument(ctx context.Context, state *models.ProjectState) (*models.SessionDocument, error) {
	doc := &models.SessionDocument{
		Version:        models.SessionDocumentVersion,
		SavedAt:        time.Now().UTC(),
		Case:           state.Case,
		Topics:         state.Topics,
		ProcessingMode: state.ProcessingMode,
		DraftFields:    state.DraftFields,
	}

	for i := range state.Texts {
		text := &state.Texts[i]
		if text.ID == "" {
			text.ID = uuid.NewString()
		}
		if err := a.store.PutTextBlob(ctx, text); err != nil {
			return nil, err
		}
		doc.TextRefs = append(doc.TextRefs, models.TextRef{
			Category: text.Category,
			ID:       text.ID,
			Name:     text.Name,
		})
	}

	for i := range state.Files {
		file := &state.Files[i]
		if err := a.store.PutBlob(ctx, file); err != nil {
			return nil, err
		}
		doc.BlobIDs = append(doc.BlobIDs, file.ID)
	}

	return doc, nil
}
