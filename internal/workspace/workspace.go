// Package workspace owns one running instance of the drafting engine: the
// durable store, the session tier, the snapshot codec, and the sync broker,
// wired together around the in-memory project state.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"minuta/internal/config"
	"minuta/internal/models"
	"minuta/internal/session"
	"minuta/internal/snapshot"
	"minuta/internal/store"
	"minuta/internal/syncbus"
)

// Workspace is the top-level orchestrator for one project instance.
type Workspace struct {
	cfg       *config.Config
	store     *store.Store
	slot      *session.Slot
	autosaver *session.Autosaver
	codec     *snapshot.Codec
	broker    *syncbus.Broker
	tracker   *session.Tracker
	log       *slog.Logger

	mu    sync.Mutex
	state models.ProjectState
}

// Open builds a workspace from configuration. A store that fails to open
// degrades persistence instead of failing the workspace.
func Open(cfg *config.Config) (*Workspace, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var st *store.Store
	if cfg.DurableDisabled {
		slog.Info("durable store disabled by configuration; session slot only")
		st = store.Degraded()
	} else {
		st = store.OpenOrDegraded(cfg.DBPath())
	}

	ws := &Workspace{
		cfg:     cfg,
		store:   st,
		slot:    session.NewSlot(cfg.SessionPath(), cfg.SessionMaxBytes),
		tracker: session.NewTracker(),
		log:     slog.With("component", "workspace"),
	}
	ws.autosaver = session.NewAutosaver(ws.slot, st,
		time.Duration(cfg.AutosaveIdleMS)*time.Millisecond,
		func(err error) { ws.log.Warn("session save warning", "error", err) })
	ws.codec = snapshot.NewCodec(st, snapshot.NewEncodeCache())

	syncEnabled := !cfg.SyncDisabled && st.Available()
	broker, err := syncbus.New(cfg.JournalPath(), syncEnabled)
	if err != nil {
		ws.log.Warn("sync broker unavailable; instances will not converge", "error", err)
		broker, _ = syncbus.New(cfg.JournalPath(), false)
	}
	ws.broker = broker
	ws.broker.SetHandler(ws.handleSync)

	st.SetCommitHook(func(domain string) {
		if err := ws.broker.Publish(domain); err != nil {
			ws.log.Warn("sync publish failed", "domain", domain, "error", err)
		}
	})

	return ws, nil
}

// Close flushes deferred saves and releases every component.
func (w *Workspace) Close() error {
	err := w.autosaver.Close()
	if cerr := w.broker.Close(); err == nil {
		err = cerr
	}
	if cerr := w.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// Store exposes the durable store for maintenance commands.
func (w *Workspace) Store() *store.Store {
	return w.store
}

// Tracker exposes the in-flight operation tracker.
func (w *Workspace) Tracker() *session.Tracker {
	return w.tracker
}

// SyncEnabled reports whether cross-instance synchronization is active.
func (w *Workspace) SyncEnabled() bool {
	return w.broker.Enabled()
}

// State returns a copy of the current project state.
func (w *Workspace) State() models.ProjectState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetState replaces the in-memory project state.
func (w *Workspace) SetState(state models.ProjectState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
}

// SaveSession persists the current state through the autosaver.
func (w *Workspace) SaveSession(ctx context.Context, immediate bool) error {
	state := w.State()
	return w.autosaver.Save(ctx, &state, immediate)
}

// HasSavedSession probes for a resumable session.
func (w *Workspace) HasSavedSession() bool {
	return w.autosaver.HasSaved()
}

// RestoreSession loads the saved session into the workspace state.
func (w *Workspace) RestoreSession(ctx context.Context) (bool, error) {
	return w.restoreInto(ctx)
}

// ClearSession removes the session document, purges every durable domain,
// drops the encode cache, and resets the in-memory state.
func (w *Workspace) ClearSession(ctx context.Context) error {
	if err := w.autosaver.Clear(ctx); err != nil {
		return err
	}
	w.codec.ClearCache()
	w.SetState(models.ProjectState{})
	return nil
}

// ExportSnapshot builds the portable snapshot from the current state and
// returns its wire bytes together with the generated file name.
func (w *Workspace) ExportSnapshot(ctx context.Context) ([]byte, string, error) {
	state := w.State()
	doc, err := w.codec.Build(ctx, &state)
	if err != nil {
		return nil, "", err
	}
	data, err := w.codec.Encode(doc)
	if err != nil {
		return nil, "", err
	}
	return data, snapshot.FileName(state.Case.CaseNumber, doc.ExportedAt), nil
}

// opImport is the tracker key guarding snapshot import. Import wipes and
// re-inflates every durable domain, so only one may run at a time.
const opImport = "snapshot:import"

// ImportSnapshot replaces the current project with the snapshot bytes and
// immediately autosaves the imported state so it is itself protected.
func (w *Workspace) ImportSnapshot(ctx context.Context, data []byte) error {
	if !w.tracker.Begin(opImport) {
		return fmt.Errorf("snapshot import already running")
	}
	defer w.tracker.Done(opImport)

	state, err := w.codec.Import(ctx, data)
	if err != nil {
		return err
	}
	w.SetState(*state)
	return w.autosaver.Save(ctx, state, true)
}

// SaveFieldVersion records one edit of a decision field.
func (w *Workspace) SaveFieldVersion(ctx context.Context, fieldKey, content string) (*models.FieldVersion, error) {
	return w.store.SaveFieldVersion(ctx, fieldKey, content)
}

// FieldVersions lists the retained versions of a field, newest first.
func (w *Workspace) FieldVersions(ctx context.Context, fieldKey string) ([]models.FieldVersion, error) {
	return w.store.FieldVersions(ctx, fieldKey)
}

// RestoreFieldVersion snapshots the current content and returns the
// historical content of versionID.
func (w *Workspace) RestoreFieldVersion(ctx context.Context, versionID, currentContent, fieldKey string) (string, error) {
	return w.store.RestoreFieldVersion(ctx, versionID, currentContent, fieldKey)
}

// handleSync reacts to a sibling instance's commit: the in-memory
// projection is replaced wholesale from storage, never merged.
func (w *Workspace) handleSync(event syncbus.Event) {
	w.log.Debug("sync reload", "action", event.Action, "from", event.Instance)
	if _, err := w.restoreInto(context.Background()); err != nil {
		w.log.Warn("sync reload failed", "error", err)
	}
}

func (w *Workspace) restoreInto(ctx context.Context) (bool, error) {
	var state models.ProjectState
	restored, err := w.autosaver.Restore(ctx, session.Callbacks{
		SetCase:           func(v models.CaseInfo) { state.Case = v },
		SetTopics:         func(v []models.Topic) { state.Topics = v },
		SetProcessingMode: func(v models.ProcessingMode) { state.ProcessingMode = v },
		SetDraftFields:    func(v map[string]string) { state.DraftFields = v },
		SetTexts:          func(v []models.TextBlob) { state.Texts = v },
		SetFiles:          func(v []models.BinaryBlob) { state.Files = v },
	})
	if err != nil || !restored {
		return restored, err
	}
	w.SetState(state)
	return true, nil
}
