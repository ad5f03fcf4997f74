package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"minuta/internal/config"
	"minuta/internal/models"
	"minuta/internal/snapshot"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectDir = t.TempDir()
	cfg.AutosaveIdleMS = 1
	cfg.SyncDisabled = true
	return &cfg
}

func testWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func draftingState() models.ProjectState {
	return models.ProjectState{
		Case:           models.CaseInfo{CaseNumber: "0001234-56.2026.5.03.0001"},
		Topics:         []models.Topic{{ID: "t-1", Title: "horas extras"}},
		ProcessingMode: models.ProcessingModeFull,
		DraftFields:    map[string]string{models.FieldRelatorio: "Trata-se de..."},
		Texts: []models.TextBlob{
			{Category: models.TextCategoryPasted, Text: "texto colado"},
		},
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	ws, err := Open(cfg)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	ws.SetState(draftingState())
	if err := ws.SaveSession(ctx, true); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A second instance over the same project resumes where the first left
	// off.
	ws2, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen workspace: %v", err)
	}
	defer ws2.Close()

	if !ws2.HasSavedSession() {
		t.Fatal("expected a resumable session")
	}
	restored, err := ws2.RestoreSession(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored {
		t.Fatal("expected restore to succeed")
	}

	state := ws2.State()
	if state.Case.CaseNumber != "0001234-56.2026.5.03.0001" {
		t.Fatalf("case not restored: %+v", state.Case)
	}
	if len(state.Texts) != 1 || state.Texts[0].Text != "texto colado" {
		t.Fatalf("text body not restored: %+v", state.Texts)
	}
}

func TestClearSessionResetsEverything(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	ws.SetState(draftingState())
	if err := ws.SaveSession(ctx, true); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := ws.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	if ws.HasSavedSession() {
		t.Fatal("expected session removed")
	}
	state := ws.State()
	if state.Case.CaseNumber != "" || len(state.Topics) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
	texts, err := ws.Store().ListTextBlobs(ctx, models.TextCategoryPasted)
	if err != nil || len(texts) != 0 {
		t.Fatalf("expected purged text domain, got %d (%v)", len(texts), err)
	}
}

func TestSnapshotExportImport(t *testing.T) {
	ctx := context.Background()
	source := testWorkspace(t)
	source.SetState(draftingState())

	data, name, err := source.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name == "" {
		t.Fatal("expected a generated file name")
	}

	target := testWorkspace(t)
	if err := target.ImportSnapshot(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}

	state := target.State()
	if state.Case.CaseNumber != "0001234-56.2026.5.03.0001" {
		t.Fatalf("case not imported: %+v", state.Case)
	}
	if len(state.Topics) != 1 || state.Topics[0].Title != "horas extras" {
		t.Fatalf("topics not imported: %+v", state.Topics)
	}

	// The imported project is immediately protected by its own session.
	if !target.HasSavedSession() {
		t.Fatal("expected import to autosave a session")
	}
}

func TestImportRejectsUnversionedSnapshot(t *testing.T) {
	ws := testWorkspace(t)
	err := ws.ImportSnapshot(context.Background(), []byte(`{"case": {}}`))
	if !errors.Is(err, snapshot.ErrMissingVersion) {
		t.Fatalf("expected ErrMissingVersion, got %v", err)
	}
}

func TestImportSnapshotRejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	data := []byte(`{"version": 3, "case": {"case_number": "123"}}`)

	if !ws.Tracker().Begin(opImport) {
		t.Fatal("expected tracker to admit the first import")
	}
	if err := ws.ImportSnapshot(ctx, data); err == nil {
		t.Fatal("expected import to refuse while another is in flight")
	}

	ws.Tracker().Done(opImport)
	if err := ws.ImportSnapshot(ctx, data); err != nil {
		t.Fatalf("import after release: %v", err)
	}
	if got := ws.State().Case.CaseNumber; got != "123" {
		t.Fatalf("expected imported case adopted, got %q", got)
	}
	if ws.Tracker().InFlight(opImport) {
		t.Fatal("expected import key released after completion")
	}
}

func TestFieldVersionFlow(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	if _, err := ws.SaveFieldVersion(ctx, models.FieldRelatorio, "primeira redacao"); err != nil {
		t.Fatalf("save version: %v", err)
	}
	if _, err := ws.SaveFieldVersion(ctx, models.FieldRelatorio, "segunda redacao"); err != nil {
		t.Fatalf("save version: %v", err)
	}

	versions, err := ws.FieldVersions(ctx, models.FieldRelatorio)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Content != "segunda redacao" {
		t.Fatalf("expected newest-first listing, got %+v", versions)
	}

	content, err := ws.RestoreFieldVersion(ctx, versions[1].ID, "segunda redacao", models.FieldRelatorio)
	if err != nil {
		t.Fatalf("restore version: %v", err)
	}
	if content != "primeira redacao" {
		t.Fatalf("expected historical content, got %q", content)
	}
}

func TestDegradedWorkspaceStillSavesSessions(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.DurableDisabled = true

	ws, err := Open(cfg)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	defer ws.Close()

	if ws.Store().Available() {
		t.Fatal("expected degraded store")
	}
	if ws.SyncEnabled() {
		t.Fatal("sync must stay off without durable storage")
	}

	state := draftingState()
	state.Texts = nil
	ws.SetState(state)
	if err := ws.SaveSession(ctx, true); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if !ws.HasSavedSession() {
		t.Fatal("expected session slot to work without the store")
	}
}

func TestSiblingInstancesConverge(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SyncDisabled = false

	a, err := Open(cfg)
	if err != nil {
		t.Fatalf("open first instance: %v", err)
	}
	defer a.Close()
	b, err := Open(cfg)
	if err != nil {
		t.Fatalf("open second instance: %v", err)
	}
	defer b.Close()

	if !a.SyncEnabled() || !b.SyncEnabled() {
		t.Fatal("expected sync enabled on both instances")
	}

	a.SetState(draftingState())
	if err := a.SaveSession(ctx, true); err != nil {
		t.Fatalf("save on first instance: %v", err)
	}
	// A follow-up commit broadcasts after the session document is on disk,
	// so the sibling's reload finds it.
	if _, err := a.SaveFieldVersion(ctx, models.FieldRelatorio, "primeira redacao"); err != nil {
		t.Fatalf("save version on first instance: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if state := b.State(); state.Case.CaseNumber == "0001234-56.2026.5.03.0001" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("sibling never converged, state: %+v", b.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
