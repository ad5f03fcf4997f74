package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"minuta/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if !st.Available() {
		t.Fatal("expected store to be available")
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not re-apply migrations or fail on existing tables.
	st, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer st.Close()

	status, err := MigrationPlan(st.DB())
	if err != nil {
		t.Fatalf("migration plan: %v", err)
	}
	if status.CurrentVersion != status.AvailableVersion {
		t.Fatalf("expected fully migrated db, got %d of %d", status.CurrentVersion, status.AvailableVersion)
	}
	if len(status.Pending) != 0 {
		t.Fatalf("expected no pending migrations, got %d", len(status.Pending))
	}
}

func TestDegradedStoreNeverErrors(t *testing.T) {
	st := Degraded()
	ctx := context.Background()

	if st.Available() {
		t.Fatal("expected degraded store to be unavailable")
	}

	blob := &models.BinaryBlob{
		ID:       models.BlobID(models.BlobCategoryUpload, "abc"),
		Payload:  []byte("payload"),
		FileName: "peticao.pdf",
	}
	if err := st.PutBlob(ctx, blob); err != nil {
		t.Fatalf("expected silent no-op write, got %v", err)
	}

	got, err := st.GetBlob(ctx, blob.ID)
	if err != nil {
		t.Fatalf("expected empty read, got error %v", err)
	}
	if got != nil {
		t.Fatal("expected nil blob from degraded store")
	}

	if _, err := st.SaveFieldVersion(ctx, models.FieldRelatorio, "text"); err != nil {
		t.Fatalf("expected silent history no-op, got %v", err)
	}
	versions, err := st.FieldVersions(ctx, models.FieldRelatorio)
	if err != nil || versions != nil {
		t.Fatalf("expected empty history, got %v, %v", versions, err)
	}

	if purged := st.PurgeAll(ctx); purged != len(Domains) {
		t.Fatalf("expected all purges to no-op successfully, got %d", purged)
	}
}

func TestCommitHookFires(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	var domains []string
	st.SetCommitHook(func(domain string) { domains = append(domains, domain) })

	blob := &models.BinaryBlob{
		ID:       models.BlobID(models.BlobCategoryProof, "doc1"),
		Payload:  []byte("scan"),
		FileName: "prova.pdf",
		SavedAt:  time.Now().UTC(),
	}
	if err := st.PutBlob(ctx, blob); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.DeleteBlob(ctx, blob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(domains) != 2 || domains[0] != DomainBlobs || domains[1] != DomainBlobs {
		t.Fatalf("expected two blob commits, got %v", domains)
	}
}

func TestPurgeAllClearsEveryDomain(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.PutBlob(ctx, &models.BinaryBlob{
		ID: models.BlobID(models.BlobCategoryUpload, "u1"), Payload: []byte("x"), FileName: "a.pdf",
	}); err != nil {
		t.Fatalf("put blob: %v", err)
	}
	if err := st.PutTextBlob(ctx, &models.TextBlob{
		ID: "t1", Category: models.TextCategoryExtracted, Text: "corpo",
	}); err != nil {
		t.Fatalf("put text blob: %v", err)
	}
	if err := st.SaveFactsComparison(ctx, &models.FactsComparison{
		TopicTitle: "horas extras", Source: "peticao", Result: "analise",
	}); err != nil {
		t.Fatalf("save facts: %v", err)
	}
	if _, err := st.SaveFieldVersion(ctx, models.FieldDispositivo, "julgo procedente"); err != nil {
		t.Fatalf("save version: %v", err)
	}

	if purged := st.PurgeAll(ctx); purged != len(Domains) {
		t.Fatalf("expected %d purged domains, got %d", len(Domains), purged)
	}

	blobs, err := st.ListAllBlobs(ctx)
	if err != nil || len(blobs) != 0 {
		t.Fatalf("expected no blobs after purge, got %v, %v", blobs, err)
	}
	facts, err := st.ListFactsComparisons(ctx)
	if err != nil || len(facts) != 0 {
		t.Fatalf("expected no facts after purge, got %v, %v", facts, err)
	}
	versions, err := st.FieldVersions(ctx, models.FieldDispositivo)
	if err != nil || len(versions) != 0 {
		t.Fatalf("expected no versions after purge, got %v, %v", versions, err)
	}
}

func TestPurgeDomainRejectsUnknown(t *testing.T) {
	st := testStore(t)
	if err := st.PurgeDomain(context.Background(), "tasks"); err == nil {
		t.Fatal("expected error for unknown domain")
	}
}
