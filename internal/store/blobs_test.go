package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"minuta/internal/models"
)

func TestPutAndGetBlob(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	blob := &models.BinaryBlob{
		ID:       models.BlobID(models.BlobCategoryUpload, "inicial"),
		Payload:  []byte("%PDF-1.4 conteudo"),
		MimeType: "application/pdf",
		FileName: "peticao-inicial.pdf",
		SavedAt:  now,
	}
	if err := st.PutBlob(ctx, blob); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := st.GetBlob(ctx, blob.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected blob, got nil")
	}
	if !bytes.Equal(got.Payload, blob.Payload) {
		t.Fatal("payload mismatch")
	}
	if got.MimeType != "application/pdf" || got.FileName != "peticao-inicial.pdf" {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if got.SizeBytes != int64(len(blob.Payload)) {
		t.Fatalf("expected size %d, got %d", len(blob.Payload), got.SizeBytes)
	}
	if !got.SavedAt.Equal(now) {
		t.Fatalf("expected saved_at %v, got %v", now, got.SavedAt)
	}
}

func TestPutBlobRejectsMalformedID(t *testing.T) {
	st := testStore(t)
	blob := &models.BinaryBlob{ID: "no-prefix", Payload: []byte("x"), FileName: "a"}
	if err := st.PutBlob(context.Background(), blob); err == nil {
		t.Fatal("expected error for id without category prefix")
	}
}

func TestListBlobsScansByCategoryPrefix(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	ids := []string{
		models.BlobID(models.BlobCategoryUpload, "u1"),
		models.BlobID(models.BlobCategoryUpload, "u2"),
		models.BlobID(models.BlobCategoryProof, "p1"),
		models.BlobID(models.BlobCategoryAttachment, "a1"),
	}
	for i, id := range ids {
		blob := &models.BinaryBlob{
			ID:       id,
			Payload:  []byte{byte(i)},
			FileName: id,
			SavedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := st.PutBlob(ctx, blob); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	uploads, err := st.ListBlobs(ctx, models.BlobCategoryUpload)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(uploads))
	}
	for _, blob := range uploads {
		category, _, err := models.SplitBlobID(blob.ID)
		if err != nil || category != models.BlobCategoryUpload {
			t.Fatalf("unexpected blob in upload scan: %s", blob.ID)
		}
	}

	all, err := st.ListAllBlobs(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 blobs total, got %d (%v)", len(all), err)
	}
}

func TestDeleteBlobIgnoresMissing(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.DeleteBlob(ctx, models.BlobID(models.BlobCategoryUpload, "ghost")); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestTextBlobRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	blob := &models.TextBlob{
		ID:       "extract-1",
		Category: models.TextCategoryExtracted,
		Text:     "texto extraido do PDF",
		Name:     "peticao-inicial.pdf",
	}
	if err := st.PutTextBlob(ctx, blob); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := st.GetTextBlob(ctx, models.TextCategoryExtracted, "extract-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Text != blob.Text || got.Name != blob.Name {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Same id under a different category is a distinct record.
	other, err := st.GetTextBlob(ctx, models.TextCategoryPasted, "extract-1")
	if err != nil {
		t.Fatalf("get other category: %v", err)
	}
	if other != nil {
		t.Fatal("expected no record under different category")
	}

	// Re-put replaces, not duplicates.
	blob.Text = "texto revisado"
	if err := st.PutTextBlob(ctx, blob); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	list, err := st.ListTextBlobs(ctx, models.TextCategoryExtracted)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected single record, got %d (%v)", len(list), err)
	}
	if list[0].Text != "texto revisado" {
		t.Fatalf("expected replaced text, got %q", list[0].Text)
	}
}

func TestPutTextBlobValidatesCategory(t *testing.T) {
	st := testStore(t)
	blob := &models.TextBlob{ID: "x", Category: "scratch", Text: "y"}
	if err := st.PutTextBlob(context.Background(), blob); err == nil {
		t.Fatal("expected invalid category to be rejected")
	}
}
