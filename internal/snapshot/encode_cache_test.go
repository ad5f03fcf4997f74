package snapshot

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"minuta/internal/models"
)

func testBlob(name string, payload []byte) *models.BinaryBlob {
	return &models.BinaryBlob{
		ID:        models.BlobID(models.BlobCategoryUpload, name),
		Payload:   payload,
		FileName:  name,
		SizeBytes: int64(len(payload)),
		SavedAt:   time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestConvertEncodesAndCaches(t *testing.T) {
	cache := NewEncodeCache()
	blob := testBlob("doc.pdf", []byte("conteudo binario"))

	encoded := cache.Convert(blob)
	want := base64.StdEncoding.EncodeToString(blob.Payload)
	if encoded != want {
		t.Fatalf("expected %q, got %q", want, encoded)
	}
	if !cache.Contains(FingerprintOf(blob)) {
		t.Fatal("expected entry to be retained")
	}

	// A second convert returns the cached string even if the payload
	// changed behind the fingerprint; the cache is fingerprint-keyed.
	blob.Payload = []byte("outro conteudo")
	if got := cache.Convert(blob); got != want {
		t.Fatalf("expected cached value, got %q", got)
	}
}

func TestEvictionIsFIFOByInsertion(t *testing.T) {
	cache := NewEncodeCache()

	blobs := make([]*models.BinaryBlob, 7)
	for i := range blobs {
		blobs[i] = testBlob(fmt.Sprintf("doc-%d.pdf", i), []byte{byte(i)})
	}

	// Insert the first five, then read the oldest ones repeatedly: reads
	// must not promote.
	for _, blob := range blobs[:5] {
		cache.Convert(blob)
	}
	cache.Convert(blobs[0])
	cache.Convert(blobs[1])

	// Keys 5 and 6 evict the earliest-inserted keys 0 and 1.
	cache.Convert(blobs[5])
	cache.Convert(blobs[6])

	if cache.Len() != 5 {
		t.Fatalf("expected capacity 5, got %d", cache.Len())
	}
	for i, blob := range blobs {
		retained := cache.Contains(FingerprintOf(blob))
		wantRetained := i >= 2
		if retained != wantRetained {
			t.Fatalf("key %d: retained=%v, want %v", i, retained, wantRetained)
		}
	}
}

func TestFingerprintIsNotContentAddressed(t *testing.T) {
	a := testBlob("same.pdf", []byte("aaa"))
	b := testBlob("same.pdf", []byte("bbb"))
	if FingerprintOf(a) != FingerprintOf(b) {
		t.Fatal("expected equal fingerprints for same name, size, timestamp")
	}
}

func TestClearDropsEverything(t *testing.T) {
	cache := NewEncodeCache()
	for i := 0; i < 3; i++ {
		cache.Convert(testBlob(fmt.Sprintf("d%d", i), []byte{byte(i)}))
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Len())
	}

	// The cache is usable again after a clear.
	blob := testBlob("novo.pdf", []byte("x"))
	if got := cache.Convert(blob); got == "" {
		t.Fatal("expected conversion after clear")
	}
}
