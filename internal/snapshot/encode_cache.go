package snapshot

import (
	"encoding/base64"
	"sync"

	"minuta/internal/models"
)

// encodeCacheCapacity bounds the number of retained encoded strings.
const encodeCacheCapacity = 5

// Fingerprint is the non-cryptographic cache key: name, size, and saved
// timestamp. Two distinct payloads with equal fingerprints would collide;
// the cache is purely an encoding optimization, never a storage identity.
type Fingerprint struct {
	Name      string
	Size      int64
	ModMillis int64
}

// FingerprintOf derives the cache key for a blob.
func FingerprintOf(blob *models.BinaryBlob) Fingerprint {
	return Fingerprint{
		Name:      blob.FileName,
		Size:      blob.SizeBytes,
		ModMillis: blob.SavedAt.UnixMilli(),
	}
}

// EncodeCache avoids re-encoding the same binary payload to base64 during
// one export. Eviction is FIFO by first insertion: re-setting an existing
// key does not move it in eviction order, and reads never promote.
type EncodeCache struct {
	mu      sync.Mutex
	entries map[Fingerprint]string
	order   []Fingerprint
}

// NewEncodeCache creates an empty cache.
func NewEncodeCache() *EncodeCache {
	return &EncodeCache{entries: make(map[Fingerprint]string)}
}

// Convert returns the base64 text form of blob's payload, encoding at most
// once per fingerprint while the entry is retained.
func (c *EncodeCache) Convert(blob *models.BinaryBlob) string {
	fp := FingerprintOf(blob)

	c.mu.Lock()
	defer c.mu.Unlock()

	if encoded, ok := c.entries[fp]; ok {
		return encoded
	}

	encoded := base64.StdEncoding.EncodeToString(blob.Payload)
	if len(c.order) >= encodeCacheCapacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[fp] = encoded
	c.order = append(c.order, fp)
	return encoded
}

// Contains reports whether a fingerprint is currently retained.
func (c *EncodeCache) Contains(fp Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[fp]
	return ok
}

// Len returns the number of retained entries.
func (c *EncodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry, freeing the encoded strings.
func (c *EncodeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]string)
	c.order = nil
}
