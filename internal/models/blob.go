package models

import (
	"fmt"
	"strings"
	"time"
)

// BlobCategory describes what kind of source document a binary blob holds.
type BlobCategory string

const (
	BlobCategoryUpload     BlobCategory = "upload"
	BlobCategoryProof      BlobCategory = "proof"
	BlobCategoryAttachment BlobCategory = "attachment"
)

var validBlobCategories = map[BlobCategory]struct{}{
	BlobCategoryUpload:     {},
	BlobCategoryProof:      {},
	BlobCategoryAttachment: {},
}

// ParseBlobCategory validates a raw blob category value.
func ParseBlobCategory(raw string) (BlobCategory, error) {
	value := BlobCategory(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("blob category is required")
	}
	if _, ok := validBlobCategories[value]; !ok {
		return "", fmt.Errorf("invalid blob category: %s", value)
	}
	return value, nil
}

// BlobID builds the canonical blob id from a category prefix and an
// owner-assigned identifier.
func BlobID(category BlobCategory, id string) string {
	return fmt.Sprintf("%s:%s", category, id)
}

// SplitBlobID splits a canonical blob id back into category and identifier.
func SplitBlobID(id string) (BlobCategory, string, error) {
	prefix, rest, ok := strings.Cut(id, ":")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("invalid blob id: %s", id)
	}
	category, err := ParseBlobCategory(prefix)
	if err != nil {
		return "", "", err
	}
	return category, rest, nil
}

// BinaryBlob is one stored binary payload (uploaded petition, proof scan,
// attachment). The id carries the category prefix.
type BinaryBlob struct {
	ID        string    `json:"id"`
	Payload   []byte    `json:"-"`
	MimeType  string    `json:"mime_type,omitempty"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// TextCategory describes where a large text body came from.
type TextCategory string

const (
	TextCategoryPasted    TextCategory = "pasted"
	TextCategoryExtracted TextCategory = "extracted"
	TextCategoryAnalysis  TextCategory = "analysis"
)

var validTextCategories = map[TextCategory]struct{}{
	TextCategoryPasted:    {},
	TextCategoryExtracted: {},
	TextCategoryAnalysis:  {},
}

// ParseTextCategory validates a raw text category value.
func ParseTextCategory(raw string) (TextCategory, error) {
	value := TextCategory(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("text category is required")
	}
	if _, ok := validTextCategories[value]; !ok {
		return "", fmt.Errorf("invalid text category: %s", value)
	}
	return value, nil
}

// TextBlob is one large text body kept out of the session slot. One record
// exists per (category, id).
type TextBlob struct {
	ID       string       `json:"id"`
	Category TextCategory `json:"category"`
	Text     string       `json:"text"`
	Name     string       `json:"name,omitempty"`
	SavedAt  time.Time    `json:"saved_at"`
}
