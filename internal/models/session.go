package models

import "time"

// SessionDocumentVersion is the current shape of the session slot document.
// Version 1 inlined text bodies and file payloads directly; version 2 holds
// only references into the durable store.
const SessionDocumentVersion = 2

// TextRef points at one TextBlob without carrying its body.
type TextRef struct {
	Category TextCategory `json:"category"`
	ID       string       `json:"id"`
	Name     string       `json:"name,omitempty"`
}

// SessionDocument is the small continuity document written to the
// quota-limited slot. Large bodies live in the durable store; the document
// embeds only their ids.
type SessionDocument struct {
	Version        int               `json:"version"`
	SavedAt        time.Time         `json:"saved_at"`
	Case           CaseInfo          `json:"case"`
	Topics         []Topic           `json:"topics,omitempty"`
	ProcessingMode ProcessingMode    `json:"processing_mode,omitempty"`
	DraftFields    map[string]string `json:"draft_fields,omitempty"`
	TextRefs       []TextRef         `json:"text_refs,omitempty"`
	BlobIDs        []string          `json:"blob_ids,omitempty"`
}
