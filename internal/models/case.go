package models

import (
	"fmt"
	"strings"
)

// ProcessingMode selects how much of the source documents the analysis
// pipeline feeds to the provider.
type ProcessingMode string

const (
	ProcessingModeFull    ProcessingMode = "full"
	ProcessingModeSummary ProcessingMode = "summary"
)

var validProcessingModes = map[ProcessingMode]struct{}{
	ProcessingModeFull:    {},
	ProcessingModeSummary: {},
}

// ParseProcessingMode validates a raw processing mode value.
func ParseProcessingMode(raw string) (ProcessingMode, error) {
	value := ProcessingMode(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("processing mode is required")
	}
	if _, ok := validProcessingModes[value]; !ok {
		return "", fmt.Errorf("invalid processing mode: %s", value)
	}
	return value, nil
}

// legacyProcessingModes maps pre-versioning mode values to current ones.
var legacyProcessingModes = map[string]ProcessingMode{
	"complete":   ProcessingModeFull,
	"integral":   ProcessingModeFull,
	"summarized": ProcessingModeSummary,
	"resumido":   ProcessingModeSummary,
}

// NormalizeProcessingMode maps raw or legacy mode values to the current
// enumeration, defaulting to full processing when unrecognized.
func NormalizeProcessingMode(raw string) ProcessingMode {
	if mode, err := ParseProcessingMode(raw); err == nil {
		return mode
	}
	if mode, ok := legacyProcessingModes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return mode
	}
	return ProcessingModeFull
}

// IsLegacyProcessingMode reports whether raw is a pre-versioning mode value.
func IsLegacyProcessingMode(raw string) bool {
	_, ok := legacyProcessingModes[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// Decision field keys. These are the drafted sections of the decision that
// carry per-field version history.
const (
	FieldRelatorio     = "RELATORIO"
	FieldFundamentacao = "FUNDAMENTACAO"
	FieldDispositivo   = "DISPOSITIVO"
)

// CaseInfo is the metadata of the court case being drafted.
//
// APIKey and Credentials are provider secrets held only for the local
// session; the snapshot codec clears them before serialization.
type CaseInfo struct {
	CaseNumber    string `json:"case_number"`
	Court         string `json:"court,omitempty"`
	Claimant      string `json:"claimant,omitempty"`
	Respondent    string `json:"respondent,omitempty"`
	ReporterNotes string `json:"reporter_notes,omitempty"`
	APIKey        string `json:"api_key,omitempty"`
	Credentials   string `json:"credentials,omitempty"`
}

// Topic is one analysis topic of the decision (a pedido/claim under review).
type Topic struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Decided bool   `json:"decided,omitempty"`
}

// ProjectState is the full in-memory state of one drafting project. The
// session and snapshot layers project it into their persisted shapes; it has
// no durable lifecycle of its own.
type ProjectState struct {
	Case           CaseInfo
	Topics         []Topic
	ProcessingMode ProcessingMode
	DraftFields    map[string]string
	Texts          []TextBlob
	Files          []BinaryBlob
}
