package snapshot

import (
	"strconv"
	"strings"

	"minuta/internal/models"
)

// legacyMigration is one pure migration step. Applies recognizes its legacy
// shape structurally; Apply rewrites the document in place to the next
// shape.
type legacyMigration struct {
	Name    string
	Applies func(doc map[string]any) bool
	Apply   func(doc map[string]any)
}

// legacyMigrations is the ordered migration chain. The chain is applied
// repeatedly until no step claims applicability, bounded by the chain
// length.
var legacyMigrations = []legacyMigration{
	{
		Name: "singular topic field to plural",
		Applies: func(doc map[string]any) bool {
			_, hasSingular := doc["topic"]
			return hasSingular
		},
		Apply: func(doc map[string]any) {
			value := doc["topic"]
			delete(doc, "topic")
			if _, hasPlural := doc["topics"]; hasPlural {
				return
			}
			switch v := value.(type) {
			case []any:
				doc["topics"] = v
			case map[string]any:
				doc["topics"] = []any{v}
			}
			bumpVersion(doc, 1, 2)
		},
	},
	{
		Name: "inline text bodies to text list",
		Applies: func(doc map[string]any) bool {
			if text, ok := doc["extractedText"].(string); ok && text != "" {
				return true
			}
			text, ok := doc["pastedText"].(string)
			return ok && text != ""
		},
		Apply: func(doc map[string]any) {
			texts, _ := doc["texts"].([]any)
			if text, ok := doc["extractedText"].(string); ok && text != "" {
				texts = append(texts, map[string]any{
					"category": string(models.TextCategoryExtracted),
					"text":     text,
				})
			}
			if text, ok := doc["pastedText"].(string); ok && text != "" {
				texts = append(texts, map[string]any{
					"category": string(models.TextCategoryPasted),
					"text":     text,
				})
			}
			delete(doc, "extractedText")
			delete(doc, "pastedText")
			doc["texts"] = texts
			bumpVersion(doc, 2, 3)
		},
	},
	{
		Name: "unversioned processing mode values",
		Applies: func(doc map[string]any) bool {
			mode, ok := doc["processingMode"].(string)
			return ok && models.IsLegacyProcessingMode(mode)
		},
		Apply: func(doc map[string]any) {
			mode, _ := doc["processingMode"].(string)
			doc["processingMode"] = string(models.NormalizeProcessingMode(mode))
		},
	},
}

// migrateToCurrent runs the chain to a fixed point. The loop bound prevents
// a misbehaving predicate from spinning forever.
func migrateToCurrent(doc map[string]any) {
	for pass := 0; pass <= len(legacyMigrations); pass++ {
		applied := false
		for _, m := range legacyMigrations {
			if m.Applies(doc) {
				m.Apply(doc)
				applied = true
			}
		}
		if !applied {
			return
		}
	}
}

// normalizeVersionTag rewrites a numeric-string version tag to a number so
// the migration chain and the document decode see one representation. Some
// early exports wrote the tag as "1".
func normalizeVersionTag(doc map[string]any) {
	s, ok := doc["version"].(string)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		doc["version"] = float64(n)
	}
}

// bumpVersion advances the version tag when it matches the step's source
// version. Documents exported mid-chain keep their higher tag.
func bumpVersion(doc map[string]any, from, to int) {
	switch v := doc["version"].(type) {
	case float64:
		if int(v) == from {
			doc["version"] = float64(to)
		}
	case int:
		if v == from {
			doc["version"] = to
		}
	}
}
