// Package nlu implements the deterministic language heuristics of the
// assistant: goal routing, deletion intent detection, confirmation
// parsing, and merging and validation of extracted listing fields.
// Everything here is pure string and map manipulation; the AI-backed
// extraction lives in the genai package.
package nlu

import (
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// Merge folds update into base and returns the result. base is not
// modified. A nil value in update clears the key; false survives as a
// stored value so negated amenities stay visible in summaries.
func Merge(base, update models.Fields) models.Fields {
	out := base.Clone()
	for k, v := range update {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// ApplyDeletions overlays detected deletion markers onto extracted
// fields. Unlike Merge it keeps nil markers intact, so a later Merge
// into the session state clears the fields they name and the store
// sees them as explicit NULLs.
func ApplyDeletions(fields, deletions models.Fields) models.Fields {
	out := fields.Clone()
	for k, v := range deletions {
		out[k] = v
	}
	return out
}

// MergeFilters folds update into base for search criteria. Filters
// have no deletion sentinel, later values simply win.
func MergeFilters(base, update models.Filters) models.Filters {
	out := base.Clone()
	for k, v := range update {
		out[k] = v
	}
	return out
}

// Validate checks fields against the required set and returns the
// missing field names in canonical order. An empty slice means the
// listing is ready to finalize.
func Validate(fields models.Fields) []string {
	var missing []string
	for _, name := range models.RequiredFields {
		v, ok := fields[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
