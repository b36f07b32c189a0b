package nlu

import (
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

var (
	deletionVerbs = []string{"delete", "remove", "clear", "erase", "drop"}
	resetVerbs    = []string{"set", "make"}
	resetTargets  = []string{"none", "null", "empty", "blank"}
	negationWords = []string{"no", "without"}
)

// fieldSynonyms lists the surface forms a user may use for each
// deletable field. Only these fields can be cleared by phrasing; the
// required numeric fields cannot be deleted, only overwritten.
var fieldSynonyms = map[string][]string{
	models.FieldDescription:  {"description", "details", "summary", "notes", "note"},
	models.FieldAddress:      {"address", "location details"},
	models.FieldNeighborhood: {"neighborhood", "district", "area name"},
	models.FieldTitle:        {"title", "headline"},
	models.FieldParking:      {"parking", "garage", "car park"},
	models.FieldElevator:     {"elevator", "lift"},
	models.FieldStorage:      {"storage", "storage room", "locker", "pantry"},
}

// DetectDeletions scans a message for explicit clear commands such as
// "delete the description", "set notes to none" or "no parking".
// Cleared text fields map to nil; boolean amenities map to false so
// the negation is stored rather than forgotten. Whitespace in the
// input is collapsed before matching so line breaks cannot split a
// phrase.
func DetectDeletions(text string) models.Fields {
	if strings.TrimSpace(text) == "" {
		return models.Fields{}
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	removals := models.Fields{}
	for field, synonyms := range fieldSynonyms {
		for _, syn := range synonyms {
			if matchDeletion(normalized, syn) || matchReset(normalized, syn) {
				removals[field] = clearedValue(field)
				break
			}
			if models.BooleanFields[field] && matchNegation(normalized, syn) {
				removals[field] = false
				break
			}
		}
	}
	return removals
}

func clearedValue(field string) any {
	if models.BooleanFields[field] {
		return false
	}
	return nil
}

// matchDeletion covers "delete description", "remove the parking",
// "clear my notes" and the trailing "field" variant.
func matchDeletion(text, syn string) bool {
	for _, verb := range deletionVerbs {
		patterns := []string{
			verb + " " + syn,
			verb + " the " + syn,
			verb + " this " + syn,
			verb + " that " + syn,
			verb + " my " + syn,
			verb + " the " + syn + " field",
		}
		for _, p := range patterns {
			if strings.Contains(text, p) {
				return true
			}
		}
	}
	return false
}

// matchReset covers "set description to none" and friends.
func matchReset(text, syn string) bool {
	for _, verb := range resetVerbs {
		for _, target := range resetTargets {
			if strings.Contains(text, verb+" "+syn+" to "+target) {
				return true
			}
		}
		if strings.Contains(text, verb+" the "+syn+" to none") ||
			strings.Contains(text, verb+" the "+syn+" to null") {
			return true
		}
	}
	return false
}

// matchNegation covers boolean-only phrasings like "no parking",
// "without elevator", "there is no storage" and "lift not needed".
func matchNegation(text, syn string) bool {
	for _, neg := range negationWords {
		if strings.Contains(text, neg+" "+syn) {
			return true
		}
	}
	patterns := []string{
		"there is no " + syn,
		syn + " is not needed",
		syn + " not needed",
	}
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
