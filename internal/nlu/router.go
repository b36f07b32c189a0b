package nlu

import (
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// goalKeywords maps each goal to its trigger phrases. Order matters:
// earlier goals win when a message matches more than one, so "list
// property" routes to register before the bare "list" of the list
// goal can claim it.
var goalKeywords = []struct {
	goal  models.Goal
	words []string
}{
	{models.GoalRegister, []string{"register", "add", "create", "new property", "list property", "post"}},
	{models.GoalSearch, []string{"search", "find", "look for", "looking for", "want to find"}},
	{models.GoalFilter, []string{"filter", "keyword", "contains"}},
	{models.GoalEdit, []string{"edit", "update", "modify", "change"}},
	{models.GoalList, []string{"list", "show my", "my properties", "view my"}},
}

// RouteGoal maps free text to a goal by case-insensitive substring
// match against the keyword table. GoalNone means nothing matched.
func RouteGoal(text string) models.Goal {
	lower := strings.ToLower(text)
	for _, entry := range goalKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.goal
			}
		}
	}
	return models.GoalNone
}

var (
	affirmativeWords = []string{"confirm", "yes", "submit", "ok", "correct", "save"}
	negativeWords    = []string{"cancel", "no", "abort", "stop"}
)

// Decision is the outcome of parsing a confirmation-step message.
type Decision int

const (
	DecisionUnknown Decision = iota
	DecisionConfirm
	DecisionCancel
)

// ParseConfirmation classifies a message at the confirmation step.
// Affirmative words are checked before negative ones, so "yes, no
// parking" confirms.
func ParseConfirmation(text string) Decision {
	lower := strings.ToLower(text)
	for _, w := range affirmativeWords {
		if strings.Contains(lower, w) {
			return DecisionConfirm
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			return DecisionCancel
		}
	}
	return DecisionUnknown
}

// showAllPhrases trigger the "list everything I own" branch while
// narrowing listings for editing.
var showAllPhrases = []string{
	"show all properties",
	"show all",
	"list all properties",
	"see all properties",
	"display all properties",
}

// WantsShowAll reports whether the message asks for every owned
// listing instead of a filtered subset.
func WantsShowAll(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range showAllPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
