package nlu

import (
	"testing"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

func TestRouteGoal(t *testing.T) {
	tests := []struct {
		text string
		want models.Goal
	}{
		{"I want to register a property", models.GoalRegister},
		{"add a new listing please", models.GoalRegister},
		{"list property", models.GoalRegister}, // register wins over list
		{"search for apartments", models.GoalSearch},
		{"I'm looking for a house", models.GoalSearch},
		{"filter by keyword", models.GoalFilter},
		{"edit my listing", models.GoalEdit},
		{"I need to change the price", models.GoalEdit},
		{"show my properties", models.GoalList},
		{"list", models.GoalList},
		{"hello there", models.GoalNone},
		{"", models.GoalNone},
		{"SEARCH", models.GoalSearch},
	}

	for _, tt := range tests {
		if got := RouteGoal(tt.text); got != tt.want {
			t.Errorf("RouteGoal(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		text string
		want Decision
	}{
		{"yes", DecisionConfirm},
		{"Confirm", DecisionConfirm},
		{"ok save it", DecisionConfirm},
		{"yes, no parking though", DecisionConfirm}, // affirmative checked first
		{"cancel", DecisionCancel},
		{"no", DecisionCancel},
		{"abort this", DecisionCancel},
		{"the price is 300k", DecisionUnknown},
		{"", DecisionUnknown},
	}

	for _, tt := range tests {
		if got := ParseConfirmation(tt.text); got != tt.want {
			t.Errorf("ParseConfirmation(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestWantsShowAll(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"show all properties", true},
		{"Show All", true},
		{"please display all properties", true},
		{"show the cheap ones", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := WantsShowAll(tt.text); got != tt.want {
			t.Errorf("WantsShowAll(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
