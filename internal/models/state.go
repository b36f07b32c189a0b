package models

// State is the conversation state of a single user. Transitions are
// driven exclusively by the flow engine.
type State string

const (
	StateAwaitingGoal  State = "awaiting_goal"
	StateRegistering   State = "registering"
	StateConfirming    State = "confirming"
	StateSearching     State = "searching"
	StateFiltering     State = "filtering"
	StateEditFiltering State = "edit_filtering"
	StateEditSelecting State = "edit_selecting"
	StateEditing       State = "editing"
)

// Goal is the user intent recognized while awaiting a goal.
type Goal string

const (
	GoalNone     Goal = ""
	GoalRegister Goal = "register"
	GoalSearch   Goal = "search"
	GoalFilter   Goal = "filter"
	GoalEdit     Goal = "edit"
	GoalList     Goal = "list"
)
