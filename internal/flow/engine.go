// Package flow implements the conversation engine: a per-user state
// machine that routes goals, accumulates extracted listing fields
// across messages, and drives the register, search, filter and edit
// flows against the listing store.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
	"github.com/BTreeMap/EstatePipe/internal/nlu"
	"github.com/BTreeMap/EstatePipe/internal/session"
	"github.com/BTreeMap/EstatePipe/internal/store"
)

// DefaultResultLimit caps how many listing cards a single reply may
// contain.
const DefaultResultLimit = 10

// Extractor is the AI surface the engine depends on.
type Extractor interface {
	// ExtractListingFields returns listing attributes found in text,
	// or nil when nothing usable was extracted.
	ExtractListingFields(ctx context.Context, text string) (models.Fields, error)
	// ExtractSearchFilters returns search criteria found in text; the
	// map is never nil.
	ExtractSearchFilters(ctx context.Context, text string) (models.Filters, error)
}

// Engine drives conversations. All persistence errors are converted
// into chat replies; HandleUtterance never fails.
type Engine struct {
	sessions    *session.Manager
	store       store.ListingStore
	extractor   Extractor
	resultLimit int
}

// NewEngine wires the engine to its session manager, listing store
// and extractor.
func NewEngine(sessions *session.Manager, st store.ListingStore, extractor Extractor) *Engine {
	return &Engine{
		sessions:    sessions,
		store:       st,
		extractor:   extractor,
		resultLimit: DefaultResultLimit,
	}
}

// HandleUtterance processes one inbound message and returns the
// reply. Handling for the same user is serialized by the session
// manager; the session is mutated only inside that critical section.
func (e *Engine) HandleUtterance(ctx context.Context, ut models.Utterance) models.Reply {
	slog.Debug("flow.HandleUtterance: processing", "user", ut.UserID, "modality", ut.Modality, "textLength", len(ut.Text))

	var reply models.Reply
	e.sessions.With(ut.UserID, func(s *session.Session) {
		reply = e.dispatch(ctx, s, ut)
		slog.Debug("flow.HandleUtterance: handled", "user", ut.UserID, "state", s.State, "messages", len(reply.Messages))
	})
	return reply
}

func (e *Engine) dispatch(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	switch strings.ToLower(strings.TrimSpace(ut.Text)) {
	case "/start":
		s.Reset()
		return models.Reply{Messages: []string{welcomeMsg}, Choices: goalMenu()}
	case "/help":
		return models.Reply{Messages: []string{helpMsg}}
	case "/cancel":
		s.Reset()
		return models.Reply{Messages: []string{cancelMsg}, Choices: goalMenu()}
	}

	switch s.State {
	case models.StateAwaitingGoal:
		return e.handleGoalSelection(ctx, s, ut)
	case models.StateRegistering:
		return e.handleRegistering(ctx, s, ut)
	case models.StateConfirming:
		return e.handleConfirming(ctx, s, ut)
	case models.StateSearching:
		return e.handleSearching(ctx, s, ut)
	case models.StateFiltering:
		return e.handleFiltering(ctx, s, ut)
	case models.StateEditFiltering, models.StateEditSelecting:
		return e.handleEditNarrowing(ctx, s, ut)
	case models.StateEditing:
		return e.handleEditing(ctx, s, ut)
	default:
		slog.Error("flow.dispatch: unknown state, resetting session", "state", s.State)
		s.Reset()
		return models.Reply{Messages: []string{selectGoalMsg}, Choices: goalMenu()}
	}
}

func (e *Engine) handleGoalSelection(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	text := ut.Text
	// A bare number picks the corresponding menu entry.
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		if menu := goalMenu(); n >= 1 && n <= len(menu) {
			text = menu[n-1].Value
		}
	}

	goal := nlu.RouteGoal(text)
	slog.Debug("flow.handleGoalSelection: routed", "user", ut.UserID, "goal", goal)

	switch goal {
	case models.GoalRegister:
		s.BeginGoal(models.GoalRegister, models.StateRegistering)
		return models.Reply{Messages: []string{registerStartMsg}}
	case models.GoalSearch:
		s.BeginGoal(models.GoalSearch, models.StateSearching)
		return models.Reply{Messages: []string{searchStartMsg}}
	case models.GoalFilter:
		s.BeginGoal(models.GoalFilter, models.StateFiltering)
		return models.Reply{Messages: []string{filterStartMsg}}
	case models.GoalEdit:
		s.BeginGoal(models.GoalEdit, models.StateEditFiltering)
		return models.Reply{Messages: []string{editStartMsg}}
	case models.GoalList:
		return e.listOwnListings(ctx, ut.UserID)
	default:
		return models.Reply{Messages: []string{selectGoalMsg}, Choices: goalMenu()}
	}
}

// listOwnListings shows the user's listings and keeps the session at
// goal selection.
func (e *Engine) listOwnListings(ctx context.Context, userID string) models.Reply {
	owned, err := e.store.ListByOwner(ctx, userID)
	if err != nil {
		slog.Error("flow.listOwnListings: store failed", "error", err, "user", userID)
		return models.Reply{Messages: []string{genericErrorMsg}, Choices: goalMenu()}
	}
	if len(owned) == 0 {
		return models.Reply{Messages: []string{noOwnedListingsMsg}, Choices: goalMenu()}
	}

	msgs := []string{fmt.Sprintf("📋 You have %d properties:", len(owned))}
	for _, l := range owned {
		msgs = append(msgs, RenderListing(l))
	}
	msgs = append(msgs, nextPromptMsg)
	return models.Reply{Messages: msgs, Choices: goalMenu()}
}

func (e *Engine) handleRegistering(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	fields, err := e.extractor.ExtractListingFields(ctx, extractionInput(s.History, ut.Text))
	s.History = append(s.History, ut.Text)
	if err != nil {
		slog.Error("flow.handleRegistering: extraction failed", "error", err, "user", ut.UserID)
		fields = nil
	}
	if deletions := nlu.DetectDeletions(ut.Text); len(deletions) > 0 {
		fields = nlu.ApplyDeletions(fields, deletions)
	}
	if len(fields) == 0 {
		return models.Reply{Messages: []string{cantUnderstandListingMsg}}
	}

	s.Fields = nlu.Merge(s.Fields, fields)

	if missing := nlu.Validate(s.Fields); len(missing) > 0 {
		msg := fmt.Sprintf(
			"⚠️ Some information is missing:\n\n%s\n\nPlease provide the missing details. I've already saved:\n%s",
			FormatMissing(missing), FormatSummary(s.Fields))
		return models.Reply{Messages: []string{msg}}
	}

	s.State = models.StateConfirming
	return models.Reply{Messages: []string{confirmationMessage(s.Fields)}}
}

// extractionInput prepends the prior messages of the active flow so
// the extractor can resolve references like "same city as before".
func extractionInput(history []string, current string) string {
	if len(history) == 0 {
		return current
	}
	var b strings.Builder
	b.WriteString("Earlier messages in this conversation:\n")
	for _, h := range history {
		b.WriteString("- ")
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString("\nLatest message:\n")
	b.WriteString(current)
	return b.String()
}

func confirmationMessage(fields models.Fields) string {
	return fmt.Sprintf(`✅ Here's the information I have collected:

%s

Would you like to:
• Confirm and submit - Type "confirm" or "yes"
• Add/Edit information - Just tell me what to change
• Cancel - Type "cancel" or /cancel`, FormatSummary(fields))
}

func (e *Engine) handleConfirming(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	switch nlu.ParseConfirmation(ut.Text) {
	case nlu.DecisionConfirm:
		return e.finalizeRegistration(ctx, s, ut.UserID)
	case nlu.DecisionCancel:
		s.Reset()
		return models.Reply{Messages: []string{cancelMsg}, Choices: goalMenu()}
	}

	// Anything else is treated as a correction: extract, merge, and
	// show the updated summary.
	fields, err := e.extractor.ExtractListingFields(ctx, extractionInput(s.History, ut.Text))
	s.History = append(s.History, ut.Text)
	if err != nil {
		slog.Error("flow.handleConfirming: extraction failed", "error", err, "user", ut.UserID)
		fields = nil
	}
	if deletions := nlu.DetectDeletions(ut.Text); len(deletions) > 0 {
		fields = nlu.ApplyDeletions(fields, deletions)
	}
	if len(fields) == 0 {
		return models.Reply{Messages: []string{cantUnderstandUpdateMsg}}
	}

	s.Fields = nlu.Merge(s.Fields, fields)
	return models.Reply{Messages: []string{confirmationMessage(s.Fields)}}
}

// finalizeRegistration persists the accumulated fields. On failure
// the session is kept so the user can retry with "confirm".
func (e *Engine) finalizeRegistration(ctx context.Context, s *session.Session, userID string) models.Reply {
	id, err := e.store.Create(ctx, userID, s.Fields)
	if err != nil {
		slog.Error("flow.finalizeRegistration: create failed", "error", err, "user", userID)
		return models.Reply{Messages: []string{saveFailedMsg}}
	}

	details := ""
	if saved, err := e.store.Get(ctx, id); err == nil && saved != nil {
		details = RenderListing(*saved)
	}
	s.Reset()

	msg := "✅ Your property has been successfully registered!"
	if details != "" {
		msg += "\n\n" + details
	}
	return models.Reply{Messages: []string{msg, nextPromptMsg}, Choices: goalMenu()}
}

func (e *Engine) handleSearching(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	filters, err := e.extractor.ExtractSearchFilters(ctx, ut.Text)
	if err != nil {
		slog.Error("flow.handleSearching: extraction failed", "error", err, "user", ut.UserID)
	}
	s.Filters = nlu.MergeFilters(s.Filters, filters)

	results, err := e.store.Search(ctx, s.Filters, "")
	if err != nil {
		slog.Error("flow.handleSearching: search failed", "error", err, "user", ut.UserID)
		s.EndFlow()
		return models.Reply{Messages: []string{genericErrorMsg, nextPromptMsg}, Choices: goalMenu()}
	}
	if len(results) == 0 {
		s.EndFlow()
		return models.Reply{Messages: []string{noSearchResultsMsg, nextPromptMsg}, Choices: goalMenu()}
	}

	msgs := []string{fmt.Sprintf("✅ Found %d properties!", len(results))}
	msgs = append(msgs, e.renderCards(results)...)
	if len(results) > e.resultLimit {
		msgs = append(msgs, fmt.Sprintf("📌 %d more properties found.\nPlease refine your search to see more specific results.", len(results)-e.resultLimit))
	}
	msgs = append(msgs, searchCompleteMsg)
	s.EndFlow()
	return models.Reply{Messages: msgs, Choices: goalMenu()}
}

func (e *Engine) handleFiltering(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	results, err := e.store.KeywordFilter(ctx, ut.Text)
	if err != nil {
		slog.Error("flow.handleFiltering: keyword filter failed", "error", err, "user", ut.UserID)
		s.EndFlow()
		return models.Reply{Messages: []string{genericErrorMsg, nextPromptMsg}, Choices: goalMenu()}
	}

	var msgs []string
	if len(results) == 0 {
		msgs = append(msgs, fmt.Sprintf("😔 No properties found with keywords: '%s'\n\nTry different keywords or start a new search.", ut.Text))
	} else {
		msgs = append(msgs, fmt.Sprintf("✅ Found %d properties matching your keywords!", len(results)))
		msgs = append(msgs, e.renderCards(results)...)
	}
	msgs = append(msgs, nextPromptMsg)
	s.EndFlow()
	return models.Reply{Messages: msgs, Choices: goalMenu()}
}

// listingSelectionRe accepts a bare ID, optionally prefixed with a
// selection verb or '#'.
var listingSelectionRe = regexp.MustCompile(`^(?:edit|select|pick|choose)?\s*#?(\d+)$`)

func parseListingSelection(text string) (int64, bool) {
	m := listingSelectionRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// handleEditNarrowing serves both edit_filtering and edit_selecting:
// a numeric reply selects a candidate, "show all properties" lists
// everything owned, anything else narrows by extracted filters.
func (e *Engine) handleEditNarrowing(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	if s.State == models.StateEditSelecting {
		if id, ok := parseListingSelection(ut.Text); ok {
			return e.selectListing(ctx, s, ut.UserID, id)
		}
	}

	if nlu.WantsShowAll(ut.Text) {
		owned, err := e.store.ListByOwner(ctx, ut.UserID)
		if err != nil {
			slog.Error("flow.handleEditNarrowing: list failed", "error", err, "user", ut.UserID)
			s.EndFlow()
			return models.Reply{Messages: []string{genericErrorMsg, nextPromptMsg}, Choices: goalMenu()}
		}
		if len(owned) == 0 {
			s.EndFlow()
			return models.Reply{Messages: []string{noOwnedForEditMsg, nextPromptMsg}, Choices: goalMenu()}
		}
		return e.presentEditCandidates(s, owned, editAllListedMsg)
	}

	filters, err := e.extractor.ExtractSearchFilters(ctx, ut.Text)
	if err != nil {
		slog.Error("flow.handleEditNarrowing: extraction failed", "error", err, "user", ut.UserID)
	}
	if len(filters) == 0 {
		return models.Reply{Messages: []string{editNeedFiltersMsg}}
	}

	matches, err := e.store.Search(ctx, filters, ut.UserID)
	if err != nil {
		slog.Error("flow.handleEditNarrowing: search failed", "error", err, "user", ut.UserID)
		return models.Reply{Messages: []string{genericErrorMsg}}
	}
	if len(matches) == 0 {
		return models.Reply{Messages: []string{editNoMatchesMsg}}
	}
	header := fmt.Sprintf("✅ I found %d properties that match your description. Pick one below to start editing:", len(matches))
	return e.presentEditCandidates(s, matches, header)
}

// presentEditCandidates records the candidate set and moves to
// selection. A single candidate is selected immediately.
func (e *Engine) presentEditCandidates(s *session.Session, listings []models.Listing, header string) models.Reply {
	ids := make([]int64, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	s.CandidateIDs = ids

	if len(listings) == 1 {
		s.SelectedID = listings[0].ID
		s.State = models.StateEditing
		return models.Reply{Messages: []string{RenderListing(listings[0]), editChangePromptMsg}}
	}

	s.State = models.StateEditSelecting
	msgs := []string{header}
	msgs = append(msgs, e.renderCards(listings)...)
	if len(listings) > e.resultLimit {
		msgs = append(msgs, fmt.Sprintf("📌 %d additional properties are available. Refine your filters to narrow the list.", len(listings)-e.resultLimit))
	}
	msgs = append(msgs, editSelectPromptMsg)
	return models.Reply{Messages: msgs}
}

func (e *Engine) selectListing(ctx context.Context, s *session.Session, userID string, id int64) models.Reply {
	if len(s.CandidateIDs) > 0 && !containsID(s.CandidateIDs, id) {
		return models.Reply{Messages: []string{editStaleSelectionMsg}}
	}

	l, err := e.store.Get(ctx, id)
	if err != nil {
		slog.Error("flow.selectListing: get failed", "error", err, "id", id)
		return models.Reply{Messages: []string{genericErrorMsg}}
	}
	if l == nil || l.OwnerID != userID {
		return models.Reply{Messages: []string{editNotYoursMsg}}
	}

	s.SelectedID = id
	s.State = models.StateEditing
	return models.Reply{Messages: []string{RenderListing(*l), editChangePromptMsg}}
}

func (e *Engine) handleEditing(ctx context.Context, s *session.Session, ut models.Utterance) models.Reply {
	if s.SelectedID == 0 {
		return models.Reply{Messages: []string{editSelectFirstMsg}}
	}

	updates, err := e.extractor.ExtractListingFields(ctx, ut.Text)
	if err != nil {
		slog.Error("flow.handleEditing: extraction failed", "error", err, "user", ut.UserID)
		updates = nil
	}
	if deletions := nlu.DetectDeletions(ut.Text); len(deletions) > 0 {
		updates = nlu.ApplyDeletions(updates, deletions)
	}
	if len(updates) == 0 {
		return models.Reply{Messages: []string{cantUnderstandEditMsg}}
	}

	id := s.SelectedID
	found, err := e.store.Update(ctx, id, updates)
	s.EndFlow()
	if err != nil || !found {
		if err != nil {
			slog.Error("flow.handleEditing: update failed", "error", err, "id", id)
		}
		return models.Reply{Messages: []string{editUpdateFailedMsg, nextPromptMsg}, Choices: goalMenu()}
	}

	msg := "✅ Property updated successfully!"
	if updated, err := e.store.Get(ctx, id); err == nil && updated != nil {
		msg += "\n\n" + RenderListing(*updated)
	}
	return models.Reply{Messages: []string{msg, nextPromptMsg}, Choices: goalMenu()}
}

func (e *Engine) renderCards(listings []models.Listing) []string {
	n := len(listings)
	if n > e.resultLimit {
		n = e.resultLimit
	}
	cards := make([]string, 0, n)
	for _, l := range listings[:n] {
		cards = append(cards, RenderListing(l))
	}
	return cards
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
