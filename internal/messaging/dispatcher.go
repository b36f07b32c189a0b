package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// processingErrorMsg is sent when the engine panics or a reply cannot be
// produced for an inbound utterance.
const processingErrorMsg = "⚠️ We encountered an issue processing your message. Please try again."

// ConversationEngine produces a reply for each inbound utterance. It is
// satisfied by flow.Engine.
type ConversationEngine interface {
	HandleUtterance(ctx context.Context, utterance models.Utterance) models.Reply
}

// Dispatcher connects a messaging service to the conversation engine: it
// consumes inbound utterances, hands them to the engine, and delivers the
// resulting reply messages back to the sender.
type Dispatcher struct {
	msgService Service
	engine     ConversationEngine
}

// NewDispatcher creates a new Dispatcher with the given messaging service and engine.
func NewDispatcher(msgService Service, engine ConversationEngine) *Dispatcher {
	return &Dispatcher{
		msgService: msgService,
		engine:     engine,
	}
}

// Start begins processing utterances from the messaging service.
// This should be called once to start the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("Dispatcher starting utterance processing")

	go func() {
		defer slog.Info("Dispatcher stopped utterance processing")

		for {
			select {
			case utterance, ok := <-d.msgService.Utterances():
				if !ok {
					slog.Debug("Dispatcher utterances channel closed")
					return
				}

				if err := d.ProcessUtterance(ctx, utterance); err != nil {
					slog.Error("Dispatcher failed to process utterance", "error", err, "from", utterance.UserID)
				}

			case <-ctx.Done():
				slog.Debug("Dispatcher stopping due to context cancellation")
				return
			}
		}
	}()

	slog.Info("Dispatcher utterance processing started")
}

// ProcessUtterance runs a single utterance through the engine and sends
// the reply back to the sender.
func (d *Dispatcher) ProcessUtterance(ctx context.Context, utterance models.Utterance) error {
	canonicalFrom, err := d.msgService.ValidateAndCanonicalizeRecipient(utterance.UserID)
	if err != nil {
		slog.Error("Dispatcher sender validation failed", "error", err, "from", utterance.UserID)
		return fmt.Errorf("invalid sender: %w", err)
	}
	utterance.UserID = canonicalFrom

	slog.Debug("Dispatcher processing utterance", "from", canonicalFrom, "modality", utterance.Modality, "body_length", len(utterance.Text))

	reply, err := d.safeHandle(ctx, utterance)
	if err != nil {
		if sendErr := d.msgService.SendMessage(ctx, canonicalFrom, processingErrorMsg); sendErr != nil {
			slog.Error("Dispatcher failed to send error message", "error", sendErr, "from", canonicalFrom)
		}
		return err
	}

	if err := d.deliver(ctx, canonicalFrom, reply); err != nil {
		return fmt.Errorf("failed to deliver reply: %w", err)
	}

	slog.Info("Dispatcher utterance handled", "from", canonicalFrom, "messages", len(reply.Messages))
	return nil
}

// safeHandle invokes the engine with panic recovery so a single bad
// utterance cannot take down the dispatch loop.
func (d *Dispatcher) safeHandle(ctx context.Context, utterance models.Utterance) (reply models.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Dispatcher recovered from engine panic", "panic", r, "from", utterance.UserID)
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return d.engine.HandleUtterance(ctx, utterance), nil
}

// deliver sends the reply messages in order. Choices, when present, are
// rendered as a numbered menu appended to the last message.
func (d *Dispatcher) deliver(ctx context.Context, to string, reply models.Reply) error {
	messages := reply.Messages
	if len(messages) == 0 && len(reply.Choices) == 0 {
		slog.Debug("Dispatcher nothing to deliver", "to", to)
		return nil
	}

	menu := renderChoices(reply.Choices)
	if menu != "" {
		if len(messages) == 0 {
			messages = []string{menu}
		} else {
			last := len(messages) - 1
			messages = append(append([]string{}, messages[:last]...), messages[last]+"\n\n"+menu)
		}
	}

	for _, msg := range messages {
		if err := d.msgService.SendMessage(ctx, to, msg); err != nil {
			slog.Error("Dispatcher failed to send reply message", "error", err, "to", to)
			return err
		}
	}
	return nil
}

// renderChoices formats menu choices as a numbered list.
func renderChoices(choices []models.Choice) string {
	if len(choices) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range choices {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, c.Label)
	}
	return b.String()
}
