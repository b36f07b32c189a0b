package messaging

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// fakeService is an in-memory Service for dispatcher tests.
type fakeService struct {
	sent       []sentMessage
	utterances chan models.Utterance
	receipts   chan models.Receipt
}

func newFakeService() *fakeService {
	return &fakeService{
		utterances: make(chan models.Utterance, 10),
		receipts:   make(chan models.Receipt, 10),
	}
}

func (f *fakeService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

func (f *fakeService) SendMessage(ctx context.Context, to string, body string) error {
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return nil
}

func (f *fakeService) Start(ctx context.Context) error { return nil }
func (f *fakeService) Stop() error                     { return nil }

func (f *fakeService) Receipts() <-chan models.Receipt     { return f.receipts }
func (f *fakeService) Utterances() <-chan models.Utterance { return f.utterances }

// scriptedEngine returns a fixed reply, or panics when told to.
type scriptedEngine struct {
	mu       sync.Mutex
	reply    models.Reply
	panicMsg string
	seen     []models.Utterance
}

func (e *scriptedEngine) HandleUtterance(ctx context.Context, utterance models.Utterance) models.Reply {
	e.mu.Lock()
	e.seen = append(e.seen, utterance)
	e.mu.Unlock()
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	return e.reply
}

func (e *scriptedEngine) seenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seen)
}

func TestDispatcherDeliversReplyMessages(t *testing.T) {
	svc := newFakeService()
	engine := &scriptedEngine{reply: models.Reply{Messages: []string{"first", "second"}}}
	d := NewDispatcher(svc, engine)

	err := d.ProcessUtterance(context.Background(), models.Utterance{
		UserID: "+15551234567",
		Text:   "hello",
	})
	if err != nil {
		t.Fatalf("ProcessUtterance returned error: %v", err)
	}

	if len(engine.seen) != 1 {
		t.Fatalf("expected engine to see 1 utterance, got %d", len(engine.seen))
	}
	if engine.seen[0].UserID != "15551234567" {
		t.Errorf("expected canonicalized sender, got %q", engine.seen[0].UserID)
	}

	if len(svc.sent) != 2 {
		t.Fatalf("expected 2 sent messages, got %d", len(svc.sent))
	}
	if svc.sent[0].body != "first" || svc.sent[1].body != "second" {
		t.Errorf("messages delivered out of order: %+v", svc.sent)
	}
}

func TestDispatcherRendersChoicesAsMenu(t *testing.T) {
	svc := newFakeService()
	engine := &scriptedEngine{reply: models.Reply{
		Messages: []string{"What would you like to do?"},
		Choices: []models.Choice{
			{Label: "Register a property", Value: "register"},
			{Label: "Search properties", Value: "search"},
		},
	}}
	d := NewDispatcher(svc, engine)

	if err := d.ProcessUtterance(context.Background(), models.Utterance{UserID: "15551234567", Text: "hi"}); err != nil {
		t.Fatalf("ProcessUtterance returned error: %v", err)
	}

	if len(svc.sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(svc.sent))
	}
	body := svc.sent[0].body
	if !strings.Contains(body, "1. Register a property") {
		t.Errorf("expected numbered first choice in %q", body)
	}
	if !strings.Contains(body, "2. Search properties") {
		t.Errorf("expected numbered second choice in %q", body)
	}
}

func TestDispatcherRejectsInvalidSender(t *testing.T) {
	svc := newFakeService()
	engine := &scriptedEngine{reply: models.Reply{Messages: []string{"ok"}}}
	d := NewDispatcher(svc, engine)

	err := d.ProcessUtterance(context.Background(), models.Utterance{UserID: "???", Text: "hello"})
	if err == nil {
		t.Fatal("expected error for invalid sender")
	}
	if len(engine.seen) != 0 {
		t.Error("engine should not see utterances from invalid senders")
	}
}

func TestDispatcherRecoversFromEnginePanic(t *testing.T) {
	svc := newFakeService()
	engine := &scriptedEngine{panicMsg: "boom"}
	d := NewDispatcher(svc, engine)

	err := d.ProcessUtterance(context.Background(), models.Utterance{UserID: "15551234567", Text: "hello"})
	if err == nil {
		t.Fatal("expected error after engine panic")
	}

	if len(svc.sent) != 1 {
		t.Fatalf("expected error message to be sent, got %d messages", len(svc.sent))
	}
	if svc.sent[0].body != processingErrorMsg {
		t.Errorf("expected processing error message, got %q", svc.sent[0].body)
	}
}

func TestDispatcherStartConsumesChannel(t *testing.T) {
	svc := newFakeService()
	engine := &scriptedEngine{reply: models.Reply{Messages: []string{"reply"}}}
	d := NewDispatcher(svc, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	svc.utterances <- models.Utterance{UserID: "15551234567", Text: "hello"}

	deadline := time.After(2 * time.Second)
	for engine.seenCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("engine never received the utterance")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
