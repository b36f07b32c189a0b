package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
	"github.com/BTreeMap/EstatePipe/internal/whatsapp"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// voiceRecognizedPrefix is echoed back to the user so they can see what
// the transcriber made of their voice note.
const voiceRecognizedPrefix = "🎤 Voice message recognized:\n"

// voiceFailedMsg is sent when a voice note cannot be transcribed.
const voiceFailedMsg = "🎤 Sorry, I couldn't understand that voice message. Please try again or type it out."

// WhatsAppService implements Service using the Whatsmeow-based whatsapp client.
type WhatsAppService struct {
	client      whatsapp.WhatsAppSender
	waClient    *whatsapp.Client // Access to underlying client for event handling
	transcriber Transcriber      // optional, enables voice note handling
	receipts    chan models.Receipt
	utterances  chan models.Utterance
	done        chan struct{}
	mu          sync.RWMutex
	stopped     bool
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given
// WhatsAppSender. When transcriber is non-nil, inbound voice notes are
// downloaded, transcribed, and forwarded as voice-modality utterances;
// otherwise they are ignored.
func NewWhatsAppService(client whatsapp.WhatsAppSender, transcriber Transcriber) *WhatsAppService {
	service := &WhatsAppService{
		client:      client,
		transcriber: transcriber,
		receipts:    make(chan models.Receipt, DefaultChannelBufferSize),
		utterances:  make(chan models.Utterance, DefaultChannelBufferSize),
		done:        make(chan struct{}),
	}

	// If the client is a full Client (not just an interface), store it for event handling
	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsAppService created with full client for event handling")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}

	return service
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp
// phone number by removing all non-numeric characters.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizePhone(recipient)
	if err != nil {
		return "", err
	}
	if recipient != canonical {
		slog.Debug("WhatsAppService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start begins background processing (e.g., event polling).
func (s *WhatsAppService) Start(ctx context.Context) error {
	slog.Debug("WhatsAppService Start invoked")

	if s.waClient != nil {
		slog.Debug("WhatsAppService starting event handler")
		go s.handleEvents(ctx)
	} else {
		slog.Debug("WhatsAppService no full client available, skipping event handling (likely mock)")
	}

	return nil
}

// Stop stops background processing. The channels close after a short
// grace period so a late event handler that passed the stopped check
// can still complete its emit.
func (s *WhatsAppService) Stop() error {
	slog.Info("WhatsAppService Stop invoked")
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.receipts)
		close(s.utterances)
		slog.Info("WhatsAppService stopped and channels closed")
	}()

	return nil
}

// SendMessage sends a message and emits a sent receipt.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	slog.Debug("WhatsAppService SendMessage invoked", "to", to, "body_length", len(body))
	err := s.client.SendMessage(ctx, to, body)
	if err != nil {
		slog.Error("WhatsAppService SendMessage error", "error", err, "to", to)
		return err
	}
	s.safeEmitReceipt(models.Receipt{To: to, Status: models.StatusSent, Time: time.Now().Unix()})
	slog.Info("WhatsAppService message sent", "to", to)
	return nil
}

// Receipts returns a channel of receipt events.
func (s *WhatsAppService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Utterances returns a channel of incoming user utterances.
func (s *WhatsAppService) Utterances() <-chan models.Utterance {
	return s.utterances
}

// handleEvents processes WhatsApp events and feeds them into the appropriate channels
func (s *WhatsAppService) handleEvents(ctx context.Context) {
	slog.Debug("WhatsAppService handleEvents starting")

	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Error("WhatsAppService handleEvents: no client available")
		return
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			s.handleIncomingMessage(ctx, v)
		case *events.Receipt:
			s.handleMessageReceipt(v)
		default:
			// Ignore other event types
			slog.Debug("WhatsAppService ignoring event type", "type", getEventType(v))
		}
	})

	slog.Debug("WhatsAppService event handler registered")

	// Keep handler running until context is cancelled
	<-ctx.Done()
	slog.Debug("WhatsAppService handleEvents stopping due to context cancellation")
}

// handleIncomingMessage processes incoming text and voice messages from users
func (s *WhatsAppService) handleIncomingMessage(ctx context.Context, evt *events.Message) {
	if evt.Message == nil {
		return
	}

	fromNumber := jidToPhone(evt.Info.Sender.User)
	modality := models.ModalityText

	// Extract text content
	var messageText string
	if evt.Message.Conversation != nil {
		messageText = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		messageText = *evt.Message.ExtendedTextMessage.Text
	} else if audio := evt.Message.GetAudioMessage(); audio != nil {
		text, err := s.transcribeVoiceNote(ctx, audio)
		if err != nil {
			slog.Error("WhatsAppService voice note handling failed", "error", err, "from", fromNumber)
			if sendErr := s.client.SendMessage(ctx, fromNumber, voiceFailedMsg); sendErr != nil {
				slog.Warn("WhatsAppService failed to send voice failure notice", "error", sendErr, "from", fromNumber)
			}
			return
		}
		messageText = text
		modality = models.ModalityVoice

		// Echo the transcription so the user can correct it
		if err := s.client.SendMessage(ctx, fromNumber, voiceRecognizedPrefix+text); err != nil {
			slog.Warn("WhatsAppService failed to echo transcription", "error", err, "from", fromNumber)
		}
	} else {
		// Skip unsupported message types (images, documents, etc.)
		slog.Debug("WhatsAppService ignoring unsupported message type", "from", evt.Info.Sender.String())
		return
	}

	utterance := models.Utterance{
		UserID:   fromNumber,
		Text:     messageText,
		Modality: modality,
		Time:     evt.Info.Timestamp.Unix(),
	}

	slog.Debug("WhatsAppService processing incoming message", "from", utterance.UserID, "modality", utterance.Modality, "body_length", len(utterance.Text))

	s.safeEmitUtterance(utterance)
}

// safeEmitUtterance drops the utterance when the service has stopped,
// so a late event handler never writes to a closed channel.
func (s *WhatsAppService) safeEmitUtterance(utterance models.Utterance) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("WhatsAppService dropping inbound message (service stopped)", "from", utterance.UserID)
		return
	}

	select {
	case s.utterances <- utterance:
		slog.Info("WhatsAppService incoming message forwarded", "from", utterance.UserID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService utterances channel blocked, dropping message", "from", utterance.UserID, "timeout", DefaultChannelTimeout)
	}
}

func (s *WhatsAppService) safeEmitReceipt(receipt models.Receipt) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case s.receipts <- receipt:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService receipts channel blocked, dropping receipt", "to", receipt.To, "timeout", DefaultChannelTimeout)
	}
}

// transcribeVoiceNote downloads a voice note, stages it in a temp file,
// and runs it through the configured transcriber.
func (s *WhatsAppService) transcribeVoiceNote(ctx context.Context, audio *waE2E.AudioMessage) (string, error) {
	if s.transcriber == nil {
		return "", fmt.Errorf("no transcriber configured")
	}
	if s.waClient == nil {
		return "", fmt.Errorf("no full client available for media download")
	}

	data, err := s.waClient.DownloadAudio(ctx, audio)
	if err != nil {
		return "", err
	}

	// The transcription API infers the audio format from the file name,
	// so stage the bytes in an .ogg temp file rather than a bare reader.
	f, err := os.CreateTemp("", "estatepipe-voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for voice note: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write voice note to temp file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to rewind voice note temp file: %w", err)
	}

	text, err := s.transcriber.Transcribe(ctx, f)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe voice note: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("transcription produced no text")
	}
	return text, nil
}

// handleMessageReceipt processes delivery and read receipts
func (s *WhatsAppService) handleMessageReceipt(evt *events.Receipt) {
	toNumber := jidToPhone(evt.MessageSource.Sender.User)

	var status models.StatusType
	switch evt.Type {
	case events.ReceiptTypeDelivered:
		status = models.StatusDelivered
	case events.ReceiptTypeRead:
		status = models.StatusRead
	case events.ReceiptTypeReadSelf:
		// Skip self-read receipts
		return
	default:
		slog.Debug("WhatsAppService ignoring receipt type", "type", evt.Type, "to", toNumber)
		return
	}

	receipt := models.Receipt{
		To:     toNumber,
		Status: status,
		Time:   evt.Timestamp.Unix(),
	}

	slog.Debug("WhatsAppService processing receipt", "to", receipt.To, "status", receipt.Status)

	s.safeEmitReceipt(receipt)
}

// jidToPhone converts a WhatsApp JID user part to E.164 format.
func jidToPhone(user string) string {
	if !strings.HasPrefix(user, "+") {
		return "+" + user
	}
	return user
}

// getEventType returns a string representation of the event type for logging
func getEventType(evt interface{}) string {
	switch evt.(type) {
	case *events.Message:
		return "Message"
	case *events.Receipt:
		return "Receipt"
	case *events.Presence:
		return "Presence"
	case *events.Connected:
		return "Connected"
	case *events.Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}
