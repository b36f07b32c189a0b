package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

type fakeChat struct {
	content string
	err     error
	lastMsg openai.ChatCompletionNewParams
}

func (f *fakeChat) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.lastMsg = body
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

type fakeAudio struct {
	text string
	err  error
}

func (f *fakeAudio) New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &openai.Transcription{Text: f.text}, nil
}

func newTestClient(chat *fakeChat, audio *fakeAudio) *Client {
	return &Client{
		chat:               chat,
		audio:              audio,
		model:              DefaultModel,
		transcriptionModel: DefaultTranscriptionModel,
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("NewClient() without API key should fail")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("NewClient() with API key failed: %v", err)
	}
}

func TestExtractListingFields(t *testing.T) {
	chat := &fakeChat{content: `Here you go:
{"title": "Sunny loft", "city": "Boston", "area": "88.5", "price": 450000, "rooms": 2.0, "parking": "yes", "floor": null, "bogus": "x"}`}
	c := newTestClient(chat, nil)

	fields, err := c.ExtractListingFields(context.Background(), "sunny loft in boston")
	if err != nil {
		t.Fatalf("ExtractListingFields() error: %v", err)
	}

	if fields[models.FieldTitle] != "Sunny loft" {
		t.Errorf("title = %v", fields[models.FieldTitle])
	}
	if fields[models.FieldArea] != 88.5 {
		t.Errorf("area = %v, want coerced float 88.5", fields[models.FieldArea])
	}
	if fields[models.FieldPrice] != 450000.0 {
		t.Errorf("price = %v", fields[models.FieldPrice])
	}
	if fields[models.FieldRooms] != 2 {
		t.Errorf("rooms = %v, want coerced int 2", fields[models.FieldRooms])
	}
	if fields[models.FieldParking] != true {
		t.Errorf("parking = %v, want true from %q", fields[models.FieldParking], "yes")
	}
	if _, ok := fields[models.FieldFloor]; ok {
		t.Error("null floor should be dropped")
	}
	if _, ok := fields["bogus"]; ok {
		t.Error("unknown key should be dropped")
	}
}

func TestExtractListingFieldsNoJSON(t *testing.T) {
	c := newTestClient(&fakeChat{content: "I could not find any property details."}, nil)

	fields, err := c.ExtractListingFields(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields != nil {
		t.Errorf("fields = %v, want nil for prose-only response", fields)
	}
}

func TestExtractListingFieldsAPIError(t *testing.T) {
	c := newTestClient(&fakeChat{err: errors.New("rate limited")}, nil)

	if _, err := c.ExtractListingFields(context.Background(), "loft"); err == nil {
		t.Error("expected wrapped API error")
	}
}

func TestExtractSearchFilters(t *testing.T) {
	chat := &fakeChat{content: `{"city": "Boston", "min_price": "200000", "max_price": 500000, "rooms": 3, "parking": "required", "neighborhood": null}`}
	c := newTestClient(chat, nil)

	filters, err := c.ExtractSearchFilters(context.Background(), "3 bed in boston with parking under 500k")
	if err != nil {
		t.Fatalf("ExtractSearchFilters() error: %v", err)
	}

	if filters["city"] != "Boston" {
		t.Errorf("city = %v", filters["city"])
	}
	if filters["min_price"] != 200000.0 || filters["max_price"] != 500000.0 {
		t.Errorf("price range = %v / %v", filters["min_price"], filters["max_price"])
	}
	if filters["rooms"] != 3 {
		t.Errorf("rooms = %v", filters["rooms"])
	}
	if filters["parking"] != true {
		t.Errorf("parking = %v, want true from %q", filters["parking"], "required")
	}
	if _, ok := filters["neighborhood"]; ok {
		t.Error("null filter should be dropped")
	}
}

func TestExtractSearchFiltersNeverNil(t *testing.T) {
	c := newTestClient(&fakeChat{content: "no criteria found"}, nil)

	filters, err := c.ExtractSearchFilters(context.Background(), "hmm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters == nil {
		t.Fatal("filters must never be nil")
	}
	if len(filters) != 0 {
		t.Errorf("filters = %v, want empty", filters)
	}
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(nil, &fakeAudio{text: "  two bed apartment in Salem  "})

	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-ogg-bytes"))
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "two bed apartment in Salem" {
		t.Errorf("text = %q, want trimmed transcript", text)
	}
}

func TestTranscribeError(t *testing.T) {
	c := newTestClient(nil, &fakeAudio{err: errors.New("bad audio")})

	if _, err := c.Transcribe(context.Background(), strings.NewReader("x")); err == nil {
		t.Error("expected transcription error")
	}
}

func TestPromptsRequestJSONOnly(t *testing.T) {
	if !strings.Contains(listingExtractionPrompt, "JSON") || !strings.Contains(searchExtractionPrompt, "JSON") {
		t.Error("extraction prompts must demand JSON output")
	}
}
