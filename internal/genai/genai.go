// Package genai wraps the OpenAI API for EstatePipe's two extraction
// tasks (listing fields from free text, search filters from a query)
// and for transcribing voice notes. Model output is treated as
// untrusted: responses are scanned for a JSON object and every value
// is coerced or dropped before anything reaches the flow engine.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// DefaultModel is used for extraction when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

// DefaultTranscriptionModel is used for voice notes when no model is
// configured.
const DefaultTranscriptionModel = openai.AudioModelWhisper1

// chatCompleter matches the slice of the OpenAI client we use for
// chat completions, so tests can substitute a fake.
type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// audioTranscriber matches the transcription slice of the client.
type audioTranscriber interface {
	New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// Opts holds configurable options for the client.
type Opts struct {
	APIKey             string
	Model              openai.ChatModel
	TranscriptionModel openai.AudioModel
}

// Option configures the client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the extraction model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = openai.ChatModel(model) }
}

// WithTranscriptionModel overrides the voice transcription model.
func WithTranscriptionModel(model string) Option {
	return func(o *Opts) { o.TranscriptionModel = openai.AudioModel(model) }
}

// Client performs extraction and transcription against OpenAI.
type Client struct {
	chat               chatCompleter
	audio              audioTranscriber
	model              openai.ChatModel
	transcriptionModel openai.AudioModel
}

// NewClient creates a client from the given options. An API key is
// required.
func NewClient(opts ...Option) (*Client, error) {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	if o.APIKey == "" {
		return nil, fmt.Errorf("genai: missing OpenAI API key")
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.TranscriptionModel == "" {
		o.TranscriptionModel = DefaultTranscriptionModel
	}

	api := openai.NewClient(option.WithAPIKey(o.APIKey))
	slog.Debug("genai.NewClient: client initialized", "model", o.Model, "transcriptionModel", o.TranscriptionModel)
	return &Client{
		chat:               &api.Chat.Completions,
		audio:              &api.Audio.Transcriptions,
		model:              o.Model,
		transcriptionModel: o.TranscriptionModel,
	}, nil
}

// jsonObjectRe grabs the outermost JSON object from a completion, so
// extraction survives models that wrap the object in prose or fences.
var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractListingFields asks the model for listing attributes found in
// text. It returns nil with a nil error when the response contains no
// usable JSON object; callers treat that as "nothing extracted".
func (c *Client) ExtractListingFields(ctx context.Context, text string) (models.Fields, error) {
	slog.Debug("genai.ExtractListingFields: starting", "textLength", len(text))

	raw, err := c.complete(ctx, listingExtractionPrompt, text)
	if err != nil {
		slog.Error("genai.ExtractListingFields: completion failed", "error", err)
		return nil, fmt.Errorf("failed to extract listing fields: %w", err)
	}
	obj := jsonObjectRe.FindString(raw)
	if obj == "" {
		slog.Debug("genai.ExtractListingFields: no JSON object in response")
		return nil, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		slog.Debug("genai.ExtractListingFields: response not valid JSON", "error", err)
		return nil, nil
	}
	fields := cleanListingFields(parsed)
	if len(fields) == 0 {
		return nil, nil
	}
	slog.Debug("genai.ExtractListingFields: extracted", "fieldCount", len(fields))
	return fields, nil
}

// ExtractSearchFilters asks the model to turn a search request into
// filter criteria. The returned map is never nil.
func (c *Client) ExtractSearchFilters(ctx context.Context, text string) (models.Filters, error) {
	slog.Debug("genai.ExtractSearchFilters: starting", "textLength", len(text))

	raw, err := c.complete(ctx, searchExtractionPrompt, text)
	if err != nil {
		slog.Error("genai.ExtractSearchFilters: completion failed", "error", err)
		return models.Filters{}, fmt.Errorf("failed to extract search filters: %w", err)
	}
	obj := jsonObjectRe.FindString(raw)
	if obj == "" {
		return models.Filters{}, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return models.Filters{}, nil
	}
	filters := cleanSearchFilters(parsed)
	slog.Debug("genai.ExtractSearchFilters: extracted", "filterCount", len(filters))
	return filters, nil
}

// Transcribe converts a voice note into text.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	slog.Debug("genai.Transcribe: starting")

	resp, err := c.audio.New(ctx, openai.AudioTranscriptionNewParams{
		Model: c.transcriptionModel,
		File:  audio,
	})
	if err != nil {
		slog.Error("genai.Transcribe: transcription failed", "error", err)
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	slog.Debug("genai.Transcribe: completed", "textLength", len(text))
	return text, nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
