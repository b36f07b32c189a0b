// Package testutil provides common test utilities and helpers for
// EstatePipe tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/BTreeMap/EstatePipe/internal/models"
	"github.com/BTreeMap/EstatePipe/internal/store"
)

// ScriptedExtractor is a fake AI extractor that returns queued
// results in order. When the queue is exhausted it returns empty
// results, mimicking a model that found nothing.
type ScriptedExtractor struct {
	mu      sync.Mutex
	fields  []models.Fields
	filters []models.Filters
	err     error

	// Texts records every input the extractor saw, for assertions.
	Texts []string
}

// NewScriptedExtractor creates an empty extractor; queue results with
// QueueFields and QueueFilters.
func NewScriptedExtractor() *ScriptedExtractor {
	return &ScriptedExtractor{}
}

// QueueFields adds a listing-extraction result to the queue.
func (s *ScriptedExtractor) QueueFields(f models.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, f)
}

// QueueFilters adds a filter-extraction result to the queue.
func (s *ScriptedExtractor) QueueFilters(f models.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
}

// Fail makes every subsequent call return err.
func (s *ScriptedExtractor) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *ScriptedExtractor) ExtractListingFields(ctx context.Context, text string) (models.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Texts = append(s.Texts, text)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.fields) == 0 {
		return nil, nil
	}
	next := s.fields[0]
	s.fields = s.fields[1:]
	return next, nil
}

func (s *ScriptedExtractor) ExtractSearchFilters(ctx context.Context, text string) (models.Filters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Texts = append(s.Texts, text)
	if s.err != nil {
		return models.Filters{}, s.err
	}
	if len(s.filters) == 0 {
		return models.Filters{}, nil
	}
	next := s.filters[0]
	s.filters = s.filters[1:]
	return next, nil
}

// SeedListing inserts a listing with sensible defaults overlaid by
// fields, and returns its ID.
func SeedListing(t *testing.T, s store.ListingStore, ownerID string, fields models.Fields) int64 {
	t.Helper()
	base := models.Fields{
		models.FieldTitle:        "Test listing",
		models.FieldPropertyType: "Apartment",
		models.FieldCity:         "Boston",
		models.FieldArea:         100.0,
		models.FieldPrice:        500000.0,
	}
	for k, v := range fields {
		base[k] = v
	}
	id, err := s.Create(context.Background(), ownerID, base)
	if err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return id
}

// AssertHTTPStatus checks the HTTP status code and fails the test if
// it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response and validates the status
// field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}
	return response
}

// CreateHTTPRequest creates an HTTP request with an optional JSON
// body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}
