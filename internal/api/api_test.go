package api

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/EstatePipe/internal/models"
	"github.com/BTreeMap/EstatePipe/internal/session"
	"github.com/BTreeMap/EstatePipe/internal/store"
	"github.com/BTreeMap/EstatePipe/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewServer(st, session.NewManager(), nil), st
}

func TestHealthHandler(t *testing.T) {
	server, _ := newTestServer(t)

	req := testutil.CreateHTTPRequest(t, "GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.healthHandler(rr, req)

	testutil.AssertHTTPStatus(t, 200, rr.Code, "health")
	body := testutil.AssertJSONResponse(t, rr, "ok")
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", body["data"])
	}
	if data["status"] != "ok" {
		t.Errorf("expected status ok, got %v", data["status"])
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	req := testutil.CreateHTTPRequest(t, "POST", "/health", nil)
	rr := httptest.NewRecorder()
	server.healthHandler(rr, req)

	testutil.AssertHTTPStatus(t, 405, rr.Code, "health POST")
}

func TestStatsHandler(t *testing.T) {
	server, st := newTestServer(t)
	testutil.SeedListing(t, st, "owner-1", models.Fields{"price": 300000.0})
	testutil.SeedListing(t, st, "owner-2", models.Fields{"price": 500000.0})

	req := testutil.CreateHTTPRequest(t, "GET", "/stats", nil)
	rr := httptest.NewRecorder()
	server.statsHandler(rr, req)

	testutil.AssertHTTPStatus(t, 200, rr.Code, "stats")
	body := testutil.AssertJSONResponse(t, rr, "ok")
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", body["data"])
	}
	if total, _ := data["total"].(float64); total != 2 {
		t.Errorf("expected 2 total listings, got %v", data["total"])
	}
	if avg, _ := data["avg_price"].(float64); avg != 400000 {
		t.Errorf("expected avg price 400000, got %v", data["avg_price"])
	}
}

func TestListingsHandler(t *testing.T) {
	server, st := newTestServer(t)
	testutil.SeedListing(t, st, "owner-1", models.Fields{"title": "First"})
	testutil.SeedListing(t, st, "owner-2", models.Fields{"title": "Second"})

	req := testutil.CreateHTTPRequest(t, "GET", "/listings", nil)
	rr := httptest.NewRecorder()
	server.listingsHandler(rr, req)

	testutil.AssertHTTPStatus(t, 200, rr.Code, "listings")
	body := testutil.AssertJSONResponse(t, rr, "ok")
	data, ok := body["data"].([]interface{})
	if !ok {
		t.Fatalf("expected data array, got %v", body["data"])
	}
	if len(data) != 2 {
		t.Errorf("expected 2 listings, got %d", len(data))
	}
}

func TestListingsHandlerFiltersByOwner(t *testing.T) {
	server, st := newTestServer(t)
	testutil.SeedListing(t, st, "owner-1", models.Fields{"title": "Mine"})
	testutil.SeedListing(t, st, "owner-2", models.Fields{"title": "Theirs"})

	req := testutil.CreateHTTPRequest(t, "GET", "/listings?owner=owner-1", nil)
	rr := httptest.NewRecorder()
	server.listingsHandler(rr, req)

	testutil.AssertHTTPStatus(t, 200, rr.Code, "listings by owner")
	body := testutil.AssertJSONResponse(t, rr, "ok")
	data, ok := body["data"].([]interface{})
	if !ok {
		t.Fatalf("expected data array, got %v", body["data"])
	}
	if len(data) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(data))
	}
	listing, _ := data[0].(map[string]interface{})
	if listing["title"] != "Mine" {
		t.Errorf("expected owner-1 listing, got %v", listing["title"])
	}
}

func TestDeleteListingHandler(t *testing.T) {
	server, st := newTestServer(t)
	id := testutil.SeedListing(t, st, "owner-1", models.Fields{"title": "Mine"})

	req := testutil.CreateHTTPRequest(t, "DELETE", fmt.Sprintf("/listings?id=%d&owner=owner-1", id), nil)
	rr := httptest.NewRecorder()
	server.listingsHandler(rr, req)

	testutil.AssertHTTPStatus(t, 200, rr.Code, "delete listing")
	testutil.AssertJSONResponse(t, rr, "ok")
	remaining, err := st.ListByOwner(req.Context(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner() error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected listing removed, %d remain", len(remaining))
	}
}

func TestDeleteListingHandlerEnforcesOwnership(t *testing.T) {
	server, st := newTestServer(t)
	id := testutil.SeedListing(t, st, "owner-1", models.Fields{"title": "Mine"})

	req := testutil.CreateHTTPRequest(t, "DELETE", fmt.Sprintf("/listings?id=%d&owner=owner-2", id), nil)
	rr := httptest.NewRecorder()
	server.listingsHandler(rr, req)

	testutil.AssertHTTPStatus(t, 404, rr.Code, "delete foreign listing")
	remaining, err := st.ListByOwner(req.Context(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner() error: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected listing untouched, %d remain", len(remaining))
	}
}

func TestDeleteListingHandlerRejectsBadID(t *testing.T) {
	server, _ := newTestServer(t)

	for _, target := range []string{"/listings", "/listings?id=abc", "/listings?id=-3"} {
		req := testutil.CreateHTTPRequest(t, "DELETE", target, nil)
		rr := httptest.NewRecorder()
		server.listingsHandler(rr, req)
		testutil.AssertHTTPStatus(t, 400, rr.Code, target)
	}
}

func TestHandlerRoutes(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	req := testutil.CreateHTTPRequest(t, "GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, 200, rr.Code, "routed health")

	req = testutil.CreateHTTPRequest(t, "GET", "/twilio/webhook", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, 404, rr.Code, "webhook absent without Twilio backend")
}
