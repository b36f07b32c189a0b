// Package api provides HTTP handlers for EstatePipe endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// healthHandler reports service liveness and the number of active
// conversation sessions.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.healthHandler: processing health request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.healthHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.Count(),
	}))
}

// statsHandler returns aggregate listing statistics.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.statsHandler: processing stats request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.statsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.st.Stats(r.Context())
	if err != nil {
		slog.Error("Server.statsHandler: failed to compute stats", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to compute listing statistics"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// listingsHandler serves the listings collection. GET returns recent
// listings, optionally scoped to a single owner via the "owner" query
// parameter. DELETE removes one listing by "id", with ownership
// enforced when "owner" is supplied.
func (s *Server) listingsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listingsHandler: processing listings request", "method", r.Method, "path", r.URL.Path)
	switch r.Method {
	case http.MethodGet:
		s.getListings(w, r)
	case http.MethodDelete:
		s.deleteListing(w, r)
	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodDelete)
		slog.Warn("Server.listingsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) getListings(w http.ResponseWriter, r *http.Request) {
	var (
		listings []models.Listing
		err      error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		listings, err = s.st.ListByOwner(r.Context(), owner)
	} else {
		listings, err = s.st.Search(r.Context(), models.Filters{}, "")
	}
	if err != nil {
		slog.Error("Server.listingsHandler: failed to fetch listings", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch listings"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(listings))
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		slog.Warn("Server.deleteListing: invalid id parameter", "id", r.URL.Query().Get("id"))
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing or invalid id parameter"))
		return
	}
	owner := r.URL.Query().Get("owner")

	found, err := s.st.Delete(r.Context(), id, owner)
	if err != nil {
		slog.Error("Server.deleteListing: failed to delete listing", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete listing"))
		return
	}
	if !found {
		slog.Warn("Server.deleteListing: listing not found or not owned", "id", id, "owner", owner)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Listing not found"))
		return
	}

	slog.Info("Server.deleteListing: listing deleted", "id", id, "owner", owner)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]any{"deleted": id}))
}
