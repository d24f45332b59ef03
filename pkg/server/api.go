package server

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/store"
	"github.com/kylerisse/pingboard/pkg/syncer"
)

// maxSaveBytes caps the size of a POST /save body.
const maxSaveBytes = 8 << 20

// saveResult is the body of every /save response and of API errors.
type saveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// saveRequest distinguishes a missing or null hosts key from an explicit
// empty list. Only the latter may clear the collection.
type saveRequest struct {
	Hosts *[]host.Host `json:"hosts"`
}

// handleData serves the full snapshot.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syncer.Envelope{Hosts: s.snapshot()})
}

// handleSave replaces the collection with the posted one.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBytes)).Decode(&req); err != nil {
		s.logger.Warnf("Save rejected: could not decode body: %v", err)
		writeResult(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Hosts == nil {
		s.logger.Warn("Save rejected: body has no hosts list")
		writeResult(w, http.StatusBadRequest, `missing "hosts" list`)
		return
	}

	hosts, err := s.normalize(r.Context(), *req.Hosts)
	if err != nil {
		s.logger.Warnf("Save rejected: %v", err)
		writeResult(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.replace(hosts); err != nil {
		s.logger.Errorf("Save failed: %v", err)
		writeResult(w, http.StatusInternalServerError, "could not persist hosts")
		return
	}

	s.logger.Infof("Saved %d host(s)", len(hosts))
	writeJSON(w, http.StatusOK, saveResult{Success: true})
}

// handleSummaryAPI returns aggregate counts across all hosts.
func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	stats := store.ComputeStats(slices.Values(s.snapshot()))
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, saveResult{Success: false, Error: msg})
}
