package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/store"
)

const msgUnreachable = "database unreachable"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().Unix(),
	})
}

// handleStatus always answers 200; database trouble shows up as
// isOnline=false.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := s.ping(r.Context())
	now := s.now()

	s.mu.Lock()
	status := api.SyncStatus{
		IsOnline:            res.err == nil,
		LastCheckedAt:       now,
		LastSync:            s.lastSync,
		NextSync:            now.Add(pollHint),
		LatencyMs:           res.latency.Milliseconds(),
		ConsecutiveFailures: s.failures,
		Source:              Source,
	}
	s.mu.Unlock()

	if res.err != nil {
		s.log.Warn().Err(res.err).Msg("database ping failed")
	}
	respondJSON(w, http.StatusOK, api.Envelope[api.SyncStatus]{Success: true, Data: status})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.repo.Operations(r.Context())
	if err != nil {
		s.repoError(w, "list operations", err)
		return
	}
	if ops == nil {
		ops = []api.Operation{}
	}
	respondJSON(w, http.StatusOK, api.OperationsResponse{Success: true, Operations: ops})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.repo.Notifications(r.Context())
	if err != nil {
		s.repoError(w, "list notifications", err)
		return
	}
	if notes == nil {
		notes = []api.Notification{}
	}
	respondJSON(w, http.StatusOK, api.NotificationsResponse{Success: true, Notifications: notes})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.repo.Profile(r.Context())
	if err != nil {
		s.repoError(w, "load profile", err)
		return
	}
	respondData(w, profile)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBody+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body) > maxPatchBody {
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err := api.ValidateProfilePatchJSON(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch api.ProfilePatch
	if err := json.Unmarshal(body, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := api.ValidateProfilePatch(patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := s.repo.UpdateProfile(r.Context(), patch)
	if err != nil {
		s.repoError(w, "update profile", err)
		return
	}
	s.log.Info().Str("profile", profile.ID).Msg("profile updated")
	respondData(w, profile)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.DashboardStats(r.Context())
	if err != nil {
		s.repoError(w, "dashboard stats", err)
		return
	}
	respondData(w, stats)
}

func (s *Server) handleMarinaOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.repo.MarinaOverview(r.Context())
	if err != nil {
		s.repoError(w, "marina overview", err)
		return
	}
	if overview.Docks == nil {
		overview.Docks = []api.DockSummary{}
	}
	respondData(w, overview)
}

// repoError maps repository failures: missing rows are 404, anything else
// means the database could not answer.
func (s *Server) repoError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error().Err(err).Str("op", what).Msg("repository call failed")
	respondError(w, http.StatusServiceUnavailable, msgUnreachable)
}

func respondData[T any](w http.ResponseWriter, data T) {
	respondJSON(w, http.StatusOK, api.Envelope[T]{Success: true, Data: data})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}
