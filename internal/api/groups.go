package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/stockflow-core/internal/logistics"
)

// maxGroupNameLength bounds operator-supplied group names.
const maxGroupNameLength = 128

// handleListGroups returns all supply groups, optionally filtered by owner.
//
// GET /groups?owner={ownerID}
// Response: {"groups": [...], "count": N}
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	var groups []logistics.Group
	if ownerID := r.URL.Query().Get("owner"); ownerID != "" {
		groups = s.groups.ListGroupsForOwner(ownerID)
	} else {
		groups = s.groups.ListGroups()
	}
	if groups == nil {
		groups = []logistics.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

// handleCreateGroup creates a new supply group.
//
// POST /groups
// Body: {"owner_id": "platform-1", "name": "Ammo resupply"}
// Response: 201 Created with the created group
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if body.Name == "" || len(body.Name) > maxGroupNameLength {
		writeBadRequest(w, "name is required and must be at most 128 characters")
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), body.OwnerID, body.Name)
	if err != nil {
		if errors.Is(err, logistics.ErrInvalidOwner) {
			writeBadRequest(w, "owner_id is required")
			return
		}
		s.logger.Error("failed to create supply group", "error", err)
		writeInternalError(w, "failed to create supply group")
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// handleGetGroup returns a single supply group by ID.
//
// GET /groups/{id}
// Response: Group JSON
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	group, err := s.groups.GetGroup(id)
	if err != nil {
		if errors.Is(err, logistics.ErrGroupNotFound) {
			writeNotFound(w, "supply group not found")
			return
		}
		s.logger.Error("failed to get supply group", "error", err, "id", id)
		writeInternalError(w, "failed to get supply group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// handleDeleteGroup removes a supply group by ID.
//
// Deletion is idempotent; deleting an unknown group still returns 204.
// A group still owned by a controller may be deleted; the engine drops
// the orphaned controller on its next cycle.
//
// DELETE /groups/{id}
// Response: 204 No Content
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.groups.DeleteGroup(r.Context(), id); err != nil {
		s.logger.Error("failed to delete supply group", "error", err, "id", id)
		writeInternalError(w, "failed to delete supply group")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelGroupDeleted, map[string]any{"group_id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetGroupLock reports the lock state and owning controller of a group.
//
// GET /groups/{id}/lock
// Response: {"group_id": "...", "locked": bool, "owner": "entity-id"}
func (s *Server) handleGetGroupLock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	group, err := s.groups.GetGroup(id)
	if err != nil {
		if errors.Is(err, logistics.ErrGroupNotFound) {
			writeNotFound(w, "supply group not found")
			return
		}
		s.logger.Error("failed to get supply group", "error", err, "id", id)
		writeInternalError(w, "failed to get supply group")
		return
	}

	resp := map[string]any{
		"group_id": id,
		"locked":   group.Locked,
	}
	if ownerID, ok := s.controllers.OwnerOf(id); ok {
		resp["owner"] = ownerID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdateMultipliers recomputes entry maximums from per-item multipliers.
//
// Entries absent from the map keep their current maximum. Multipliers
// naming unknown entries are silently skipped.
//
// PUT /groups/{id}/multipliers
// Body: {"multipliers": {"iron-plate": 3.0}}
// Response: updated Group JSON
func (s *Server) handleUpdateMultipliers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Multipliers map[string]float64 `json:"multipliers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.groups.UpdateMultipliers(r.Context(), id, body.Multipliers); err != nil {
		switch {
		case errors.Is(err, logistics.ErrGroupNotFound):
			writeNotFound(w, "supply group not found")
		case errors.Is(err, logistics.ErrInvalidMultiplier):
			writeBadRequest(w, "multipliers must be greater than zero")
		default:
			s.logger.Error("failed to update multipliers", "error", err, "group_id", id)
			writeInternalError(w, "failed to update multipliers")
		}
		return
	}

	group, err := s.groups.GetGroup(id)
	if err != nil {
		s.logger.Error("failed to re-read supply group", "error", err, "id", id)
		writeInternalError(w, "failed to re-read supply group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// handleSetEntryEnabled toggles a single request entry on or off.
//
// PUT /groups/{id}/entries/{entry}/enabled
// Body: {"enabled": false}
// Response: {"group_id": "...", "entry": "...", "enabled": bool}
func (s *Server) handleSetEntryEnabled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry := chi.URLParam(r, "entry")

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.groups.SetEntryEnabled(r.Context(), id, entry, body.Enabled); err != nil {
		switch {
		case errors.Is(err, logistics.ErrGroupNotFound):
			writeNotFound(w, "supply group not found")
		case errors.Is(err, logistics.ErrEntryNotFound):
			writeNotFound(w, "request entry not found")
		default:
			s.logger.Error("failed to set entry enabled", "error", err, "group_id", id, "entry", entry)
			writeInternalError(w, "failed to set entry enabled")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group_id": id,
		"entry":    entry,
		"enabled":  body.Enabled,
	})
}
