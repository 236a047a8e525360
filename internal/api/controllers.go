package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/stockflow-core/internal/controller"
	"github.com/nerrad567/stockflow-core/internal/logistics"
)

// handleListControllers returns all registered controllers.
//
// GET /controllers
// Response: {"controllers": [...], "count": N}
func (s *Server) handleListControllers(w http.ResponseWriter, _ *http.Request) {
	controllers := s.controllers.Controllers()
	if controllers == nil {
		controllers = []controller.Controller{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"controllers": controllers, "count": len(controllers)})
}

// handleRegisterController registers an entity as the controller of a group.
//
// Registering the same entity on a different group releases its previous
// group first. A group already owned by a live controller returns 409.
//
// POST /controllers
// Body: {"entity_id": "combinator-1", "group_id": "...", "target": "home"}
// Response: 201 Created with the controller record
func (s *Server) handleRegisterController(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EntityID string `json:"entity_id"`
		GroupID  string `json:"group_id"`
		Target   string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if body.EntityID == "" {
		writeBadRequest(w, "entity_id is required")
		return
	}

	if err := s.controllers.Register(r.Context(), body.EntityID, body.GroupID, body.Target); err != nil {
		switch {
		case errors.Is(err, logistics.ErrGroupNotFound):
			writeNotFound(w, "supply group not found")
		case errors.Is(err, controller.ErrAlreadyControlled):
			writeConflict(w, "group is already controlled by another entity")
		case errors.Is(err, controller.ErrControllerNotFound):
			writeBadRequest(w, "entity_id is required")
		default:
			s.logger.Error("failed to register controller", "error", err, "entity_id", body.EntityID)
			writeInternalError(w, "failed to register controller")
		}
		return
	}

	c, err := s.controllers.GetController(body.EntityID)
	if err != nil {
		s.logger.Error("failed to re-read controller", "error", err, "entity_id", body.EntityID)
		writeInternalError(w, "failed to re-read controller")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelControllerRegistered, map[string]any{
			"entity_id": c.EntityID,
			"group_id":  c.GroupID,
		})
	}

	writeJSON(w, http.StatusCreated, c)
}

// handleGetController returns a single controller by entity ID.
//
// GET /controllers/{entityID}
// Response: Controller JSON
func (s *Server) handleGetController(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	c, err := s.controllers.GetController(entityID)
	if err != nil {
		if errors.Is(err, controller.ErrControllerNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("failed to get controller", "error", err, "entity_id", entityID)
		writeInternalError(w, "failed to get controller")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleUnregisterController removes a controller registration.
//
// Unregistering an unknown entity is a no-op and still returns 204.
//
// DELETE /controllers/{entityID}
// Response: 204 No Content
func (s *Server) handleUnregisterController(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	removed, err := s.controllers.Unregister(r.Context(), entityID)
	if err != nil {
		s.logger.Error("failed to unregister controller", "error", err, "entity_id", entityID)
		writeInternalError(w, "failed to unregister controller")
		return
	}

	if removed && s.hub != nil {
		s.hub.Broadcast(ChannelControllerDropped, map[string]any{
			"entity_id": entityID,
			"reason":    "unregistered",
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSetControllerMultiplier updates a controller's default buffer multiplier.
//
// PUT /controllers/{entityID}/multiplier
// Body: {"multiplier": 2.5}
// Response: updated Controller JSON
func (s *Server) handleSetControllerMultiplier(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	var body struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.controllers.SetDefaultMultiplier(r.Context(), entityID, body.Multiplier); err != nil {
		switch {
		case errors.Is(err, controller.ErrControllerNotFound):
			writeNotFound(w, "controller not found")
		case errors.Is(err, controller.ErrInvalidMultiplier):
			writeBadRequest(w, "multiplier must be greater than zero")
		default:
			s.logger.Error("failed to set controller multiplier", "error", err, "entity_id", entityID)
			writeInternalError(w, "failed to set controller multiplier")
		}
		return
	}

	c, err := s.controllers.GetController(entityID)
	if err != nil {
		s.logger.Error("failed to re-read controller", "error", err, "entity_id", entityID)
		writeInternalError(w, "failed to re-read controller")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleGetOverrides returns a controller's per-item overrides.
//
// GET /controllers/{entityID}/overrides
// Response: {"entity_id": "...", "overrides": {...}}
func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	overrides, err := s.controllers.GetOverrides(entityID)
	if err != nil {
		if errors.Is(err, controller.ErrControllerNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("failed to get overrides", "error", err, "entity_id", entityID)
		writeInternalError(w, "failed to get overrides")
		return
	}
	if overrides == nil {
		overrides = map[string]controller.Override{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": entityID,
		"overrides": overrides,
	})
}

// handleSetOverride sets a per-item override on a controller.
//
// PUT /controllers/{entityID}/overrides/{item}
// Body: Override JSON ({"multiplier": 3.0} and/or {"max_quantity": 500})
// Response: {"entity_id": "...", "item": "...", "override": {...}}
func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	item := chi.URLParam(r, "item")

	var ov controller.Override
	if err := json.NewDecoder(r.Body).Decode(&ov); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.controllers.SetOverride(r.Context(), entityID, item, ov); err != nil {
		switch {
		case errors.Is(err, controller.ErrControllerNotFound):
			writeNotFound(w, "controller not found")
		case errors.Is(err, controller.ErrInvalidOverride), errors.Is(err, controller.ErrInvalidMultiplier):
			writeBadRequest(w, "override values are out of range")
		default:
			s.logger.Error("failed to set override", "error", err, "entity_id", entityID, "item", item)
			writeInternalError(w, "failed to set override")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": entityID,
		"item":      item,
		"override":  ov,
	})
}

// handleRemoveOverride removes a per-item override from a controller.
//
// Removing an absent override is a no-op and still returns 204.
//
// DELETE /controllers/{entityID}/overrides/{item}
// Response: 204 No Content
func (s *Server) handleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	item := chi.URLParam(r, "item")

	if err := s.controllers.RemoveOverride(r.Context(), entityID, item); err != nil {
		if errors.Is(err, controller.ErrControllerNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("failed to remove override", "error", err, "entity_id", entityID, "item", item)
		writeInternalError(w, "failed to remove override")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
