package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/nerrad567/stockflow-core/internal/controller"
	"github.com/nerrad567/stockflow-core/internal/logistics"
)

func createTestGroup(t *testing.T, f *testFixture, ownerID string) *logistics.Group {
	t.Helper()
	group, err := f.groups.CreateGroup(context.Background(), ownerID, "Test group")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	return group
}

func TestRegisterController(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	rec := f.doRequest(t, http.MethodPost, "/api/v1/controllers/",
		map[string]string{"entity_id": "combinator-1", "group_id": group.ID}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var c controller.Controller
	decodeBody(t, rec, &c)
	if c.EntityID != "combinator-1" {
		t.Errorf("expected entity combinator-1, got %s", c.EntityID)
	}
	if c.GroupID != group.ID {
		t.Errorf("expected group %s, got %s", group.ID, c.GroupID)
	}
	if c.Target != controller.DefaultTarget {
		t.Errorf("expected default target, got %s", c.Target)
	}

	// Registration locks the group.
	locked, err := f.groups.GetGroup(group.ID)
	if err != nil {
		t.Fatalf("getting group: %v", err)
	}
	if !locked.Locked {
		t.Error("expected group to be locked after registration")
	}
}

func TestRegisterControllerValidation(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	rec := f.doRequest(t, http.MethodPost, "/api/v1/controllers/",
		map[string]string{"group_id": "whatever"}, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing entity_id, got %d", rec.Code)
	}

	rec = f.doRequest(t, http.MethodPost, "/api/v1/controllers/",
		map[string]string{"entity_id": "combinator-1", "group_id": "no-such-group"}, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown group, got %d", rec.Code)
	}
}

func TestRegisterControllerConflict(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering first controller: %v", err)
	}

	rec := f.doRequest(t, http.MethodPost, "/api/v1/controllers/",
		map[string]string{"entity_id": "combinator-2", "group_id": group.ID}, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for owned group, got %d: %s", rec.Code, rec.Body.String())
	}

	var apiErr Error
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != ErrCodeConflict {
		t.Errorf("expected code %s, got %s", ErrCodeConflict, apiErr.Code)
	}
}

func TestRegisterControllerEvictsDeadOwner(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering first controller: %v", err)
	}
	f.liveness.dead["combinator-1"] = true

	rec := f.doRequest(t, http.MethodPost, "/api/v1/controllers/",
		map[string]string{"entity_id": "combinator-2", "group_id": group.ID}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after evicting dead owner, got %d: %s", rec.Code, rec.Body.String())
	}

	if ownerID, ok := f.controllers.OwnerOf(group.ID); !ok || ownerID != "combinator-2" {
		t.Errorf("expected combinator-2 to own the group, got %q", ownerID)
	}
}

func TestUnregisterControllerIsIdempotent(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	rec := f.doRequest(t, http.MethodDelete, "/api/v1/controllers/combinator-1", nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// The group unlocks when its controller goes away.
	g, err := f.groups.GetGroup(group.ID)
	if err != nil {
		t.Fatalf("getting group: %v", err)
	}
	if g.Locked {
		t.Error("expected group to unlock after unregister")
	}

	// Unregistering an unknown entity is still a 204.
	rec = f.doRequest(t, http.MethodDelete, "/api/v1/controllers/combinator-1", nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat unregister, got %d", rec.Code)
	}
}

func TestGetControllerNotFound(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	rec := f.doRequest(t, http.MethodGet, "/api/v1/controllers/no-such-entity", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSetControllerMultiplier(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	rec := f.doRequest(t, http.MethodPut, "/api/v1/controllers/combinator-1/multiplier",
		map[string]float64{"multiplier": 3.5}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var c controller.Controller
	decodeBody(t, rec, &c)
	if c.DefaultMultiplier != 3.5 {
		t.Errorf("expected multiplier 3.5, got %v", c.DefaultMultiplier)
	}

	// Non-positive multipliers are rejected.
	rec = f.doRequest(t, http.MethodPut, "/api/v1/controllers/combinator-1/multiplier",
		map[string]float64{"multiplier": 0}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero multiplier, got %d", rec.Code)
	}
}

func TestOverrideRoundTrip(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	rec := f.doRequest(t, http.MethodPut, "/api/v1/controllers/combinator-1/overrides/iron-plate",
		map[string]any{"multiplier": 3.0, "max_quantity": 500}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.doRequest(t, http.MethodGet, "/api/v1/controllers/combinator-1/overrides", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Overrides map[string]controller.Override `json:"overrides"`
	}
	decodeBody(t, rec, &body)
	ov, ok := body.Overrides["iron-plate"]
	if !ok {
		t.Fatal("expected iron-plate override to be present")
	}
	if ov.Multiplier == nil || *ov.Multiplier != 3.0 {
		t.Errorf("expected multiplier 3.0, got %v", ov.Multiplier)
	}
	if ov.MaxQuantity == nil || *ov.MaxQuantity != 500 {
		t.Errorf("expected max_quantity 500, got %v", ov.MaxQuantity)
	}

	rec = f.doRequest(t, http.MethodDelete, "/api/v1/controllers/combinator-1/overrides/iron-plate", nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	overrides, err := f.controllers.GetOverrides("combinator-1")
	if err != nil {
		t.Fatalf("getting overrides: %v", err)
	}
	if _, ok := overrides["iron-plate"]; ok {
		t.Error("expected override to be removed")
	}
}

func TestSetOverrideValidation(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	group := createTestGroup(t, f, "platform-1")

	if err := f.controllers.Register(context.Background(), "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"non-positive multiplier", map[string]any{"multiplier": -1.0}},
		{"negative max quantity", map[string]any{"max_quantity": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doRequest(t, http.MethodPut,
				"/api/v1/controllers/combinator-1/overrides/iron-plate", tt.body, token)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListControllers(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	ctx := context.Background()

	groupA := createTestGroup(t, f, "platform-1")
	groupB := createTestGroup(t, f, "platform-2")
	if err := f.controllers.Register(ctx, "combinator-1", groupA.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}
	if err := f.controllers.Register(ctx, "combinator-2", groupB.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	rec := f.doRequest(t, http.MethodGet, "/api/v1/controllers/", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Controllers []controller.Controller `json:"controllers"`
		Count       int                     `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 2 {
		t.Errorf("expected 2 controllers, got %d", body.Count)
	}
}
