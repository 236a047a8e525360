package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/nerrad567/stockflow-core/internal/logistics"
)

// seedEntries installs request entries on a group directly through the store,
// the same path the engine uses after a translation cycle.
func seedEntries(t *testing.T, f *testFixture, groupID string, entries map[string]*logistics.RequestEntry, order []string) {
	t.Helper()
	if err := f.groups.ApplyRequests(context.Background(), groupID, entries, order); err != nil {
		t.Fatalf("seeding entries: %v", err)
	}
}

func TestCreateGroup(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	rec := f.doRequest(t, http.MethodPost, "/api/v1/groups/",
		map[string]string{"owner_id": "platform-1", "name": "Ammo resupply"}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var group logistics.Group
	decodeBody(t, rec, &group)
	if group.ID == "" {
		t.Error("expected generated group ID")
	}
	if group.OwnerID != "platform-1" {
		t.Errorf("expected owner platform-1, got %s", group.OwnerID)
	}
	if group.Name != "Ammo resupply" {
		t.Errorf("expected name preserved, got %s", group.Name)
	}
	if group.Locked {
		t.Error("new group must start unlocked")
	}
	if group.DefaultMultiplier != logistics.DefaultBufferMultiplier {
		t.Errorf("expected default multiplier %v, got %v",
			logistics.DefaultBufferMultiplier, group.DefaultMultiplier)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"owner_id": "platform-1"}},
		{"missing owner", map[string]string{"name": "No owner"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doRequest(t, http.MethodPost, "/api/v1/groups/", tt.body, token)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListGroupsFiltersByOwner(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	ctx := context.Background()

	if _, err := f.groups.CreateGroup(ctx, "platform-1", "First"); err != nil {
		t.Fatalf("creating group: %v", err)
	}
	if _, err := f.groups.CreateGroup(ctx, "platform-1", "Second"); err != nil {
		t.Fatalf("creating group: %v", err)
	}
	if _, err := f.groups.CreateGroup(ctx, "platform-2", "Other"); err != nil {
		t.Fatalf("creating group: %v", err)
	}

	rec := f.doRequest(t, http.MethodGet, "/api/v1/groups/?owner=platform-1", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Groups []logistics.Group `json:"groups"`
		Count  int               `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 2 {
		t.Errorf("expected 2 groups for platform-1, got %d", body.Count)
	}
	for _, g := range body.Groups {
		if g.OwnerID != "platform-1" {
			t.Errorf("unexpected owner %s in filtered listing", g.OwnerID)
		}
	}
}

func TestGetGroupNotFound(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	rec := f.doRequest(t, http.MethodGet, "/api/v1/groups/no-such-group", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var apiErr Error
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, apiErr.Code)
	}
}

func TestDeleteGroupIsIdempotent(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	group, err := f.groups.CreateGroup(context.Background(), "platform-1", "Doomed")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}

	rec := f.doRequest(t, http.MethodDelete, "/api/v1/groups/"+group.ID, nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// A second delete of the same group still succeeds.
	rec = f.doRequest(t, http.MethodDelete, "/api/v1/groups/"+group.ID, nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", rec.Code)
	}

	if _, err := f.groups.GetGroup(group.ID); err == nil {
		t.Error("expected group to be gone after delete")
	}
}

func TestUpdateMultipliersRecomputesMax(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	group, err := f.groups.CreateGroup(context.Background(), "platform-1", "Plates")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	seedEntries(t, f, group.ID, map[string]*logistics.RequestEntry{
		"iron-plate":   {Min: 1000, Max: 2000, Enabled: true},
		"copper-plate": {Min: 500, Max: 1000, Enabled: true},
	}, []string{"iron-plate", "copper-plate"})

	rec := f.doRequest(t, http.MethodPut, "/api/v1/groups/"+group.ID+"/multipliers",
		map[string]any{"multipliers": map[string]float64{"iron-plate": 3.0}}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated logistics.Group
	decodeBody(t, rec, &updated)
	if got := updated.Requests["iron-plate"].Max; got != 3000 {
		t.Errorf("expected iron-plate max 3000 from explicit multiplier, got %d", got)
	}
	// copper-plate was not named, so its maximum is untouched.
	if got := updated.Requests["copper-plate"].Max; got != 1000 {
		t.Errorf("expected copper-plate max to stay 1000, got %d", got)
	}
}

func TestUpdateMultipliersRejectsNonPositive(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	group, err := f.groups.CreateGroup(context.Background(), "platform-1", "Plates")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	seedEntries(t, f, group.ID, map[string]*logistics.RequestEntry{
		"iron-plate": {Min: 1000, Max: 2000, Enabled: true},
	}, []string{"iron-plate"})

	rec := f.doRequest(t, http.MethodPut, "/api/v1/groups/"+group.ID+"/multipliers",
		map[string]any{"multipliers": map[string]float64{"iron-plate": -1.0}}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSetEntryEnabled(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)

	group, err := f.groups.CreateGroup(context.Background(), "platform-1", "Plates")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	seedEntries(t, f, group.ID, map[string]*logistics.RequestEntry{
		"iron-plate": {Min: 1000, Max: 2000, Enabled: true},
	}, []string{"iron-plate"})

	rec := f.doRequest(t, http.MethodPut,
		"/api/v1/groups/"+group.ID+"/entries/iron-plate/enabled",
		map[string]bool{"enabled": false}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	enabled, err := f.groups.IsEntryEnabled(group.ID, "iron-plate")
	if err != nil {
		t.Fatalf("checking entry: %v", err)
	}
	if enabled {
		t.Error("expected entry to be disabled")
	}

	// Unknown entries report 404.
	rec = f.doRequest(t, http.MethodPut,
		"/api/v1/groups/"+group.ID+"/entries/no-such-item/enabled",
		map[string]bool{"enabled": true}, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown entry, got %d", rec.Code)
	}
}

func TestGetGroupLockReflectsOwnership(t *testing.T) {
	f := newTestFixture(t)
	token := authToken(t)
	ctx := context.Background()

	group, err := f.groups.CreateGroup(ctx, "platform-1", "Plates")
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}

	rec := f.doRequest(t, http.MethodGet, "/api/v1/groups/"+group.ID+"/lock", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["locked"] != false {
		t.Error("expected unowned group to report unlocked")
	}
	if _, present := body["owner"]; present {
		t.Error("expected no owner field for unowned group")
	}

	if err := f.controllers.Register(ctx, "combinator-1", group.ID, ""); err != nil {
		t.Fatalf("registering controller: %v", err)
	}

	rec = f.doRequest(t, http.MethodGet, "/api/v1/groups/"+group.ID+"/lock", nil, token)
	decodeBody(t, rec, &body)
	if body["locked"] != true {
		t.Error("expected owned group to report locked")
	}
	if body["owner"] != "combinator-1" {
		t.Errorf("expected owner combinator-1, got %v", body["owner"])
	}
}
