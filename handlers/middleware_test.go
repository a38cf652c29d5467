package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

func TestGetActor_FromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ActorKey, vendorActor)
	req = req.WithContext(ctx)

	got := GetActor(req)
	if got.ID != vendorActor.ID || got.Role != services.RoleVendor {
		t.Errorf("actor from context: %+v", got)
	}
}

func TestGetActor_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actor := GetActor(req); actor.ID != "" || actor.Role != "" {
		t.Errorf("expected zero actor, got %+v", actor)
	}
}

func TestRequireActor_FallsBackToHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	setActorHeaders(req, ownerActor)
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()

	actor, ok := RequireActor(e)
	if !ok {
		t.Fatal("expected actor to be resolved from headers")
	}
	if actor.ID != ownerActor.ID || actor.Role != services.RoleOwner {
		t.Errorf("actor = %+v", actor)
	}
}

func TestRequireActor_MissingRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()

	if _, ok := RequireActor(e); ok {
		t.Error("expected missing identity to be rejected")
	}
}
