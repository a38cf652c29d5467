package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newJSONRequest builds a request with a JSON body and the actor identity
// headers set.
func newJSONRequest(t *testing.T, method, target string, body any, actor services.Actor) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	setActorHeaders(req, actor)
	return req
}

func setActorHeaders(req *http.Request, actor services.Actor) {
	if actor.ID == "" {
		return
	}
	req.Header.Set(HeaderActorID, actor.ID)
	req.Header.Set(HeaderActorName, actor.Name)
	req.Header.Set(HeaderActorEmail, actor.Email)
	req.Header.Set(HeaderActorRole, actor.Role)
}

// decodeJSONResponse unmarshals the recorded body into a generic map.
func decodeJSONResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return m
}

var (
	ownerActor  = services.Actor{ID: "owner-1", Name: "Test Owner", Email: "owner@example.com", Role: services.RoleOwner}
	vendorActor = services.Actor{ID: "vendor-1", Name: "Test Vendor", Email: "vendor@example.com", Role: services.RoleVendor}
	adminActor  = services.Actor{ID: "admin-1", Name: "Test Admin", Email: "admin@example.com", Role: services.RoleAdmin}
)
