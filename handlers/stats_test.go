package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"renovasi/config"
	"renovasi/services"
	"renovasi/testhelpers"
)

func TestHandleAdminStats(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Stats Project")
	testhelpers.AttachProposal(t, app, proj, testhelpers.SampleProposal(vendorActor.ID, vendorActor.Name))
	testhelpers.CreateTestProject(t, app, "Second Project")
	testhelpers.CreateTestPayment(t, app, proj.Id, vendorActor.ID, 2000000, services.PaymentStatusPaid)

	// Accept the proposal so awarded value is non-zero.
	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	if rec := callNegotiation(t, app, HandleProposalAccept(app), proj, vendorActor.ID, nil, ownerActor); rec.Code != http.StatusOK {
		t.Fatalf("accept failed: %d", rec.Code)
	}

	cfg := config.Config{PlatformFeePercent: 10}
	handler := HandleAdminStats(app, cfg)

	req := newJSONRequest(t, http.MethodGet, "/api/renovasi/admin/stats", nil, adminActor)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeJSONResponse(t, rec)
	if body["total_projects"].(float64) != 2 {
		t.Errorf("total_projects = %v", body["total_projects"])
	}
	if body["accepted_proposals"].(float64) != 1 {
		t.Errorf("accepted_proposals = %v", body["accepted_proposals"])
	}
	awarded := body["awarded_value"].(float64)
	if awarded <= 0 {
		t.Errorf("awarded_value = %v, want > 0", awarded)
	}
	if revenue := body["platform_revenue"].(float64); revenue != awarded*0.10 {
		t.Errorf("platform_revenue = %v, want 10%% of %v", revenue, awarded)
	}
	if body["payments_paid"].(float64) != 2000000 {
		t.Errorf("payments_paid = %v", body["payments_paid"])
	}
}

func TestHandleAdminStats_NonAdminForbidden(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleAdminStats(app, config.Config{PlatformFeePercent: 5})

	req := newJSONRequest(t, http.MethodGet, "/api/renovasi/admin/stats", nil, ownerActor)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
