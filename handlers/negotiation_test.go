package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
	"renovasi/testhelpers"
)

// negotiationProject creates a project with one submitted negotiable
// proposal from vendor-1.
func negotiationProject(t *testing.T, app *pocketbase.PocketBase) *core.Record {
	t.Helper()
	proj := testhelpers.CreateTestProject(t, app, "Negotiation Project")
	testhelpers.AttachProposal(t, app, proj, testhelpers.SampleProposal(vendorActor.ID, vendorActor.Name))
	return proj
}

func callNegotiation(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, proj *core.Record, vendorID string, body any, actor services.Actor) *httptest.ResponseRecorder {
	t.Helper()

	target := fmt.Sprintf("/api/renovasi/projects/%s/proposals/%s/negotiation", proj.Id, vendorID)
	req := newJSONRequest(t, http.MethodPost, target, body, actor)
	req.SetPathValue("projectId", proj.Id)
	if vendorID != "" {
		req.SetPathValue("vendorId", vendorID)
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func storedProposal(t *testing.T, app *pocketbase.PocketBase, projectID, vendorID string) *services.Proposal {
	t.Helper()
	record, err := app.FindRecordById("projects", projectID)
	if err != nil {
		t.Fatal(err)
	}
	_, p := services.FindVendorProposal(services.DecodeProposals(record.GetString("proposals")), vendorID)
	if p == nil {
		t.Fatalf("proposal for %s not found", vendorID)
	}
	return p
}

func TestHandleNegotiationOpen(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	rec := callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusNegotiating {
		t.Errorf("status = %q", p.CurrentStatus())
	}
	if p.Negotiation == nil || p.Negotiation.OwnerInfo.ID != ownerActor.ID {
		t.Error("negotiation sub-document should record the owner identity")
	}
}

func TestHandleNegotiationOpen_VendorBlocked(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	rec := callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, vendorActor)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 policy block, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONResponse(t, rec)
	if body["error"] == "" {
		t.Error("policy block should carry a user-facing reason")
	}
}

func TestHandleCounterOffer_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	if rec := callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor); rec.Code != http.StatusOK {
		t.Fatalf("open failed: %d", rec.Code)
	}

	rec := callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers":  map[string]float64{"0": 40000, "2": 90000},
		"message": "Harap turunkan harga persiapan dan galian",
	}, ownerActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("counter-offer failed: %d: %s", rec.Code, rec.Body.String())
	}

	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusPendingVendorResponse {
		t.Errorf("status = %q", p.CurrentStatus())
	}
	offer, ok := p.Negotiation.OfferFor(0)
	if !ok || offer.VendorPrice != 40000 {
		t.Errorf("offer at index 0: %+v ok=%v", offer, ok)
	}
	if len(p.Negotiation.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(p.Negotiation.History))
	}

	// The vendor answers; the previous round's map is replaced wholesale.
	rec = callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 42000},
	}, vendorActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("vendor counter failed: %d: %s", rec.Code, rec.Body.String())
	}

	p = storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusPendingOwnerResponse {
		t.Errorf("status = %q", p.CurrentStatus())
	}
	if _, ok := p.Negotiation.OfferFor(2); ok {
		t.Error("index 2 should be gone after the wholesale replace")
	}
	if len(p.Negotiation.History) != 2 {
		t.Errorf("history should grow by one per round, got %d", len(p.Negotiation.History))
	}
}

func TestHandleCounterOffer_OutOfTurn(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 40000},
	}, ownerActor)

	// Owner tries to counter again while it is the vendor's turn.
	rec := callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 39000},
	}, ownerActor)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 out-of-turn block, got %d", rec.Code)
	}

	// The blocked attempt must not have touched the stored state.
	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	offer, _ := p.Negotiation.OfferFor(0)
	if offer.VendorPrice != 40000 {
		t.Errorf("stored offer mutated by a blocked action: %v", offer.VendorPrice)
	}
	if len(p.Negotiation.History) != 1 {
		t.Errorf("history grew on a blocked action: %d entries", len(p.Negotiation.History))
	}
}

func TestHandleCounterOffer_StaleRevision(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)

	rec := callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers":      map[string]float64{"0": 40000},
		"expectedRev": 1,
	}, ownerActor)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a stale revision, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProposalAccept_FromVendorTurn(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 40000},
	}, ownerActor)

	rec := callNegotiation(t, app, HandleProposalAccept(app), proj, "", map[string]any{
		"message": "Setuju dengan harga tersebut",
	}, vendorActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept failed: %d: %s", rec.Code, rec.Body.String())
	}

	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusAccepted {
		t.Errorf("status = %q", p.CurrentStatus())
	}
	// The accepted counter-offer stays frozen for the effective prices.
	if offer, ok := p.Negotiation.OfferFor(0); !ok || offer.VendorPrice != 40000 {
		t.Errorf("accepted offer should stay frozen: %+v", offer)
	}

	// Terminal state blocks further actions.
	rec = callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 1},
	}, ownerActor)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 after terminal state, got %d", rec.Code)
	}
}

func TestHandleProposalReject(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	rec := callNegotiation(t, app, HandleProposalReject(app), proj, vendorActor.ID, map[string]any{
		"message": "Anggaran tidak mencukupi",
	}, ownerActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject failed: %d: %s", rec.Code, rec.Body.String())
	}

	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusRejected {
		t.Errorf("status = %q", p.CurrentStatus())
	}
}

func TestHandleProposalResubmit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := negotiationProject(t, app)

	callNegotiation(t, app, HandleNegotiationOpen(app), proj, vendorActor.ID, nil, ownerActor)
	callNegotiation(t, app, HandleCounterOffer(app), proj, vendorActor.ID, map[string]any{
		"offers": map[string]float64{"0": 40000},
	}, ownerActor)

	rec := callNegotiation(t, app, HandleProposalResubmit(app), proj, "", map[string]any{
		"boqPricing": submitPricing(42000, 110000, 92000, 820000),
	}, vendorActor)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit failed: %d: %s", rec.Code, rec.Body.String())
	}

	p := storedProposal(t, app, proj.Id, vendorActor.ID)
	if p.CurrentStatus() != services.ProposalStatusSubmitted {
		t.Errorf("status = %q, resubmission restarts the cycle", p.CurrentStatus())
	}
	if len(p.Negotiation.CounterOffer) != 0 {
		t.Error("resubmission should clear the counter-offer map")
	}
	want := 10*42000.0 + 5*110000 + 18*92000 + 12*820000
	if p.TotalAmount != want {
		t.Errorf("total = %v, want %v", p.TotalAmount, want)
	}
	// History from earlier rounds is preserved.
	if len(p.Negotiation.History) != 2 {
		t.Errorf("history = %d entries, want counter_offer + resubmitted", len(p.Negotiation.History))
	}
}

func TestHandleNegotiation_ProposalNotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "No Proposal Project")

	rec := callNegotiation(t, app, HandleNegotiationOpen(app), proj, "vendor-none", nil, ownerActor)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
