package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// counterOfferPayload is the JSON body for a counter-offer round. Offers are
// keyed by the flat spec index. ExpectedRev, when set, must match the
// project's current proposals_rev or the action is rejected as stale.
type counterOfferPayload struct {
	Offers      map[string]float64 `json:"offers"`
	Message     string             `json:"message"`
	ExpectedRev int                `json:"expectedRev"`
}

// negotiationActionPayload is the JSON body for accept/reject.
type negotiationActionPayload struct {
	Message     string `json:"message"`
	ExpectedRev int    `json:"expectedRev"`
}

// resubmitPayload is the JSON body for a vendor resubmission.
type resubmitPayload struct {
	BOQPricing  []services.PricingLine `json:"boqPricing"`
	ExpectedRev int                    `json:"expectedRev"`
}

// HandleNegotiationOpen returns a handler that lets the project owner open
// negotiation on a vendor's proposal.
func HandleNegotiationOpen(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return negotiationHandler(app, func(e *core.RequestEvent, actor services.Actor, p *services.Proposal, _ *services.BOQ) error {
		return services.OpenNegotiation(p, actor, time.Now().UTC())
	}, func(e *core.RequestEvent) int { return 0 })
}

// HandleCounterOffer returns a handler that records one counter-offer round
// from either side. The offer map replaces the previous round wholesale.
func HandleCounterOffer(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var payload counterOfferPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}

		offers := make(map[int]float64, len(payload.Offers))
		for k, v := range payload.Offers {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 {
				return jsonError(e, http.StatusBadRequest, "Offer keys must be non-negative spec indexes")
			}
			offers[idx] = v
		}

		apply := func(e *core.RequestEvent, actor services.Actor, p *services.Proposal, tree *services.BOQ) error {
			return services.SubmitCounterOffer(p, actor, offers, tree.LeafCount(), payload.Message, time.Now().UTC())
		}
		return negotiationHandler(app, apply, func(*core.RequestEvent) int { return payload.ExpectedRev })(e)
	}
}

// HandleProposalAccept returns a handler that accepts the proposal at the
// current effective prices, ending the negotiation.
func HandleProposalAccept(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return terminalActionHandler(app, services.AcceptProposal)
}

// HandleProposalReject returns a handler that rejects the proposal, ending
// the negotiation.
func HandleProposalReject(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return terminalActionHandler(app, services.RejectProposal)
}

// HandleProposalResubmit returns a handler that lets the vendor answer the
// owner's counter-offer with fully re-priced lines, restarting the cycle.
func HandleProposalResubmit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var payload resubmitPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}

		apply := func(e *core.RequestEvent, actor services.Actor, p *services.Proposal, tree *services.BOQ) error {
			if len(payload.BOQPricing) != tree.LeafCount() {
				return &services.PolicyError{Reason: "The resubmission must price every BOQ line exactly once"}
			}
			lines := services.FlattenBOQ(tree)
			for i := range lines {
				if payload.BOQPricing[i].VendorPrice < 0 {
					return &services.PolicyError{Reason: "Prices cannot be negative"}
				}
				lines[i].VendorPrice = payload.BOQPricing[i].VendorPrice
			}
			return services.ResubmitProposal(p, actor, lines, time.Now().UTC())
		}
		return negotiationHandler(app, apply, func(*core.RequestEvent) int { return payload.ExpectedRev })(e)
	}
}

// terminalActionHandler wires accept/reject, which share their payload and
// flow.
func terminalActionHandler(app *pocketbase.PocketBase, action func(*services.Proposal, services.Actor, string, time.Time) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var payload negotiationActionPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}

		apply := func(e *core.RequestEvent, actor services.Actor, p *services.Proposal, _ *services.BOQ) error {
			return action(p, actor, payload.Message, time.Now().UTC())
		}
		return negotiationHandler(app, apply, func(*core.RequestEvent) int { return payload.ExpectedRev })(e)
	}
}

// negotiationHandler is the shared skeleton of every negotiation endpoint:
// resolve actor and project, locate the vendor's proposal inside the
// transactional update, apply the state transition, persist. A blocked
// transition surfaces as 409 with the policy reason and leaves the record
// untouched.
func negotiationHandler(
	app *pocketbase.PocketBase,
	apply func(e *core.RequestEvent, actor services.Actor, p *services.Proposal, tree *services.BOQ) error,
	expectedRev func(e *core.RequestEvent) int,
) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}

		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}

		vendorID := e.Request.PathValue("vendorId")
		if vendorID == "" {
			// Vendor-side endpoints act on the caller's own proposal.
			vendorID = actor.ID
		}

		var result *services.Proposal
		err = MutateProposals(app, record.Id, expectedRev(e), func(rec *core.Record, list []*services.Proposal) ([]*services.Proposal, error) {
			_, proposal := services.FindVendorProposal(list, vendorID)
			if proposal == nil {
				return nil, errProposalNotFound
			}
			if err := apply(e, actor, proposal, projectBOQ(rec)); err != nil {
				return nil, err
			}
			result = proposal
			return list, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, errProposalNotFound):
				return jsonError(e, http.StatusNotFound, "Proposal not found")
			case errors.Is(err, ErrProposalsConflict):
				return jsonError(e, http.StatusConflict, "The proposal changed since you loaded it; refresh and retry")
			default:
				var policyErr *services.PolicyError
				if errors.As(err, &policyErr) {
					return jsonError(e, http.StatusConflict, policyErr.Reason)
				}
				log.Printf("negotiation: action failed on project %s: %v", record.Id, err)
				return jsonError(e, http.StatusInternalServerError, "Internal error")
			}
		}

		return e.JSON(http.StatusOK, map[string]any{
			"vendorId":        result.VendorIdentity(),
			"status":          result.CurrentStatus(),
			"negotiatedTotal": services.NegotiatedTotal(result),
		})
	}
}

var errProposalNotFound = errors.New("proposal not found")
