package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// proposalPayload is the JSON body for submitting a proposal.
type proposalPayload struct {
	BOQPricing []services.PricingLine `json:"boqPricing"`
	Negotiable string                 `json:"negotiable"`
}

// HandleProposalSubmit returns a handler that lets a vendor submit their
// priced proposal for a project. Subtotals and the grand total are always
// recomputed server-side from volume and unit price; client-sent totals are
// ignored.
func HandleProposalSubmit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}
		if actor.Role != services.RoleVendor {
			return jsonError(e, http.StatusForbidden, "Only vendors can submit proposals")
		}

		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}
		if record.GetString("status") != "open" {
			return jsonError(e, http.StatusConflict, "This project is not accepting proposals")
		}

		var payload proposalPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}

		tree := projectBOQ(record)
		if tree.IsEmpty() {
			return jsonError(e, http.StatusConflict, "This project has no BOQ to price yet")
		}
		if len(payload.BOQPricing) != tree.LeafCount() {
			return jsonError(e, http.StatusBadRequest, "The proposal must price every BOQ line exactly once")
		}
		for i := range payload.BOQPricing {
			if payload.BOQPricing[i].VendorPrice < 0 {
				return jsonError(e, http.StatusBadRequest, "Prices cannot be negative")
			}
		}

		negotiable := payload.Negotiable
		if negotiable == "" {
			negotiable = services.NegotiableYes
		}
		if negotiable != services.NegotiableYes && negotiable != services.NegotiableNo {
			return jsonError(e, http.StatusBadRequest, "negotiable must be \"negotiable\" or \"fixed\"")
		}

		// Align the pricing lines with the tree so item names, volumes and
		// reference prices come from the project, not the client.
		lines := services.FlattenBOQ(tree)
		for i := range lines {
			lines[i].VendorPrice = payload.BOQPricing[i].VendorPrice
			lines[i].Subtotal = services.LineSubtotal(lines[i].Volume, lines[i].VendorPrice)
		}

		now := time.Now().UTC()
		proposal := &services.Proposal{
			VendorID:    actor.ID,
			VendorName:  actor.Name,
			SubmittedAt: now,
			UpdatedAt:   now,
			BOQPricing:  lines,
			TotalAmount: services.GrandTotal(lines),
			Negotiable:  negotiable,
			Status:      services.ProposalStatusSubmitted,
		}

		err = MutateProposals(app, record.Id, 0, func(_ *core.Record, list []*services.Proposal) ([]*services.Proposal, error) {
			idx, existing := services.FindVendorProposal(list, actor.ID)
			if existing != nil {
				if existing.CurrentStatus() != services.ProposalStatusRejected {
					return nil, &services.PolicyError{Reason: "You already have an active proposal on this project"}
				}
				// A rejected proposal may be replaced by a fresh one.
				list[idx] = proposal
				return list, nil
			}
			return append(list, proposal), nil
		})
		if err != nil {
			var policyErr *services.PolicyError
			if errors.As(err, &policyErr) {
				return jsonError(e, http.StatusConflict, policyErr.Reason)
			}
			log.Printf("proposals: could not save proposal for project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"vendorId":    actor.ID,
			"totalAmount": proposal.TotalAmount,
			"status":      proposal.Status,
		})
	}
}

// HandleProposalMine returns a handler that shows the acting vendor their
// own proposal with effective (negotiated) prices resolved per line. Having
// no proposal yet is a normal state, not an error.
func HandleProposalMine(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}

		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}

		_, proposal := services.FindVendorProposal(projectProposals(record), actor.ID)
		if proposal == nil {
			return e.JSON(http.StatusOK, map[string]any{
				"submitted": false,
				"project":   record.GetString("name"),
			})
		}

		return e.JSON(http.StatusOK, map[string]any{
			"submitted":       true,
			"project":         record.GetString("name"),
			"proposal":        proposalDetail(proposal),
			"negotiatedTotal": services.NegotiatedTotal(proposal),
		})
	}
}

// HandleProposalDetail returns a handler that shows the project owner one
// vendor's proposal in full, including the negotiation history.
func HandleProposalDetail(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
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
		_, proposal := services.FindVendorProposal(projectProposals(record), vendorID)
		if proposal == nil {
			return jsonError(e, http.StatusNotFound, "Proposal not found")
		}

		isOwner := record.GetString("owner_id") == actor.ID
		isSelf := proposal.VendorIdentity() == actor.ID
		if !isOwner && !isSelf && actor.Role != services.RoleAdmin {
			return jsonError(e, http.StatusForbidden, "Not allowed to view this proposal")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"project":         record.GetString("name"),
			"proposal":        proposalDetail(proposal),
			"negotiatedTotal": services.NegotiatedTotal(proposal),
		})
	}
}

// proposalDetail flattens a proposal into the response shape shared by the
// vendor and owner views.
func proposalDetail(p *services.Proposal) map[string]any {
	var history []services.HistoryEntry
	if p.Negotiation != nil {
		history = p.Negotiation.History
	}
	return map[string]any{
		"vendorId":    p.VendorIdentity(),
		"vendorName":  p.VendorName,
		"status":      p.CurrentStatus(),
		"negotiable":  p.Negotiable,
		"totalAmount": p.TotalAmount,
		"submittedAt": p.SubmittedAt,
		"updatedAt":   p.UpdatedAt,
		"lines":       services.ResolveEffectivePrices(p),
		"history":     history,
	}
}
