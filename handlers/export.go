package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/config"
	"renovasi/services"
)

// HandleProposalExportExcel returns a handler that streams a vendor's
// proposal, with negotiated prices, as an xlsx download.
func HandleProposalExportExcel(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, proposal, errResp := exportTarget(app, e)
		if errResp != nil {
			return errResp(e)
		}

		tree := projectBOQ(record)
		data := services.ProposalExportData{
			ProjectName:     record.GetString("name"),
			VendorName:      proposal.VendorName,
			Status:          proposal.CurrentStatus(),
			SubmittedDate:   proposal.SubmittedAt.Format("2006-01-02"),
			Currency:        cfg.Currency,
			Rows:            services.BuildProposalExportRows(tree, proposal),
			TotalAmount:     proposal.TotalAmount,
			NegotiatedTotal: services.NegotiatedTotal(proposal),
		}

		raw, err := services.GenerateProposalExcel(data)
		if err != nil {
			log.Printf("export: could not generate excel for project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		filename := fmt.Sprintf("proposal_%s_%s.xlsx", record.Id, proposal.VendorIdentity())
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(raw)
		return err
	}
}

// HandleWorkOrderPDF returns a handler that streams the work order PDF for
// an accepted proposal.
func HandleWorkOrderPDF(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, proposal, errResp := exportTarget(app, e)
		if errResp != nil {
			return errResp(e)
		}

		if proposal.CurrentStatus() != services.ProposalStatusAccepted {
			return jsonError(e, http.StatusConflict, "A work order is only available for an accepted proposal")
		}

		tree := projectBOQ(record)
		data := &services.WorkOrderData{
			WorkOrderNumber: fmt.Sprintf("%s-%s", cfg.WorkOrderPrefix, record.Id),
			PlatformName:    cfg.AppName,
			ProjectName:     record.GetString("name"),
			ProjectAddress:  record.GetString("address"),
			IssueDate:       proposal.UpdatedAt.Format("2006-01-02"),
			Owner: services.WorkOrderParty{
				Name:  record.GetString("owner_name"),
				Email: record.GetString("owner_email"),
			},
			Vendor: services.WorkOrderParty{
				Name: proposal.VendorName,
			},
			Rows:            services.BuildProposalExportRows(tree, proposal),
			SubmittedTotal:  proposal.TotalAmount,
			NegotiatedTotal: services.NegotiatedTotal(proposal),
		}
		if proposal.Negotiation != nil {
			data.Vendor.Email = proposal.Negotiation.VendorInfo.Email
		}

		raw, err := services.GenerateWorkOrderPDF(data)
		if err != nil {
			log.Printf("export: could not generate work order for project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		filename := fmt.Sprintf("work_order_%s.pdf", record.Id)
		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(raw)
		return err
	}
}

// exportTarget resolves the project record and proposal an export endpoint
// acts on, enforcing that only the owner, the proposal's vendor or an admin
// may download it.
func exportTarget(app *pocketbase.PocketBase, e *core.RequestEvent) (*core.Record, *services.Proposal, func(*core.RequestEvent) error) {
	actor, ok := RequireActor(e)
	if !ok {
		return nil, nil, func(e *core.RequestEvent) error {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}
	}

	record, err := findProject(app, e)
	if err != nil {
		return nil, nil, func(e *core.RequestEvent) error {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}
	}

	vendorID := e.Request.PathValue("vendorId")
	_, proposal := services.FindVendorProposal(projectProposals(record), vendorID)
	if proposal == nil {
		return nil, nil, func(e *core.RequestEvent) error {
			return jsonError(e, http.StatusNotFound, "Proposal not found")
		}
	}

	isOwner := record.GetString("owner_id") == actor.ID
	isSelf := proposal.VendorIdentity() == actor.ID
	if !isOwner && !isSelf && actor.Role != services.RoleAdmin {
		return nil, nil, func(e *core.RequestEvent) error {
			return jsonError(e, http.StatusForbidden, "Not allowed to export this proposal")
		}
	}

	return record, proposal, nil
}
