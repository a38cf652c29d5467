package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
	"renovasi/templates"
)

// HandleProjectListPage returns a handler that renders the HTML project
// index.
func HandleProjectListPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("projects", "id != ''", "-created", 0, 0, nil)
		if err != nil {
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		data := templates.ProjectListData{}
		for _, record := range records {
			tree := projectBOQ(record)
			data.Projects = append(data.Projects, templates.ProjectListItem{
				ID:            record.Id,
				Name:          record.GetString("name"),
				Status:        record.GetString("status"),
				Budget:        record.GetFloat("budget"),
				SpecCount:     tree.LeafCount(),
				ProposalCount: len(projectProposals(record)),
			})
		}

		component := templates.ProjectListPage(data)
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleProjectViewPage returns a handler that renders one project's BOQ and
// proposal summaries as HTML.
func HandleProjectViewPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := findProject(app, e)
		if err != nil {
			return e.String(http.StatusNotFound, "Project not found")
		}

		tree := projectBOQ(record)
		data := templates.ProjectViewData{
			ID:          record.Id,
			Name:        record.GetString("name"),
			Description: record.GetString("description"),
			Status:      record.GetString("status"),
			Budget:      record.GetFloat("budget"),
		}
		for _, l := range services.FlattenBOQ(tree) {
			phaseName := ""
			if pi, _, _, _, ok := services.ParseSpecID(l.ID); ok && pi < len(tree.Phases) {
				phaseName = tree.Phases[pi].Name
			}
			data.Lines = append(data.Lines, templates.ProjectLineView{
				ItemName:       l.ItemName,
				PhaseName:      phaseName,
				Volume:         l.Volume,
				Unit:           l.Unit,
				ReferencePrice: l.OriginalPrice,
			})
		}
		for _, p := range projectProposals(record) {
			data.Proposals = append(data.Proposals, templates.ProjectProposalView{
				VendorID:    p.VendorIdentity(),
				VendorName:  p.VendorName,
				Status:      p.CurrentStatus(),
				TotalAmount: p.TotalAmount,
			})
		}

		component := templates.ProjectViewPage(data)
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleNegotiationPage returns a handler that renders one proposal's
// negotiation state as HTML.
func HandleNegotiationPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := findProject(app, e)
		if err != nil {
			return e.String(http.StatusNotFound, "Project not found")
		}

		vendorID := e.Request.PathValue("vendorId")
		_, proposal := services.FindVendorProposal(projectProposals(record), vendorID)
		if proposal == nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		data := templates.NegotiationData{
			ProjectName:     record.GetString("name"),
			VendorName:      proposal.VendorName,
			Status:          proposal.CurrentStatus(),
			TotalAmount:     proposal.TotalAmount,
			NegotiatedTotal: services.NegotiatedTotal(proposal),
		}
		for _, l := range services.ResolveEffectivePrices(proposal) {
			data.Lines = append(data.Lines, templates.NegotiationLineView{
				ItemName:       l.ItemName,
				Volume:         l.Volume,
				Unit:           l.Unit,
				VendorPrice:    l.VendorPrice,
				EffectivePrice: l.EffectivePrice,
				Countered:      l.Countered,
				Subtotal:       l.Subtotal,
			})
		}
		if proposal.Negotiation != nil {
			data.History = proposal.Negotiation.History
		}

		component := templates.NegotiationPage(data)
		return component.Render(e.Request.Context(), e.Response)
	}
}
