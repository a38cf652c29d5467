package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// projectPayload is the JSON body for creating or updating a project.
type projectPayload struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Address     string        `json:"address"`
	Status      string        `json:"status"`
	Budget      float64       `json:"budget"`
	BOQ         *services.BOQ `json:"boq"`
}

// HandleProjectList returns a handler that lists all projects with summary
// numbers.
func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("projects", "id != ''", "-created", 0, 0, nil)
		if err != nil {
			log.Printf("projects: could not list projects: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		items := make([]map[string]any, 0, len(records))
		for _, record := range records {
			tree := projectBOQ(record)
			proposals := projectProposals(record)
			items = append(items, map[string]any{
				"id":            record.Id,
				"name":          record.GetString("name"),
				"status":        record.GetString("status"),
				"address":       record.GetString("address"),
				"budget":        record.GetFloat("budget"),
				"ownerName":     record.GetString("owner_name"),
				"specCount":     tree.LeafCount(),
				"proposalCount": len(proposals),
			})
		}
		return e.JSON(http.StatusOK, map[string]any{"projects": items})
	}
}

// HandleProjectCreate returns a handler that creates a project owned by the
// acting user.
func HandleProjectCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}

		var payload projectPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if payload.Name == "" {
			return jsonError(e, http.StatusBadRequest, "Project name is required")
		}
		status := payload.Status
		if status == "" {
			status = "draft"
		}

		col, err := app.FindCollectionByNameOrId("projects")
		if err != nil {
			log.Printf("projects: could not find projects collection: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		record := core.NewRecord(col)
		record.Set("name", payload.Name)
		record.Set("description", payload.Description)
		record.Set("address", payload.Address)
		record.Set("status", status)
		record.Set("budget", payload.Budget)
		record.Set("owner_id", actor.ID)
		record.Set("owner_name", actor.Name)
		record.Set("owner_email", actor.Email)
		if payload.BOQ != nil {
			record.Set("boq", payload.BOQ)
		}
		record.Set("proposals", []*services.Proposal{})
		record.Set("proposals_rev", 1)

		if err := app.Save(record); err != nil {
			log.Printf("projects: could not save project: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusCreated, map[string]any{"id": record.Id})
	}
}

// HandleProjectView returns a handler that renders one project with its
// decoded BOQ tree and per-proposal totals.
func HandleProjectView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}

		tree := projectBOQ(record)
		proposals := projectProposals(record)

		proposalViews := make([]map[string]any, 0, len(proposals))
		for _, p := range proposals {
			proposalViews = append(proposalViews, map[string]any{
				"vendorId":        p.VendorIdentity(),
				"vendorName":      p.VendorName,
				"status":          p.CurrentStatus(),
				"negotiable":      p.Negotiable,
				"totalAmount":     p.TotalAmount,
				"negotiatedTotal": services.NegotiatedTotal(p),
				"submittedAt":     p.SubmittedAt,
				"updatedAt":       p.UpdatedAt,
			})
		}

		return e.JSON(http.StatusOK, map[string]any{
			"id":           record.Id,
			"name":         record.GetString("name"),
			"description":  record.GetString("description"),
			"address":      record.GetString("address"),
			"status":       record.GetString("status"),
			"budget":       record.GetFloat("budget"),
			"ownerId":      record.GetString("owner_id"),
			"ownerName":    record.GetString("owner_name"),
			"boq":          tree,
			"specCount":    tree.LeafCount(),
			"proposals":    proposalViews,
			"proposalsRev": int(record.GetFloat("proposals_rev")),
		})
	}
}

// HandleProjectUpdate returns a handler that updates a project's metadata
// and, while no proposals exist yet, its BOQ tree. Once a vendor has priced
// the BOQ its shape is frozen: pricing lines are matched to specs by
// position, so reshaping the tree would silently re-price the wrong items.
func HandleProjectUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}

		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}
		if record.GetString("owner_id") != actor.ID && actor.Role != services.RoleAdmin {
			return jsonError(e, http.StatusForbidden, "Only the project owner can update the project")
		}

		var payload projectPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}

		if payload.Name != "" {
			record.Set("name", payload.Name)
		}
		if payload.Description != "" {
			record.Set("description", payload.Description)
		}
		if payload.Address != "" {
			record.Set("address", payload.Address)
		}
		if payload.Status != "" {
			record.Set("status", payload.Status)
		}
		if payload.Budget > 0 {
			record.Set("budget", payload.Budget)
		}
		if payload.BOQ != nil {
			proposals := projectProposals(record)
			if len(proposals) > 0 && !payload.BOQ.SameShape(projectBOQ(record)) {
				return jsonError(e, http.StatusConflict,
					"The BOQ structure cannot change after proposals have been submitted")
			}
			record.Set("boq", payload.BOQ)
		}

		if err := app.Save(record); err != nil {
			log.Printf("projects: could not update project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusOK, map[string]any{"id": record.Id})
	}
}

// HandleProjectDelete returns a handler that deletes a project.
func HandleProjectDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}

		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}
		if record.GetString("owner_id") != actor.ID && actor.Role != services.RoleAdmin {
			return jsonError(e, http.StatusForbidden, "Only the project owner can delete the project")
		}

		if err := app.Delete(record); err != nil {
			log.Printf("projects: could not delete project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusOK, map[string]any{"deleted": record.Id})
	}
}
