package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/config"
	"renovasi/services"
)

// HandleBOQTemplate returns a handler that serves the downloadable CSV
// import template.
func HandleBOQTemplate() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		e.Response.Header().Set("Content-Type", "text/csv")
		e.Response.Header().Set("Content-Disposition", `attachment; filename="boq_template.csv"`)
		e.Response.WriteHeader(http.StatusOK)
		_, err := e.Response.Write(services.BOQCSVTemplate())
		return err
	}
}

// HandleBOQImport returns a handler that parses an uploaded CSV into the
// project's BOQ tree. The upload replaces the whole tree; it is rejected
// while proposals exist (pricing is positional), when it exceeds the
// configured row cap, or when any row fails validation, so a partially
// valid file never half-imports.
func HandleBOQImport(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
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
			return jsonError(e, http.StatusForbidden, "Only the project owner can import a BOQ")
		}
		if len(projectProposals(record)) > 0 {
			return jsonError(e, http.StatusConflict,
				"The BOQ cannot be replaced after proposals have been submitted")
		}

		file, _, err := e.Request.FormFile("file")
		if err != nil {
			return jsonError(e, http.StatusBadRequest, "Upload a CSV file under the \"file\" form field")
		}
		defer file.Close()

		result, err := services.ParseBOQCSV(file, cfg.MaxImportRows)
		if err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		if result.ErrorRows > 0 {
			return e.JSON(http.StatusUnprocessableEntity, map[string]any{
				"error":      "Some rows failed validation; nothing was imported",
				"total_rows": result.TotalRows,
				"error_rows": result.ErrorRows,
				"errors":     result.Errors,
			})
		}

		record.Set("boq", result.Tree)
		if err := app.Save(record); err != nil {
			log.Printf("boq_import: could not save project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"imported_rows": result.ValidRows,
			"spec_count":    result.Tree.LeafCount(),
			"phases":        len(result.Tree.Phases),
		})
	}
}
