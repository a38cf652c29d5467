package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/config"
	"renovasi/services"
)

// HandleAdminStats returns a handler that serves the admin dashboard
// aggregates.
func HandleAdminStats(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}
		if actor.Role != services.RoleAdmin {
			return jsonError(e, http.StatusForbidden, "Only admins can view platform stats")
		}

		projectRecords, err := app.FindRecordsByFilter("projects", "id != ''", "", 0, 0, nil)
		if err != nil {
			log.Printf("stats: could not list projects: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}
		projects := make([]services.ProjectSummary, 0, len(projectRecords))
		for _, record := range projectRecords {
			projects = append(projects, services.ProjectSummary{
				ID:        record.Id,
				Status:    record.GetString("status"),
				Proposals: projectProposals(record),
			})
		}

		paymentRecords, err := app.FindRecordsByFilter("payments", "id != ''", "", 0, 0, nil)
		if err != nil {
			log.Printf("stats: could not list payments: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}
		payments := make([]services.PaymentSummary, 0, len(paymentRecords))
		for _, record := range paymentRecords {
			payments = append(payments, services.PaymentSummary{
				Amount: record.GetFloat("amount"),
				Status: record.GetString("status"),
			})
		}

		stats := services.ComputeDashboardStats(projects, payments, cfg.PlatformFeePercent)
		return e.JSON(http.StatusOK, stats)
	}
}
