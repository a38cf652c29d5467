package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/collections"
	"renovasi/config"
	"renovasi/handlers"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := pocketbase.New()

	// Create collections, migrate legacy documents and optionally seed demo
	// data on startup.
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
			log.Printf("Warning: legacy document migration failed: %v", err)
		}
		if cfg.SeedDemoData {
			if err := collections.SeedDemoData(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Resolve the acting identity for every request.
		se.Router.BindFunc(handlers.ActorMiddleware())

		// ── Project CRUD ─────────────────────────────────────────
		se.Router.GET("/api/renovasi/projects", handlers.HandleProjectList(app))
		se.Router.POST("/api/renovasi/projects", handlers.HandleProjectCreate(app))
		se.Router.GET("/api/renovasi/projects/{projectId}", handlers.HandleProjectView(app))
		se.Router.PATCH("/api/renovasi/projects/{projectId}", handlers.HandleProjectUpdate(app))
		se.Router.DELETE("/api/renovasi/projects/{projectId}", handlers.HandleProjectDelete(app))

		// ── BOQ import ───────────────────────────────────────────
		se.Router.GET("/api/renovasi/boq/template", handlers.HandleBOQTemplate())
		se.Router.POST("/api/renovasi/projects/{projectId}/boq/import", handlers.HandleBOQImport(app, cfg))

		// ── Proposals ────────────────────────────────────────────
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals", handlers.HandleProposalSubmit(app))
		se.Router.GET("/api/renovasi/projects/{projectId}/proposals/mine", handlers.HandleProposalMine(app))
		se.Router.GET("/api/renovasi/projects/{projectId}/proposals/{vendorId}", handlers.HandleProposalDetail(app))

		// ── Negotiation ──────────────────────────────────────────
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals/{vendorId}/negotiation/open", handlers.HandleNegotiationOpen(app))
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals/{vendorId}/negotiation/counter-offer", handlers.HandleCounterOffer(app))
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals/{vendorId}/negotiation/accept", handlers.HandleProposalAccept(app))
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals/{vendorId}/negotiation/reject", handlers.HandleProposalReject(app))
		se.Router.POST("/api/renovasi/projects/{projectId}/proposals/resubmit", handlers.HandleProposalResubmit(app))

		// ── Exports ──────────────────────────────────────────────
		se.Router.GET("/api/renovasi/projects/{projectId}/proposals/{vendorId}/export/excel", handlers.HandleProposalExportExcel(app, cfg))
		se.Router.GET("/api/renovasi/projects/{projectId}/proposals/{vendorId}/export/workorder", handlers.HandleWorkOrderPDF(app, cfg))

		// ── Payments ─────────────────────────────────────────────
		se.Router.POST("/api/renovasi/projects/{projectId}/payments", handlers.HandlePaymentCreate(app))
		se.Router.GET("/api/renovasi/projects/{projectId}/payments", handlers.HandlePaymentList(app))
		se.Router.PATCH("/api/renovasi/payments/{paymentId}/status", handlers.HandlePaymentUpdateStatus(app))

		// ── Admin ────────────────────────────────────────────────
		se.Router.GET("/api/renovasi/admin/stats", handlers.HandleAdminStats(app, cfg))

		// ── Read-only HTML views ─────────────────────────────────
		se.Router.GET("/projects/view", handlers.HandleProjectListPage(app))
		se.Router.GET("/projects/{projectId}/view", handlers.HandleProjectViewPage(app))
		se.Router.GET("/projects/{projectId}/proposals/{vendorId}/view", handlers.HandleNegotiationPage(app))

		// Redirect home to the project index
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/projects/view")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
