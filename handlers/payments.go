package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// paymentPayload is the JSON body for recording a payment.
type paymentPayload struct {
	VendorID  string  `json:"vendorId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
}

// HandlePaymentCreate returns a handler that records a pending payment from
// the project owner to the awarded vendor.
func HandlePaymentCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
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
			return jsonError(e, http.StatusForbidden, "Only the project owner can record payments")
		}

		var payload paymentPayload
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if payload.Amount <= 0 {
			return jsonError(e, http.StatusBadRequest, "Amount must be greater than zero")
		}

		_, proposal := services.FindVendorProposal(projectProposals(record), payload.VendorID)
		if proposal == nil {
			return jsonError(e, http.StatusNotFound, "No proposal from that vendor on this project")
		}
		if proposal.CurrentStatus() != services.ProposalStatusAccepted {
			return jsonError(e, http.StatusConflict, "Payments can only be recorded against an accepted proposal")
		}

		col, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			log.Printf("payments: could not find payments collection: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		payment := core.NewRecord(col)
		payment.Set("project", record.Id)
		payment.Set("vendor_id", payload.VendorID)
		payment.Set("amount", payload.Amount)
		payment.Set("status", services.PaymentStatusPending)
		payment.Set("method", payload.Method)
		payment.Set("reference", payload.Reference)

		if err := app.Save(payment); err != nil {
			log.Printf("payments: could not save payment for project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusCreated, map[string]any{"id": payment.Id, "status": payment.GetString("status")})
	}
}

// HandlePaymentList returns a handler that lists a project's payments.
func HandlePaymentList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := findProject(app, e)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Project not found")
		}

		payments, err := app.FindRecordsByFilter("payments", "project = {:p}", "-created", 0, 0, map[string]any{"p": record.Id})
		if err != nil {
			log.Printf("payments: could not list payments for project %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		items := make([]map[string]any, 0, len(payments))
		for _, p := range payments {
			items = append(items, map[string]any{
				"id":        p.Id,
				"vendorId":  p.GetString("vendor_id"),
				"amount":    p.GetFloat("amount"),
				"status":    p.GetString("status"),
				"method":    p.GetString("method"),
				"reference": p.GetString("reference"),
			})
		}
		return e.JSON(http.StatusOK, map[string]any{"payments": items})
	}
}

// HandlePaymentUpdateStatus returns a handler that marks a payment paid or
// failed.
func HandlePaymentUpdateStatus(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor, ok := RequireActor(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Actor identity required")
		}
		if actor.Role != services.RoleAdmin {
			return jsonError(e, http.StatusForbidden, "Only admins can update payment status")
		}

		payment, err := app.FindRecordById("payments", e.Request.PathValue("paymentId"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Payment not found")
		}

		var payload struct {
			Status string `json:"status"`
		}
		if err := e.BindBody(&payload); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		switch payload.Status {
		case services.PaymentStatusPaid, services.PaymentStatusFailed, services.PaymentStatusPending:
		default:
			return jsonError(e, http.StatusBadRequest, "status must be pending, paid or failed")
		}

		payment.Set("status", payload.Status)
		if err := app.Save(payment); err != nil {
			log.Printf("payments: could not update payment %s: %v", payment.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusOK, map[string]any{"id": payment.Id, "status": payload.Status})
	}
}
