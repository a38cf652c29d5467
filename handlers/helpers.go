package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// ErrProposalsConflict is returned when a proposals update carried a stale
// revision, meaning another actor changed the list since the caller read it.
var ErrProposalsConflict = errors.New("proposals were modified concurrently")

// jsonError writes a uniform error payload.
func jsonError(e *core.RequestEvent, status int, msg string) error {
	return e.JSON(status, map[string]any{"error": msg})
}

// jsonPolicyError maps a blocked negotiation action to a 409 with the
// user-facing reason, and anything else to a 500.
func jsonPolicyError(e *core.RequestEvent, err error) error {
	var policyErr *services.PolicyError
	if errors.As(err, &policyErr) {
		return jsonError(e, http.StatusConflict, policyErr.Reason)
	}
	return jsonError(e, http.StatusInternalServerError, "Internal error")
}

// findProject loads a project record by the {projectId} path value.
func findProject(app *pocketbase.PocketBase, e *core.RequestEvent) (*core.Record, error) {
	projectID := e.Request.PathValue("projectId")
	if projectID == "" {
		return nil, fmt.Errorf("missing project id")
	}
	return app.FindRecordById("projects", projectID)
}

// projectBOQ decodes the stored BOQ tree of a project record, coalescing
// the legacy field names older records may still carry it under.
func projectBOQ(record *core.Record) *services.BOQ {
	v, ok := services.CoalesceBOQField(map[string]any{
		"boq":          record.GetString("boq"),
		"attachedBOQ":  record.GetString("attachedBOQ"),
		"tahapanKerja": record.GetString("tahapanKerja"),
	})
	if !ok {
		return &services.BOQ{}
	}
	return services.DecodeBOQ(v)
}

// projectProposals decodes and normalizes the stored proposal list of a
// project record.
func projectProposals(record *core.Record) []*services.Proposal {
	return services.DecodeProposals(record.GetString("proposals"))
}

// MutateProposals applies a read-modify-write to a project's proposal list
// inside a transaction. The record is re-read in the transaction and
// proposals_rev is compared against expectedRev before writing: a mismatch
// aborts with ErrProposalsConflict instead of silently clobbering another
// actor's update. Pass expectedRev <= 0 to skip the check (the transaction
// still serializes the write itself).
func MutateProposals(app *pocketbase.PocketBase, projectID string, expectedRev int, mutate func(record *core.Record, list []*services.Proposal) ([]*services.Proposal, error)) error {
	return app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("projects", projectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", projectID, err)
		}

		rev := int(record.GetFloat("proposals_rev"))
		if expectedRev > 0 && rev != expectedRev {
			return ErrProposalsConflict
		}

		list := projectProposals(record)
		updated, err := mutate(record, list)
		if err != nil {
			return err
		}

		record.Set("proposals", updated)
		record.Set("proposals_rev", rev+1)
		return txApp.Save(record)
	})
}
