// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/collections"
	"renovasi/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// SampleBOQ returns a small two-phase BOQ tree with four priced specs.
func SampleBOQ() *services.BOQ {
	return &services.BOQ{
		Phases: []services.Phase{
			{
				Name: "Persiapan",
				WorkTypes: []services.WorkType{
					{
						Name: "Pembersihan",
						Descriptions: []services.Description{
							{
								Name: "Pembersihan lahan",
								Specs: []services.Spec{
									{Description: "Bongkar dinding", Volume: 10, Unit: "m2", ReferencePrice: 45000},
									{Description: "Angkut puing", Volume: 5, Unit: "m3", ReferencePrice: 120000},
								},
							},
						},
					},
				},
			},
			{
				Name: "Struktur",
				WorkTypes: []services.WorkType{
					{
						Name: "Pondasi",
						Descriptions: []services.Description{
							{
								Name: "Galian dan pondasi",
								Specs: []services.Spec{
									{Description: "Galian tanah", Volume: 18, Unit: "m3", ReferencePrice: 95000},
									{Description: "Pasangan batu kali", Volume: 12, Unit: "m3", ReferencePrice: 850000},
								},
							},
						},
					},
				},
			},
		},
	}
}

// CreateTestProject creates a project record with the sample BOQ and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("owner_id", "owner-1")
	record.Set("owner_name", "Test Owner")
	record.Set("status", "open")
	record.Set("boq", SampleBOQ())
	record.Set("proposals", []*services.Proposal{})
	record.Set("proposals_rev", 1)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// CreateTestVendor creates a vendor record with the given name and returns it.
func CreateTestVendor(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("vendors")
	if err != nil {
		t.Fatalf("failed to find vendors collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("email", "vendor@example.com")
	record.Set("phone", "0812000000")
	record.Set("company", name)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test vendor: %v", err)
	}

	return record
}

// SampleProposal builds a submitted, negotiable proposal from the sample BOQ
// priced at the reference prices.
func SampleProposal(vendorID, vendorName string) *services.Proposal {
	lines := services.FlattenBOQ(SampleBOQ())
	for i := range lines {
		lines[i].VendorPrice = lines[i].OriginalPrice
		lines[i].Subtotal = services.LineSubtotal(lines[i].Volume, lines[i].VendorPrice)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &services.Proposal{
		VendorID:    vendorID,
		VendorName:  vendorName,
		SubmittedAt: now,
		UpdatedAt:   now,
		BOQPricing:  lines,
		TotalAmount: services.GrandTotal(lines),
		Negotiable:  services.NegotiableYes,
		Status:      services.ProposalStatusSubmitted,
	}
}

// AttachProposal appends a proposal to a project record and saves it.
func AttachProposal(t *testing.T, app *pocketbase.PocketBase, record *core.Record, p *services.Proposal) {
	t.Helper()

	existing := services.DecodeProposals(record.GetString("proposals"))
	existing = append(existing, p)
	record.Set("proposals", existing)
	record.Set("proposals_rev", record.GetFloat("proposals_rev")+1)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to attach proposal: %v", err)
	}
}

// CreateTestPayment creates a payment record linked to a project.
func CreateTestPayment(t *testing.T, app *pocketbase.PocketBase, projectID, vendorID string, amount float64, status string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("payments")
	if err != nil {
		t.Fatalf("failed to find payments collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("vendor_id", vendorID)
	record.Set("amount", amount)
	record.Set("status", status)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test payment: %v", err)
	}

	return record
}
