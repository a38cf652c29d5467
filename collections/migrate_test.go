package collections_test

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/collections"
	"renovasi/services"
	"renovasi/testhelpers"
)

// legacyProject inserts a project whose boq and proposals still use legacy
// storage shapes.
func legacyProject(t *testing.T, app *pocketbase.PocketBase) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatal(err)
	}
	record := core.NewRecord(col)
	record.Set("name", "Legacy Project")
	record.Set("owner_id", "owner-legacy")
	record.Set("status", "open")
	// Bare phase array instead of {"phases": [...]}.
	record.Set("boq", []map[string]any{
		{
			"name": "Persiapan",
			"workTypes": []map[string]any{
				{
					"name": "Pembersihan",
					"descriptions": []map[string]any{
						{
							"name": "Pembersihan lahan",
							"specs": []map[string]any{
								{"description": "Bongkar dinding", "volume": 10, "unit": "m2", "referencePricePerUnit": 45000},
							},
						},
					},
				},
			},
		},
	})
	// Keyed object instead of an array, with a null entry.
	record.Set("proposals", map[string]any{
		"1": map[string]any{"vendorId": "vendor-b", "totalAmount": 2000, "status": "submitted"},
		"0": map[string]any{"vendorId": "vendor-a", "totalAmount": 1000, "status": "submitted"},
		"2": nil,
	})

	if err := app.Save(record); err != nil {
		t.Fatal(err)
	}
	return record
}

func TestMigrateLegacyProjectDocuments(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	legacy := legacyProject(t, app)

	if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	saved, err := app.FindRecordById("projects", legacy.Id)
	if err != nil {
		t.Fatal(err)
	}

	tree := services.DecodeBOQ(saved.GetString("boq"))
	if tree.LeafCount() != 1 {
		t.Errorf("migrated BOQ should keep its specs, got %d leaves", tree.LeafCount())
	}

	list := services.DecodeProposals(saved.GetString("proposals"))
	if len(list) != 2 {
		t.Fatalf("expected 2 proposals after migration (null dropped), got %d", len(list))
	}
	if list[0].VendorID != "vendor-a" || list[1].VendorID != "vendor-b" {
		t.Errorf("numeric keys should order the list: %q, %q", list[0].VendorID, list[1].VendorID)
	}
	if int(saved.GetFloat("proposals_rev")) == 0 {
		t.Error("migration should initialize proposals_rev")
	}
}

func TestMigrateLegacyProjectDocuments_LegacyFieldName(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	// Older deployments stored the tree under an attachedBOQ column.
	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatal(err)
	}
	col.Fields.Add(&core.JSONField{Name: "attachedBOQ", MaxSize: 5 << 20})
	if err := app.Save(col); err != nil {
		t.Fatal(err)
	}

	record := core.NewRecord(col)
	record.Set("name", "Legacy Field Project")
	record.Set("owner_id", "owner-legacy")
	record.Set("status", "open")
	record.Set("attachedBOQ", map[string]any{
		"phases": []map[string]any{
			{
				"name": "Persiapan",
				"workTypes": []map[string]any{
					{
						"name": "Pembersihan",
						"descriptions": []map[string]any{
							{
								"name": "Pembersihan lahan",
								"specs": []map[string]any{
									{"description": "Bongkar dinding", "volume": 10, "unit": "m2", "referencePricePerUnit": 45000},
								},
							},
						},
					},
				},
			},
		},
	})
	if err := app.Save(record); err != nil {
		t.Fatal(err)
	}

	if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	saved, err := app.FindRecordById("projects", record.Id)
	if err != nil {
		t.Fatal(err)
	}
	tree := services.DecodeBOQ(saved.GetString("boq"))
	if tree.LeafCount() != 1 {
		t.Errorf("tree under attachedBOQ should be moved to boq, got %d leaves", tree.LeafCount())
	}
}

func TestMigrateLegacyProjectDocuments_CanonicalUntouched(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Canonical Project")
	before := proj.GetString("updated")

	if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	saved, err := app.FindRecordById("projects", proj.Id)
	if err != nil {
		t.Fatal(err)
	}
	if saved.GetString("updated") != before {
		t.Error("canonical records should not be rewritten")
	}
}

func TestMigrateLegacyProjectDocuments_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	legacy := legacyProject(t, app)

	if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	saved, _ := app.FindRecordById("projects", legacy.Id)
	firstProposals := saved.GetString("proposals")

	if err := collections.MigrateLegacyProjectDocuments(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}
	saved, _ = app.FindRecordById("projects", legacy.Id)
	if saved.GetString("proposals") != firstProposals {
		t.Error("second run should be a no-op on already-migrated records")
	}
}
