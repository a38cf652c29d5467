package collections_test

import (
	"testing"

	"renovasi/collections"
	"renovasi/testhelpers"
)

// expectedCollections is the full list of collections that Setup() must create.
var expectedCollections = []string{
	"projects",
	"vendors",
	"payments",
}

func TestSetup_AllCollectionsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q not found after Setup(): %v", name, err)
			continue
		}
		if col.Name != name {
			t.Errorf("expected collection name %q, got %q", name, col.Name)
		}
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	ids := make(map[string]string)
	for _, name := range expectedCollections {
		col, _ := app.FindCollectionByNameOrId(name)
		ids[name] = col.Id
	}

	collections.Setup(app)

	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q missing after second Setup(): %v", name, err)
			continue
		}
		if col.Id != ids[name] {
			t.Errorf("collection %q was recreated: id %q -> %q", name, ids[name], col.Id)
		}
	}
}

func TestSetup_ProjectFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("projects collection: %v", err)
	}
	for _, field := range []string{"name", "owner_id", "status", "boq", "proposals", "proposals_rev", "documents"} {
		if col.Fields.GetByName(field) == nil {
			t.Errorf("projects collection is missing field %q", field)
		}
	}
}
