package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the projects, vendors and payments
// collections exist.
//
// The BOQ tree and the proposal list live as JSON documents on the project
// record itself rather than as relational child collections: proposals are
// read and rewritten as a unit on every negotiation action, and the
// proposals_rev counter guards those rewrites against concurrent updates.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.TextField{Name: "owner_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "owner_name", Required: false})
		c.Fields.Add(&core.EmailField{Name: "owner_email", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "open", "in_progress", "completed", "cancelled"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "budget", Required: false})
		c.Fields.Add(&core.JSONField{Name: "boq", MaxSize: 5 << 20})
		c.Fields.Add(&core.JSONField{Name: "proposals", MaxSize: 10 << 20})
		c.Fields.Add(&core.NumberField{Name: "proposals_rev", Required: false})
		c.Fields.Add(&core.FileField{
			Name:      "documents",
			MaxSelect: 10,
			MaxSize:   10 << 20,
			MimeTypes: []string{"application/pdf", "image/jpeg", "image/png"},
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "vendors", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.EmailField{Name: "email", Required: false})
		c.Fields.Add(&core.TextField{Name: "phone", Required: false})
		c.Fields.Add(&core.TextField{Name: "company", Required: false})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "payments", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "vendor_id", Required: true})
		c.Fields.Add(&core.NumberField{Name: "amount", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"pending", "paid", "failed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "method", Required: false})
		c.Fields.Add(&core.TextField{Name: "reference", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
