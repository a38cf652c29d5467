package collections

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"

	"renovasi/services"
)

// MigrateLegacyProjectDocuments rewrites projects whose stored documents
// still use legacy shapes: BOQ trees stored as bare phase arrays or under
// tahapanKerja, and proposal lists stored as keyed objects instead of
// arrays. Safe to call on every startup -- records already in canonical
// form are left untouched.
func MigrateLegacyProjectDocuments(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("migrate: could not find projects collection: %w", err)
	}

	records, err := app.FindRecordsByFilter(projectsCol, "id != ''", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate: could not list projects: %w", err)
	}

	migrated := 0
	for _, record := range records {
		changed := false

		rawBOQ := record.GetString("boq")
		if rawBOQ != "" && rawBOQ != "null" {
			tree := services.DecodeBOQ(rawBOQ)
			canonical, err := json.Marshal(tree)
			if err != nil {
				log.Printf("migrate: could not re-encode BOQ for project %s: %v\n", record.Id, err)
			} else if string(canonical) != rawBOQ {
				record.Set("boq", tree)
				changed = true
			}
		} else if v, ok := services.CoalesceBOQField(map[string]any{
			"boq":          rawBOQ,
			"attachedBOQ":  record.GetString("attachedBOQ"),
			"tahapanKerja": record.GetString("tahapanKerja"),
		}); ok {
			// The tree lives under a legacy field name; move it to boq.
			tree := services.DecodeBOQ(v)
			if !tree.IsEmpty() {
				record.Set("boq", tree)
				changed = true
			}
		}

		rawProposals := record.GetString("proposals")
		if rawProposals != "" && rawProposals != "null" {
			var decoded any
			if err := json.Unmarshal([]byte(rawProposals), &decoded); err != nil {
				log.Printf("migrate: unreadable proposals on project %s: %v\n", record.Id, err)
			} else if _, isList := decoded.([]any); !isList {
				record.Set("proposals", services.NormalizeProposals(decoded))
				changed = true
			}
		}

		if record.GetFloat("proposals_rev") == 0 {
			record.Set("proposals_rev", 1)
			changed = true
		}

		if !changed {
			continue
		}
		if err := app.Save(record); err != nil {
			log.Printf("migrate: failed to save project %s: %v\n", record.Id, err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		log.Printf("migrate: rewrote %d project(s) with legacy documents.\n", migrated)
	}
	return nil
}
