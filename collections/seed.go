package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type specDef struct {
	description string
	volume      float64
	unit        string
	refPrice    float64
}

type descDef struct {
	name  string
	specs []specDef
}

type workTypeDef struct {
	name  string
	descs []descDef
}

type phaseDef struct {
	name      string
	workTypes []workTypeDef
}

type projectDef struct {
	name        string
	description string
	address     string
	ownerID     string
	ownerName   string
	ownerEmail  string
	status      string
	budget      float64
	phases      []phaseDef
}

type vendorDef struct {
	name    string
	email   string
	phone   string
	company string
	address string
}

// ── Seed data ────────────────────────────────────────────────────────────

var seedVendors = []vendorDef{
	{
		name:    "CV Karya Mandiri",
		email:   "karya.mandiri@example.com",
		phone:   "0812-0001-0001",
		company: "CV Karya Mandiri",
		address: "Jl. Cihampelas No. 45, Bandung",
	},
	{
		name:    "PT Bangun Sejahtera",
		email:   "bangun.sejahtera@example.com",
		phone:   "0812-0002-0002",
		company: "PT Bangun Sejahtera",
		address: "Jl. Gatot Subroto No. 101, Jakarta",
	},
}

var seedProjects = []projectDef{
	{
		name:        "Renovasi Rumah Tinggal Tipe 45",
		description: "Renovasi total rumah tinggal: pembongkaran, struktur dan finishing.",
		address:     "Jl. Melati No. 12, Bandung",
		ownerID:     "owner-demo-1",
		ownerName:   "Budi Santoso",
		ownerEmail:  "budi@example.com",
		status:      "open",
		budget:      150_000_000,
		phases: []phaseDef{
			{
				name: "Pekerjaan Persiapan",
				workTypes: []workTypeDef{
					{
						name: "Pembersihan",
						descs: []descDef{
							{
								name: "Pembersihan lahan",
								specs: []specDef{
									{"Bongkar dinding eksisting", 24, "m2", 45_000},
									{"Angkut puing keluar lokasi", 8, "m3", 120_000},
								},
							},
						},
					},
				},
			},
			{
				name: "Pekerjaan Struktur",
				workTypes: []workTypeDef{
					{
						name: "Pondasi",
						descs: []descDef{
							{
								name: "Galian dan pondasi batu kali",
								specs: []specDef{
									{"Galian tanah pondasi", 18, "m3", 95_000},
									{"Pasangan batu kali 1:4", 12, "m3", 850_000},
								},
							},
						},
					},
					{
						name: "Beton",
						descs: []descDef{
							{
								name: "Sloof dan kolom",
								specs: []specDef{
									{"Sloof beton 15/20", 32, "m", 185_000},
								},
							},
						},
					},
				},
			},
		},
	},
	{
		name:        "Pembangunan Pagar dan Carport",
		description: "Pagar depan 12 meter dan carport baja ringan.",
		address:     "Jl. Kenanga No. 3, Bandung",
		ownerID:     "owner-demo-2",
		ownerName:   "Sari Dewi",
		ownerEmail:  "sari@example.com",
		status:      "draft",
		budget:      35_000_000,
		phases: []phaseDef{
			{
				name: "Pekerjaan Pagar",
				workTypes: []workTypeDef{
					{
						name: "Pasangan",
						descs: []descDef{
							{
								name: "Pagar bata dan plester",
								specs: []specDef{
									{"Pasangan bata merah 1/2 batu", 21, "m2", 145_000},
									{"Plester dan aci dua sisi", 42, "m2", 75_000},
								},
							},
						},
					},
				},
			},
		},
	},
}

// SeedDemoData inserts demo vendors and projects, including one submitted
// proposal ready for negotiation. Skips entirely when any project already
// exists, so it is safe to run on every startup.
func SeedDemoData(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}

	existing, err := app.FindRecordsByFilter(projectsCol, "id != ''", "", 1, 0, nil)
	if err != nil {
		return fmt.Errorf("seed: could not check existing projects: %w", err)
	}
	if len(existing) > 0 {
		log.Println("seed: projects already present, skipping demo data.")
		return nil
	}

	vendorsCol, err := app.FindCollectionByNameOrId("vendors")
	if err != nil {
		return fmt.Errorf("seed: could not find vendors collection: %w", err)
	}

	vendorIDs := make([]string, 0, len(seedVendors))
	for _, v := range seedVendors {
		record := core.NewRecord(vendorsCol)
		record.Set("name", v.name)
		record.Set("email", v.email)
		record.Set("phone", v.phone)
		record.Set("company", v.company)
		record.Set("address", v.address)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed: failed to create vendor %q: %w", v.name, err)
		}
		vendorIDs = append(vendorIDs, record.Id)
		log.Printf("seed: created vendor %q (%s)\n", v.name, record.Id)
	}

	for i, def := range seedProjects {
		tree := buildSeedBOQ(def.phases)

		record := core.NewRecord(projectsCol)
		record.Set("name", def.name)
		record.Set("description", def.description)
		record.Set("address", def.address)
		record.Set("owner_id", def.ownerID)
		record.Set("owner_name", def.ownerName)
		record.Set("owner_email", def.ownerEmail)
		record.Set("status", def.status)
		record.Set("budget", def.budget)
		record.Set("boq", tree)
		record.Set("proposals_rev", 1)

		// First project gets a submitted demo proposal from the first vendor.
		if i == 0 && len(vendorIDs) > 0 {
			record.Set("proposals", []*services.Proposal{seedProposal(tree, vendorIDs[0], seedVendors[0])})
		} else {
			record.Set("proposals", []*services.Proposal{})
		}

		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed: failed to create project %q: %w", def.name, err)
		}
		log.Printf("seed: created project %q (%s)\n", def.name, record.Id)
	}

	log.Println("seed: demo data complete.")
	return nil
}

// buildSeedBOQ converts the definition structs into a BOQ tree.
func buildSeedBOQ(phases []phaseDef) *services.BOQ {
	tree := &services.BOQ{}
	for _, ph := range phases {
		phase := services.Phase{Name: ph.name}
		for _, wt := range ph.workTypes {
			workType := services.WorkType{Name: wt.name}
			for _, d := range wt.descs {
				desc := services.Description{Name: d.name}
				for _, s := range d.specs {
					desc.Specs = append(desc.Specs, services.Spec{
						Description:    s.description,
						Volume:         s.volume,
						Unit:           s.unit,
						ReferencePrice: s.refPrice,
					})
				}
				workType.Descriptions = append(workType.Descriptions, desc)
			}
			phase.WorkTypes = append(phase.WorkTypes, workType)
		}
		tree.Phases = append(tree.Phases, phase)
	}
	return tree
}

// seedProposal prices every line at 95% of the reference price and returns a
// submitted, negotiable proposal.
func seedProposal(tree *services.BOQ, vendorID string, v vendorDef) *services.Proposal {
	lines := services.FlattenBOQ(tree)
	for i := range lines {
		lines[i].VendorPrice = lines[i].OriginalPrice * 0.95
		lines[i].Subtotal = services.LineSubtotal(lines[i].Volume, lines[i].VendorPrice)
	}

	now := time.Now().UTC()
	return &services.Proposal{
		VendorID:    vendorID,
		VendorName:  v.name,
		SubmittedAt: now,
		UpdatedAt:   now,
		BOQPricing:  lines,
		TotalAmount: services.GrandTotal(lines),
		Negotiable:  services.NegotiableYes,
		Status:      services.ProposalStatusSubmitted,
	}
}
