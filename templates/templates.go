// Package templates holds the server-rendered read-only views. The API is
// the primary surface; these pages exist for quick inspection of a project
// and its negotiations from a browser.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"renovasi/services"
)

// ProjectListItem is one row of the project index page.
type ProjectListItem struct {
	ID            string
	Name          string
	Status        string
	Budget        float64
	SpecCount     int
	ProposalCount int
}

// ProjectListData feeds the project index page.
type ProjectListData struct {
	Projects []ProjectListItem
}

// ProjectLineView is one reference-priced BOQ line on the project page.
type ProjectLineView struct {
	ItemName       string
	PhaseName      string
	Volume         float64
	Unit           string
	ReferencePrice float64
}

// ProjectProposalView is one proposal summary row on the project page.
type ProjectProposalView struct {
	VendorID    string
	VendorName  string
	Status      string
	TotalAmount float64
}

// ProjectViewData feeds the project detail page.
type ProjectViewData struct {
	ID          string
	Name        string
	Description string
	Status      string
	Budget      float64
	Lines       []ProjectLineView
	Proposals   []ProjectProposalView
}

// NegotiationLineView is one priced BOQ line on the negotiation page.
type NegotiationLineView struct {
	ItemName       string
	Volume         float64
	Unit           string
	VendorPrice    float64
	EffectivePrice float64
	Countered      bool
	Subtotal       float64
}

// NegotiationData feeds the negotiation detail page.
type NegotiationData struct {
	ProjectName     string
	VendorName      string
	Status          string
	Lines           []NegotiationLineView
	TotalAmount     float64
	NegotiatedTotal float64
	History         []services.HistoryEntry
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// ProjectListPage renders the project index.
func ProjectListPage(data ProjectListData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w,
			`<h1>Projects</h1><table><tr><th>Name</th><th>Status</th><th>Budget</th><th>Items</th><th>Proposals</th></tr>`); err != nil {
			return err
		}
		for _, p := range data.Projects {
			if _, err := fmt.Fprintf(w,
				`<tr><td><a href="/projects/%s/view">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>`,
				templ.EscapeString(p.ID),
				templ.EscapeString(p.Name),
				templ.EscapeString(p.Status),
				templ.EscapeString(services.FormatIDR(p.Budget)),
				p.SpecCount,
				p.ProposalCount); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
	return layout("Projects", body)
}

// ProjectViewPage renders one project with its BOQ and proposal summaries.
func ProjectViewPage(data ProjectViewData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<h1>%s</h1><p>Status: %s | Budget: %s</p>`,
			templ.EscapeString(data.Name),
			templ.EscapeString(data.Status),
			templ.EscapeString(services.FormatIDR(data.Budget))); err != nil {
			return err
		}
		if data.Description != "" {
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(data.Description)); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w,
			`<h2>Bill of Quantities</h2><table><tr><th>Phase</th><th>Item</th><th>Volume</th><th>Reference Price</th></tr>`); err != nil {
			return err
		}
		for _, l := range data.Lines {
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%s</td><td>%g %s</td><td>%s</td></tr>`,
				templ.EscapeString(l.PhaseName),
				templ.EscapeString(l.ItemName),
				l.Volume,
				templ.EscapeString(l.Unit),
				templ.EscapeString(services.FormatIDR(l.ReferencePrice))); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</table>`); err != nil {
			return err
		}

		if len(data.Proposals) == 0 {
			_, err := io.WriteString(w, `<p>No proposals yet.</p>`)
			return err
		}
		if _, err := io.WriteString(w,
			`<h2>Proposals</h2><table><tr><th>Vendor</th><th>Status</th><th>Total</th></tr>`); err != nil {
			return err
		}
		for _, p := range data.Proposals {
			if _, err := fmt.Fprintf(w,
				`<tr><td><a href="/projects/%s/proposals/%s/view">%s</a></td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(data.ID),
				templ.EscapeString(p.VendorID),
				templ.EscapeString(p.VendorName),
				templ.EscapeString(p.Status),
				templ.EscapeString(services.FormatIDR(p.TotalAmount))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
	return layout(data.Name, body)
}

// NegotiationPage renders one proposal with its effective prices and the
// negotiation history.
func NegotiationPage(data NegotiationData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<h1>%s</h1><p>Vendor: %s | Status: %s</p>`,
			templ.EscapeString(data.ProjectName),
			templ.EscapeString(data.VendorName),
			templ.EscapeString(data.Status)); err != nil {
			return err
		}

		if _, err := io.WriteString(w,
			`<table><tr><th>Item</th><th>Volume</th><th>Vendor Price</th><th>Negotiated</th><th>Subtotal</th></tr>`); err != nil {
			return err
		}
		for _, l := range data.Lines {
			negotiated := "-"
			if l.Countered {
				negotiated = services.FormatIDR(l.EffectivePrice)
			}
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%g %s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(l.ItemName),
				l.Volume,
				templ.EscapeString(l.Unit),
				templ.EscapeString(services.FormatIDR(l.VendorPrice)),
				templ.EscapeString(negotiated),
				templ.EscapeString(services.FormatIDR(l.Subtotal))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w,
			`</table><p>Submitted total: %s<br>Negotiated total: %s</p>`,
			templ.EscapeString(services.FormatIDR(data.TotalAmount)),
			templ.EscapeString(services.FormatIDR(data.NegotiatedTotal))); err != nil {
			return err
		}

		if len(data.History) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<h2>History</h2><ul>`); err != nil {
			return err
		}
		for _, h := range data.History {
			if _, err := fmt.Fprintf(w,
				`<li>%s - %s (%s)</li>`,
				templ.EscapeString(h.Timestamp.Format("2006-01-02 15:04")),
				templ.EscapeString(h.Action),
				templ.EscapeString(h.ActorName)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
	return layout(data.ProjectName, body)
}
