package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// WorkOrderParty is one side of the work order (project owner or vendor).
type WorkOrderParty struct {
	Name  string
	Email string
	Phone string
}

// WorkOrderData carries everything needed to render a work order PDF for an
// accepted proposal.
type WorkOrderData struct {
	WorkOrderNumber string
	PlatformName    string
	ProjectName     string
	ProjectAddress  string
	IssueDate       string
	Owner           WorkOrderParty
	Vendor          WorkOrderParty
	Rows            []ProposalExportRow
	SubmittedTotal  float64
	NegotiatedTotal float64
	Notes           string
}

// GenerateWorkOrderPDF renders the work order for an accepted proposal using
// maroto/v2 and returns the raw PDF bytes. Prices are the negotiated
// effective prices, not the originally submitted ones.
func GenerateWorkOrderPDF(data *WorkOrderData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addWorkOrderHeader(m, data)
	addWorkOrderParties(m, data)
	addWorkOrderLineTable(m, data)
	addWorkOrderTotals(m, data)
	addWorkOrderNotes(m, data)
	addWorkOrderSignatures(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate work order PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addWorkOrderHeader adds the project name, WORK ORDER title, address and
// order number.
func addWorkOrderHeader(m core.Maroto, data *WorkOrderData) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(
				text.New(data.ProjectName, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(6).Add(
				text.New("WORK ORDER", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: &props.Color{Red: 33, Green: 37, Blue: 41},
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(data.ProjectAddress, props.Text{
					Size:  8,
					Align: align.Left,
					Color: &props.Color{Red: 100, Green: 100, Blue: 100},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("No: %s | %s", data.WorkOrderNumber, data.IssueDate), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Right,
				}),
			),
		),
	)

	if data.PlatformName != "" {
		m.AddRows(
			row.New(5).Add(
				col.New(12).Add(
					text.New("Issued via "+data.PlatformName, props.Text{
						Size:  7,
						Align: align.Right,
						Color: &props.Color{Red: 120, Green: 120, Blue: 120},
					}),
				),
			),
		)
	}

	m.AddRows(row.New(3))
}

// addWorkOrderParties adds owner and vendor blocks side by side.
func addWorkOrderParties(m core.Maroto, data *WorkOrderData) {
	sectionLabel := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}
	nameStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Left,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Left,
	}

	headerBg := &props.Color{Red: 245, Green: 243, Blue: 239}
	headerCell := &props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New("PROJECT OWNER", sectionLabel)).WithStyle(headerCell),
			col.New(6).Add(text.New("CONTRACTOR", sectionLabel)).WithStyle(headerCell),
		),
	)

	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New(data.Owner.Name, nameStyle)),
			col.New(6).Add(text.New(data.Vendor.Name, nameStyle)),
		),
	)

	ownerContact := joinNonEmpty([]string{data.Owner.Email, data.Owner.Phone}, " | ")
	vendorContact := joinNonEmpty([]string{data.Vendor.Email, data.Vendor.Phone}, " | ")
	if ownerContact != "" || vendorContact != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(6).Add(text.New(ownerContact, valueStyle)),
				col.New(6).Add(text.New(vendorContact, valueStyle)),
			),
		)
	}

	m.AddRows(row.New(3))
}

// addWorkOrderLineTable adds the agreed scope of work with negotiated prices.
func addWorkOrderLineTable(m core.Maroto, data *WorkOrderData) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left
	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("No", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Phase", headerTextLeft)).WithStyle(&headerCell),
			col.New(4).Add(text.New("Work Item", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Vol", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Unit", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Price", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Subtotal", headerText)).WithStyle(&headerCell),
		),
	)

	altBg := &props.Color{Red: 248, Green: 249, Blue: 250}

	for i, r := range data.Rows {
		bodyText := props.Text{Size: 7, Align: align.Center}
		bodyTextLeft := props.Text{Size: 7, Align: align.Left}
		bodyTextRight := props.Text{Size: 7, Align: align.Right}

		var cellStyle *props.Cell
		if i%2 == 1 {
			cellStyle = &props.Cell{BackgroundColor: altBg}
		}

		colNo := col.New(1).Add(text.New(fmt.Sprintf("%d", r.Index+1), bodyText))
		colPhase := col.New(2).Add(text.New(r.PhaseName, bodyTextLeft))
		colItem := col.New(4).Add(text.New(r.ItemName, bodyTextLeft))
		colVol := col.New(1).Add(text.New(fmt.Sprintf("%g", r.Volume), bodyTextRight))
		colUnit := col.New(1).Add(text.New(r.Unit, bodyText))
		colPrice := col.New(1).Add(text.New(FormatIDR(r.EffectivePrice), bodyTextRight))
		colSubtotal := col.New(2).Add(text.New(FormatIDR(r.Subtotal), bodyTextRight))

		if cellStyle != nil {
			colNo = colNo.WithStyle(cellStyle)
			colPhase = colPhase.WithStyle(cellStyle)
			colItem = colItem.WithStyle(cellStyle)
			colVol = colVol.WithStyle(cellStyle)
			colUnit = colUnit.WithStyle(cellStyle)
			colPrice = colPrice.WithStyle(cellStyle)
			colSubtotal = colSubtotal.WithStyle(cellStyle)
		}

		m.AddRows(
			row.New(7).Add(colNo, colPhase, colItem, colVol, colUnit, colPrice, colSubtotal),
		)
	}

	m.AddRows(row.New(2))
}

// addWorkOrderTotals adds the submitted and agreed totals.
func addWorkOrderTotals(m core.Maroto, data *WorkOrderData) {
	summaryBg := &props.Color{Red: 245, Green: 245, Blue: 245}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Right,
	}

	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Submitted Total", labelStyle)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatIDR(data.SubmittedTotal), valueStyle)).WithStyle(summaryCell),
		),
	)

	grandBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	grandCell := &props.Cell{BackgroundColor: grandBg}
	white := &props.Color{Red: 255, Green: 255, Blue: 255}
	grandLabelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
		Color: white,
	}
	grandValueStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
		Color: white,
	}

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Agreed Total", grandLabelStyle)).WithStyle(grandCell),
			col.New(3).Add(text.New(FormatIDR(data.NegotiatedTotal), grandValueStyle)).WithStyle(grandCell),
		),
	)

	m.AddRows(row.New(3))
}

// addWorkOrderNotes adds the notes section if non-empty.
func addWorkOrderNotes(m core.Maroto, data *WorkOrderData) {
	if data.Notes == "" {
		return
	}

	sectionLabel := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}

	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(text.New("NOTES", sectionLabel)),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New(data.Notes, props.Text{
				Size:  8,
				Align: align.Left,
			})),
		),
	)

	m.AddRows(row.New(3))
}

// addWorkOrderSignatures adds the signature section at the bottom.
func addWorkOrderSignatures(m core.Maroto) {
	m.AddRows(row.New(10))

	lineStyle := props.Text{
		Size:  8,
		Align: align.Center,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("____________________________", lineStyle)),
			col.New(6).Add(text.New("____________________________", lineStyle)),
		),
	)

	labelStyle := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}

	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New("Project Owner", labelStyle)),
			col.New(6).Add(text.New("Contractor", labelStyle)),
		),
	)
}

// joinNonEmpty joins non-empty strings with the given separator.
func joinNonEmpty(parts []string, sep string) string {
	result := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if result != "" {
			result += sep
		}
		result += p
	}
	return result
}
