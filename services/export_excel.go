package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ProposalExportRow is one BOQ line prepared for the proposal sheet.
type ProposalExportRow struct {
	Index          int
	ItemName       string
	PhaseName      string
	Volume         float64
	Unit           string
	ReferencePrice float64
	VendorPrice    float64
	EffectivePrice float64
	Countered      bool
	Subtotal       float64
}

// ProposalExportData is everything needed to render a proposal Excel sheet.
type ProposalExportData struct {
	ProjectName     string
	VendorName      string
	Status          string
	SubmittedDate   string
	Currency        string
	Rows            []ProposalExportRow
	TotalAmount     float64
	NegotiatedTotal float64
}

// BuildProposalExportRows joins a BOQ tree with a proposal's resolved
// effective prices into export rows, attaching the phase name each line
// belongs to.
func BuildProposalExportRows(b *BOQ, p *Proposal) []ProposalExportRow {
	phaseNames := make([]string, 0, b.LeafCount())
	for _, phase := range b.Phases {
		for _, w := range phase.WorkTypes {
			for _, d := range w.Descriptions {
				for range d.Specs {
					phaseNames = append(phaseNames, phase.Name)
				}
			}
		}
	}
	lines := ResolveEffectivePrices(p)
	rows := make([]ProposalExportRow, 0, len(lines))
	for _, l := range lines {
		row := ProposalExportRow{
			Index:          l.Index,
			ItemName:       l.ItemName,
			Volume:         l.Volume,
			Unit:           l.Unit,
			ReferencePrice: l.OriginalPrice,
			VendorPrice:    l.VendorPrice,
			EffectivePrice: l.EffectivePrice,
			Countered:      l.Countered,
			Subtotal:       l.Subtotal,
		}
		if l.Index < len(phaseNames) {
			row.PhaseName = phaseNames[l.Index]
		}
		rows = append(rows, row)
	}
	return rows
}

// GenerateProposalExcel renders a proposal (with its negotiated prices) as
// an xlsx workbook and returns the file bytes.
func GenerateProposalExcel(data ProposalExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := data.ProjectName
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Proposal"
	}
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 22, 40, 10, 8, 18, 18, 18, 18}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	rowStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create row style: %w", err)
	}
	counteredStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10, Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#FFF3CD"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create countered style: %w", err)
	}
	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}
	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// Title block.
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.ProjectName))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge vendor row: %w", err)
	}
	f.SetCellValue(sheetName, "A2", "Vendor: "+sanitizeExcelCell(data.VendorName))
	f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge meta row: %w", err)
	}
	meta := fmt.Sprintf("Status: %s | Submitted: %s", data.Status, data.SubmittedDate)
	if data.Currency != "" {
		meta += " | Currency: " + data.Currency
	}
	f.SetCellValue(sheetName, "A3", meta)
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// Column headers on row 5.
	headers := []string{"#", "Phase", "Item", "Volume", "Unit", "Reference Price", "Vendor Price", "Negotiated Price", "Subtotal"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s5", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// Data rows.
	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, r.Index+1)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.PhaseName))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.ItemName))
		f.SetCellValue(sheetName, "D"+rowStr, r.Volume)
		f.SetCellValue(sheetName, "E"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "F"+rowStr, FormatIDR(r.ReferencePrice))
		f.SetCellValue(sheetName, "G"+rowStr, FormatIDR(r.VendorPrice))
		negotiated := "-"
		if r.Countered {
			negotiated = FormatIDR(r.EffectivePrice)
		}
		f.SetCellValue(sheetName, "H"+rowStr, negotiated)
		f.SetCellValue(sheetName, "I"+rowStr, FormatIDR(r.Subtotal))

		style := rowStyle
		if r.Countered {
			style = counteredStyle
		}
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)
		row++
	}

	// Summary rows.
	row++
	summaryRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "G"+summaryRow, "Submitted Total:")
	f.SetCellStyle(sheetName, "G"+summaryRow, "G"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "H"+summaryRow, FormatIDR(data.TotalAmount))
	f.SetCellStyle(sheetName, "H"+summaryRow, "H"+summaryRow, summaryValueStyle)
	row++

	summaryRow = fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "G"+summaryRow, "Negotiated Total:")
	f.SetCellStyle(sheetName, "G"+summaryRow, "G"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "H"+summaryRow, FormatIDR(data.NegotiatedTotal))
	f.SetCellStyle(sheetName, "H"+summaryRow, "H"+summaryRow, summaryValueStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +,
// -, @, \t or \r as formulas, which can be abused for code execution or data
// theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
