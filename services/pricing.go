package services

import (
	"fmt"
	"strconv"
	"strings"
)

// PricingLine is one flattened BOQ spec as priced by a vendor. The ID is the
// composite "<phase>-<workType>-<description>-<spec>" index string; the line's
// position in the list is its flat index. Both are derived from the same
// depth-first, phase-major tree walk.
type PricingLine struct {
	ID            string  `json:"id"`
	ItemName      string  `json:"itemName,omitempty"`
	Volume        float64 `json:"volume"`
	Unit          string  `json:"unit"`
	OriginalPrice float64 `json:"originalPrice"`
	VendorPrice   float64 `json:"vendorPrice"`
	Subtotal      float64 `json:"subtotal"`
}

// UnmarshalJSON decodes a pricing line defensively: numeric fields written as
// strings (or missing entirely) become their zero value instead of failing
// the whole proposal decode.
func (l *PricingLine) UnmarshalJSON(data []byte) error {
	m, err := decodeLooseMap(data)
	if err != nil {
		return err
	}
	l.ID = toString(m["id"])
	l.ItemName = toString(m["itemName"])
	l.Volume = toFloat(m["volume"])
	l.Unit = toString(m["unit"])
	l.OriginalPrice = toFloat(m["originalPrice"])
	l.VendorPrice = toFloat(m["vendorPrice"])
	l.Subtotal = toFloat(m["subtotal"])
	return nil
}

// LineSubtotal computes volume x unit price for a single spec.
func LineSubtotal(volume, vendorPrice float64) float64 {
	return volume * vendorPrice
}

// GrandTotal recomputes the proposal total from its lines. The stored
// totalAmount on a proposal is a cache of this value, never the source of
// truth.
func GrandTotal(lines []PricingLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.VendorPrice * l.Volume
	}
	return sum
}

// DescriptionTotal is the rollup of one description's specs.
type DescriptionTotal struct {
	Name  string
	Total float64
}

// WorkTypeTotal is the rollup of one work type's descriptions.
type WorkTypeTotal struct {
	Name         string
	Total        float64
	Descriptions []DescriptionTotal
}

// PhaseTotal is the rollup of one phase's work types.
type PhaseTotal struct {
	Name      string
	Total     float64
	WorkTypes []WorkTypeTotal
}

// BOQTotals holds the bottom-up rollup of a priced BOQ at every tree level.
type BOQTotals struct {
	Grand  float64
	Phases []PhaseTotal
}

// CalcBOQTotals walks the tree in flattening order and rolls the line
// subtotals up through description, work type and phase to the grand total.
// A line list shorter than the tree contributes zero for the missing specs;
// the rollup is recomputed from scratch on every call.
func CalcBOQTotals(b *BOQ, lines []PricingLine) BOQTotals {
	var totals BOQTotals
	idx := 0
	for _, p := range b.Phases {
		pt := PhaseTotal{Name: p.Name}
		for _, w := range p.WorkTypes {
			wt := WorkTypeTotal{Name: w.Name}
			for _, d := range w.Descriptions {
				dt := DescriptionTotal{Name: d.Name}
				for range d.Specs {
					if idx < len(lines) {
						dt.Total += LineSubtotal(lines[idx].Volume, lines[idx].VendorPrice)
					}
					idx++
				}
				wt.Total += dt.Total
				wt.Descriptions = append(wt.Descriptions, dt)
			}
			pt.Total += wt.Total
			pt.WorkTypes = append(pt.WorkTypes, wt)
		}
		totals.Grand += pt.Total
		totals.Phases = append(totals.Phases, pt)
	}
	return totals
}

// FlattenBOQ produces the canonical depth-first, phase-major line list for a
// tree. Volume, unit and reference price come from the owner's specs; the
// vendor price starts at zero and is filled in by the vendor.
func FlattenBOQ(b *BOQ) []PricingLine {
	var lines []PricingLine
	for pi, p := range b.Phases {
		for wi, w := range p.WorkTypes {
			for di, d := range w.Descriptions {
				for si, s := range d.Specs {
					lines = append(lines, PricingLine{
						ID:            SpecID(pi, wi, di, si),
						ItemName:      s.Description,
						Volume:        s.Volume,
						Unit:          s.Unit,
						OriginalPrice: s.ReferencePrice,
					})
				}
			}
		}
	}
	return lines
}

// SpecID builds the composite id string for a tree position.
func SpecID(phaseIdx, workTypeIdx, descIdx, specIdx int) string {
	return fmt.Sprintf("%d-%d-%d-%d", phaseIdx, workTypeIdx, descIdx, specIdx)
}

// ParseSpecID splits a composite id back into tree indices.
func ParseSpecID(id string) (phaseIdx, workTypeIdx, descIdx, specIdx int, ok bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	vals := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, 0, 0, 0, false
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], vals[3], true
}

// FlatIndex returns the 0-based position of a spec in the depth-first
// traversal: the leaf counts of all fully preceding phases, work types and
// descriptions, plus the local spec index. It is the join key between the
// composite-id pricing list and the index-keyed counter-offer map. Returns
// -1 when the position does not exist in the tree.
func FlatIndex(b *BOQ, phaseIdx, workTypeIdx, descIdx, specIdx int) int {
	if phaseIdx < 0 || phaseIdx >= len(b.Phases) {
		return -1
	}
	index := 0
	for pi := 0; pi < phaseIdx; pi++ {
		for _, w := range b.Phases[pi].WorkTypes {
			for _, d := range w.Descriptions {
				index += len(d.Specs)
			}
		}
	}
	phase := b.Phases[phaseIdx]
	if workTypeIdx < 0 || workTypeIdx >= len(phase.WorkTypes) {
		return -1
	}
	for wi := 0; wi < workTypeIdx; wi++ {
		for _, d := range phase.WorkTypes[wi].Descriptions {
			index += len(d.Specs)
		}
	}
	workType := phase.WorkTypes[workTypeIdx]
	if descIdx < 0 || descIdx >= len(workType.Descriptions) {
		return -1
	}
	for di := 0; di < descIdx; di++ {
		index += len(workType.Descriptions[di].Specs)
	}
	if specIdx < 0 || specIdx >= len(workType.Descriptions[descIdx].Specs) {
		return -1
	}
	return index + specIdx
}

// FlatIndexForID resolves a composite id string to its flat index.
func FlatIndexForID(b *BOQ, id string) int {
	p, w, d, s, ok := ParseSpecID(id)
	if !ok {
		return -1
	}
	return FlatIndex(b, p, w, d, s)
}
