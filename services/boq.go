// Package services holds the pure domain logic of the marketplace: the BOQ
// tree model, pricing rollups, proposal normalization, the negotiation state
// machine and the negotiated-price resolver. Nothing in this package touches
// the database or the network.
package services

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// Spec is a leaf line item of a BOQ: one measurable piece of work with a
// volume, a unit of measure and the owner's reference price per unit.
type Spec struct {
	Description    string  `json:"description"`
	Volume         float64 `json:"volume"`
	Unit           string  `json:"unit"`
	ReferencePrice float64 `json:"referencePricePerUnit"`
}

// Description groups specs under a free-form work description (Uraian).
type Description struct {
	Name  string `json:"name"`
	Specs []Spec `json:"specs"`
}

// WorkType groups descriptions under a kind of work (Jenis Kerja).
type WorkType struct {
	Name         string        `json:"name"`
	Descriptions []Description `json:"descriptions"`
}

// Phase is the top level of a BOQ (Tahapan Kerja).
type Phase struct {
	Name      string     `json:"name"`
	WorkTypes []WorkType `json:"workTypes"`
}

// BOQ is the owner-authored bill of quantities attached to a project.
// The tree shape is shared between the owner's reference copy and every
// vendor's pricing of it; only spec-level volume/unit/price values differ.
type BOQ struct {
	Phases []Phase `json:"phases"`
}

// boqFieldNames lists the project-record fields that may hold the BOQ tree,
// newest first. Older records were written before the field was renamed.
var boqFieldNames = []string{"boq", "attachedBOQ", "tahapanKerja"}

// CoalesceBOQField returns the first non-empty BOQ payload among the legacy
// field names. The second return is false when none of the fields carry data.
func CoalesceBOQField(fields map[string]any) (any, bool) {
	for _, name := range boqFieldNames {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
		case []any:
			if len(t) == 0 {
				continue
			}
		case map[string]any:
			if len(t) == 0 {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

// DecodeBOQ converts a decoded JSON value into a BOQ. It accepts the
// canonical object form ({"phases": [...]}) as well as the legacy bare
// phase array. Malformed input degrades to an empty tree, never an error:
// projects in drafting routinely carry partial data.
func DecodeBOQ(v any) *BOQ {
	boq := &BOQ{}
	if v == nil {
		return boq
	}

	var phases []any
	switch t := v.(type) {
	case []any:
		phases = t
	case map[string]any:
		if p, ok := t["phases"].([]any); ok {
			phases = p
		} else if p, ok := t["tahapanKerja"].([]any); ok {
			phases = p
		}
	case string:
		// Some records store the tree double-encoded.
		if strings.TrimSpace(t) == "" {
			return boq
		}
		var inner any
		if err := json.Unmarshal([]byte(t), &inner); err != nil {
			log.Printf("boq: could not decode string-wrapped BOQ: %v", err)
			return boq
		}
		return DecodeBOQ(inner)
	default:
		log.Printf("boq: unexpected BOQ payload type %T, treating as empty", v)
		return boq
	}

	for _, pv := range phases {
		pm, ok := pv.(map[string]any)
		if !ok {
			continue
		}
		phase := Phase{Name: toString(pm["name"])}
		for _, wv := range toSlice(pm["workTypes"]) {
			wm, ok := wv.(map[string]any)
			if !ok {
				continue
			}
			wt := WorkType{Name: toString(wm["name"])}
			for _, dv := range toSlice(wm["descriptions"]) {
				dm, ok := dv.(map[string]any)
				if !ok {
					continue
				}
				desc := Description{Name: toString(dm["name"])}
				for _, sv := range toSlice(dm["specs"]) {
					sm, ok := sv.(map[string]any)
					if !ok {
						continue
					}
					desc.Specs = append(desc.Specs, Spec{
						Description:    toString(sm["description"]),
						Volume:         toFloat(sm["volume"]),
						Unit:           toString(sm["unit"]),
						ReferencePrice: toFloat(sm["referencePricePerUnit"]),
					})
				}
				wt.Descriptions = append(wt.Descriptions, desc)
			}
			phase.WorkTypes = append(phase.WorkTypes, wt)
		}
		boq.Phases = append(boq.Phases, phase)
	}
	return boq
}

// LeafCount returns the number of specs in the whole tree.
func (b *BOQ) LeafCount() int {
	count := 0
	for _, p := range b.Phases {
		for _, w := range p.WorkTypes {
			for _, d := range w.Descriptions {
				count += len(d.Specs)
			}
		}
	}
	return count
}

// IsEmpty reports whether the tree has no phases.
func (b *BOQ) IsEmpty() bool {
	return b == nil || len(b.Phases) == 0
}

// SameShape reports whether two trees have identical structure: the same
// counts and order of phases, work types, descriptions and specs. Spec-level
// values may differ. Proposals are only valid against an unchanged shape.
func (b *BOQ) SameShape(other *BOQ) bool {
	if len(b.Phases) != len(other.Phases) {
		return false
	}
	for pi, p := range b.Phases {
		op := other.Phases[pi]
		if len(p.WorkTypes) != len(op.WorkTypes) {
			return false
		}
		for wi, w := range p.WorkTypes {
			ow := op.WorkTypes[wi]
			if len(w.Descriptions) != len(ow.Descriptions) {
				return false
			}
			for di, d := range w.Descriptions {
				if len(d.Specs) != len(ow.Descriptions[di].Specs) {
					return false
				}
			}
		}
	}
	return true
}

// toFloat parses a numeric value defensively: non-numeric or missing input
// yields 0 so that partially-filled BOQs still produce totals.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toString converts a JSON value to a string, defaulting to "".
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// toSlice converts a JSON value to a slice, defaulting to nil.
func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
