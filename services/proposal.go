package services

import (
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"time"
)

// Proposal negotiable terms.
const (
	NegotiableYes = "negotiable"
	NegotiableNo  = "fixed"
)

// ActorInfo is the display identity snapshot stored on a negotiation.
type ActorInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CounterOffer is one revised price inside the counter-offer map. The map is
// keyed by the flat spec index (stringified, since it lives in JSON) and is
// overwritten wholesale on every round, never merged.
type CounterOffer struct {
	VendorPrice float64   `json:"vendorPrice"`
	Timestamp   time.Time `json:"timestamp"`
}

// UnmarshalJSON tolerates prices written as strings in old records.
func (c *CounterOffer) UnmarshalJSON(data []byte) error {
	m, err := decodeLooseMap(data)
	if err != nil {
		return err
	}
	c.VendorPrice = toFloat(m["vendorPrice"])
	if ts := toString(m["timestamp"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			c.Timestamp = t
		}
	}
	return nil
}

// HistoryEntry is one row of the append-only negotiation audit trail.
// Entries are never mutated or reordered after being appended.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	By        string         `json:"by"`
	ActorID   string         `json:"actorId"`
	ActorName string         `json:"actorName"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Negotiation is the per-proposal negotiation sub-document, present once the
// first negotiation round has occurred.
type Negotiation struct {
	Status       string                  `json:"status"`
	CounterOffer map[string]CounterOffer `json:"counterOffer"`
	History      []HistoryEntry          `json:"history"`
	LastActionBy string                  `json:"lastActionBy,omitempty"`
	LastActionAt time.Time               `json:"lastActionAt"`
	VendorInfo   ActorInfo               `json:"vendorInfo"`
	OwnerInfo    ActorInfo               `json:"ownerInfo"`
}

// OfferFor returns the counter-offer entry for a flat index, if present.
func (n *Negotiation) OfferFor(flatIndex int) (CounterOffer, bool) {
	if n == nil || n.CounterOffer == nil {
		return CounterOffer{}, false
	}
	offer, ok := n.CounterOffer[strconv.Itoa(flatIndex)]
	return offer, ok
}

// Proposal is one vendor's priced instance of a project's BOQ plus its
// negotiation state. At most one proposal per (project, vendor) pair exists;
// resubmission replaces pricing in place rather than creating a new record.
type Proposal struct {
	VendorID    string        `json:"vendorId"`
	VendorName  string        `json:"vendorName,omitempty"`
	SubmittedAt time.Time     `json:"submittedAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	BOQPricing  []PricingLine `json:"boqPricing"`
	TotalAmount float64       `json:"totalAmount"`
	Negotiable  string        `json:"negotiable"`
	Status      string        `json:"status"`
	Negotiation *Negotiation  `json:"negotiation,omitempty"`

	// Legacy identity fields. Older records identified the submitting vendor
	// under different names; VendorIdentity coalesces them.
	UserID      string `json:"userId,omitempty"`
	SubmittedBy string `json:"submittedBy,omitempty"`
}

// UnmarshalJSON decodes a proposal defensively. Old records carry empty
// timestamp strings, string-typed numbers and missing sub-objects; none of
// that may fail the decode of the whole proposals collection.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	m, err := decodeLooseMap(data)
	if err != nil {
		return err
	}
	p.VendorID = toString(m["vendorId"])
	p.VendorName = toString(m["vendorName"])
	p.UserID = toString(m["userId"])
	p.SubmittedBy = toString(m["submittedBy"])
	p.SubmittedAt = parseTime(m["submittedAt"])
	p.UpdatedAt = parseTime(m["updatedAt"])
	p.TotalAmount = toFloat(m["totalAmount"])
	p.Negotiable = toString(m["negotiable"])
	p.Status = toString(m["status"])

	p.BOQPricing = nil
	for _, lv := range toSlice(m["boqPricing"]) {
		raw, err := json.Marshal(lv)
		if err != nil {
			continue
		}
		var line PricingLine
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		p.BOQPricing = append(p.BOQPricing, line)
	}

	p.Negotiation = nil
	if nv, ok := m["negotiation"].(map[string]any); ok {
		raw, err := json.Marshal(nv)
		if err == nil {
			var n Negotiation
			if err := json.Unmarshal(raw, &n); err == nil {
				p.Negotiation = &n
			}
		}
	}
	return nil
}

// UnmarshalJSON decodes a negotiation sub-document defensively.
func (n *Negotiation) UnmarshalJSON(data []byte) error {
	m, err := decodeLooseMap(data)
	if err != nil {
		return err
	}
	n.Status = toString(m["status"])
	n.LastActionBy = toString(m["lastActionBy"])
	n.LastActionAt = parseTime(m["lastActionAt"])
	n.VendorInfo = actorInfoFrom(m["vendorInfo"])
	n.OwnerInfo = actorInfoFrom(m["ownerInfo"])

	n.CounterOffer = map[string]CounterOffer{}
	if cm, ok := m["counterOffer"].(map[string]any); ok {
		for k, ov := range cm {
			raw, err := json.Marshal(ov)
			if err != nil {
				continue
			}
			var offer CounterOffer
			if err := json.Unmarshal(raw, &offer); err != nil {
				continue
			}
			n.CounterOffer[k] = offer
		}
	}

	n.History = nil
	for _, hv := range toSlice(m["history"]) {
		raw, err := json.Marshal(hv)
		if err != nil {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		n.History = append(n.History, entry)
	}
	return nil
}

// UnmarshalJSON decodes a history entry defensively.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	m, err := decodeLooseMap(data)
	if err != nil {
		return err
	}
	h.ID = toString(m["id"])
	h.Action = toString(m["action"])
	h.By = toString(m["by"])
	h.ActorID = toString(m["actorId"])
	h.ActorName = toString(m["actorName"])
	h.Timestamp = parseTime(m["timestamp"])
	h.Message = toString(m["message"])
	if d, ok := m["data"].(map[string]any); ok {
		h.Data = d
	}
	return nil
}

// actorInfoFrom extracts an ActorInfo from a loose JSON value.
func actorInfoFrom(v any) ActorInfo {
	m, ok := v.(map[string]any)
	if !ok {
		return ActorInfo{}
	}
	return ActorInfo{
		ID:    toString(m["id"]),
		Name:  toString(m["name"]),
		Email: toString(m["email"]),
	}
}

// parseTime parses a timestamp defensively: RFC 3339 first, then the
// datastore's space-separated layout; anything else yields the zero time.
func parseTime(v any) time.Time {
	s := toString(v)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999Z", s); err == nil {
		return t
	}
	return time.Time{}
}

// VendorIdentity returns the vendor id of a proposal, coalescing the legacy
// identity fields in priority order.
func (p *Proposal) VendorIdentity() string {
	if p.VendorID != "" {
		return p.VendorID
	}
	if p.UserID != "" {
		return p.UserID
	}
	return p.SubmittedBy
}

// CurrentStatus returns the status governing what actions are allowed next.
// Once a negotiation sub-document exists its status wins over the proposal's
// top-level status; the two are kept in sync by every transition.
func (p *Proposal) CurrentStatus() string {
	if p.Negotiation != nil && p.Negotiation.Status != "" {
		return p.Negotiation.Status
	}
	return p.Status
}

// IsTerminal reports whether the proposal reached accepted or rejected.
func (p *Proposal) IsTerminal() bool {
	s := p.CurrentStatus()
	return s == ProposalStatusAccepted || s == ProposalStatusRejected
}

// NormalizeProposals reconciles the storage shapes of a project's proposals
// field into one canonical ordered list. Rules:
//
//   - nil -> empty list
//   - array -> kept in order (null entries dropped)
//   - object -> keys that look like non-negative integers sort numerically
//     ascending, remaining keys sort after them by string compare; null
//     values are dropped
//   - anything else -> empty list with a logged diagnostic
//
// The function is pure and idempotent; it must never halt rendering of a
// project, so malformed entries degrade instead of erroring.
func NormalizeProposals(v any) []*Proposal {
	switch t := v.(type) {
	case nil:
		return []*Proposal{}
	case []*Proposal:
		// Already canonical.
		out := make([]*Proposal, 0, len(t))
		for _, p := range t {
			if p != nil {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]*Proposal, 0, len(t))
		for _, item := range t {
			if p := decodeProposal(item); p != nil {
				out = append(out, p)
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ni, iNum := parseNonNegativeInt(keys[i])
			nj, jNum := parseNonNegativeInt(keys[j])
			switch {
			case iNum && jNum:
				if ni != nj {
					return ni < nj
				}
				return keys[i] < keys[j]
			case iNum:
				return true
			case jNum:
				return false
			default:
				return keys[i] < keys[j]
			}
		})
		out := make([]*Proposal, 0, len(keys))
		for _, k := range keys {
			if p := decodeProposal(t[k]); p != nil {
				out = append(out, p)
			}
		}
		return out
	default:
		log.Printf("proposals: unexpected collection type %T, treating as empty", v)
		return []*Proposal{}
	}
}

// DecodeProposals parses the raw proposals JSON stored on a project record
// and normalizes it. Empty, null or unreadable input yields an empty list.
func DecodeProposals(raw string) []*Proposal {
	if raw == "" || raw == "null" {
		return []*Proposal{}
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Printf("proposals: unreadable stored JSON: %v", err)
		return []*Proposal{}
	}
	return NormalizeProposals(v)
}

// FindVendorProposal locates a vendor's proposal in a normalized list,
// matching against the coalesced identity fields. A miss means "not yet
// submitted", not an error.
func FindVendorProposal(list []*Proposal, vendorID string) (int, *Proposal) {
	if vendorID == "" {
		return -1, nil
	}
	for i, p := range list {
		if p.VendorID == vendorID || p.UserID == vendorID || p.SubmittedBy == vendorID {
			return i, p
		}
	}
	return -1, nil
}

// decodeProposal converts one collection entry into a Proposal. Null and
// non-object entries are dropped with a diagnostic.
func decodeProposal(v any) *Proposal {
	if v == nil {
		return nil
	}
	if p, ok := v.(*Proposal); ok {
		return p
	}
	m, ok := v.(map[string]any)
	if !ok {
		log.Printf("proposals: dropping entry of unexpected type %T", v)
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		log.Printf("proposals: could not re-encode entry: %v", err)
		return nil
	}
	var p Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("proposals: could not decode entry: %v", err)
		return nil
	}
	return &p
}

// parseNonNegativeInt reports whether s looks like a non-negative integer key.
func parseNonNegativeInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// decodeLooseMap decodes raw JSON into a generic map for defensive field
// extraction.
func decodeLooseMap(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
