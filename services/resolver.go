package services

// EffectiveLine is one BOQ spec with its currently effective negotiated
// price: the latest counter-offer when one exists for the line's flat index,
// otherwise the vendor's original price from boqPricing.
type EffectiveLine struct {
	Index          int     `json:"index"`
	ID             string  `json:"id"`
	ItemName       string  `json:"itemName,omitempty"`
	Volume         float64 `json:"volume"`
	Unit           string  `json:"unit"`
	OriginalPrice  float64 `json:"originalPrice"`
	VendorPrice    float64 `json:"vendorPrice"`
	EffectivePrice float64 `json:"effectivePrice"`
	Countered      bool    `json:"countered"`
	Subtotal       float64 `json:"subtotal"`
}

// ResolveEffectivePrices computes the effective price per line of a
// proposal. The counter-offer map holds only the latest round (it is
// replaced wholesale each time), so a present entry always wins; there are
// no further precedence rules. The resolver trusts flat-index alignment
// between the pricing list and the offer map: it has no way to detect a BOQ
// tree edited after submission.
func ResolveEffectivePrices(p *Proposal) []EffectiveLine {
	if p == nil {
		return nil
	}
	lines := make([]EffectiveLine, 0, len(p.BOQPricing))
	for i, l := range p.BOQPricing {
		el := EffectiveLine{
			Index:          i,
			ID:             l.ID,
			ItemName:       l.ItemName,
			Volume:         l.Volume,
			Unit:           l.Unit,
			OriginalPrice:  l.OriginalPrice,
			VendorPrice:    l.VendorPrice,
			EffectivePrice: l.VendorPrice,
		}
		if offer, ok := p.Negotiation.OfferFor(i); ok {
			el.EffectivePrice = offer.VendorPrice
			el.Countered = true
		}
		el.Subtotal = LineSubtotal(el.Volume, el.EffectivePrice)
		lines = append(lines, el)
	}
	return lines
}

// NegotiatedTotal sums the effective subtotals of a proposal.
func NegotiatedTotal(p *Proposal) float64 {
	var sum float64
	for _, l := range ResolveEffectivePrices(p) {
		sum += l.Subtotal
	}
	return sum
}
