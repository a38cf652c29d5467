package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Proposal / negotiation statuses. A negotiating proposal moves to
// pending_<other>_response whenever one party sends a counter-offer; accepted
// and rejected are terminal; resubmission loops the proposal back to
// submitted with fresh pricing while preserving the history.
const (
	ProposalStatusSubmitted             = "submitted"
	ProposalStatusPending               = "pending"
	ProposalStatusNegotiating           = "negotiating"
	ProposalStatusPendingVendorResponse = "pending_vendor_response"
	ProposalStatusPendingOwnerResponse  = "pending_owner_response"
	ProposalStatusAccepted              = "accepted"
	ProposalStatusRejected              = "rejected"
)

// Negotiation roles.
const (
	RoleVendor = "vendor"
	RoleOwner  = "project_owner"
	RoleAdmin  = "admin"
)

// Negotiation actions, as checked by the policy gate.
const (
	ActionOpenNegotiation = "open_negotiation"
	ActionCounterOffer    = "counter_offer"
	ActionAccept          = "accept"
	ActionReject          = "reject"
	ActionResubmit        = "resubmit"
)

// History entry actions.
const (
	HistoryCounterOfferSent = "counter_offer_sent"
	HistoryAccepted         = "accepted"
	HistoryRejected         = "rejected"
	HistoryResubmitted      = "resubmitted"
)

// Actor is the current identity acting on a proposal, supplied by the
// identity boundary. The engine treats it as opaque input and performs no
// authentication of its own.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Info converts the actor to its stored display snapshot.
func (a Actor) Info() ActorInfo {
	return ActorInfo{ID: a.ID, Name: a.Name, Email: a.Email}
}

// PolicyError is a user-facing refusal of a negotiation action: the
// transition does not occur and the reason must be shown to the actor, not
// swallowed or thrown.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Reason
}

func blocked(format string, args ...any) error {
	return &PolicyError{Reason: fmt.Sprintf(format, args...)}
}

// CanActorTransition is the single policy gate consulted before every state
// transition. It returns nil when the action is allowed, or a *PolicyError
// explaining the block.
func CanActorTransition(actor Actor, p *Proposal, action string) error {
	if p == nil {
		return blocked("no proposal to act on")
	}
	status := p.CurrentStatus()

	if p.IsTerminal() {
		return blocked("this proposal is already %s; no further actions are possible", status)
	}

	switch action {
	case ActionOpenNegotiation:
		if actor.Role != RoleOwner {
			return blocked("only the project owner can open a negotiation")
		}
		if p.Negotiable != NegotiableYes {
			return blocked("this proposal was submitted with fixed terms and cannot be negotiated")
		}
		if status != ProposalStatusSubmitted && status != ProposalStatusPending {
			return blocked("negotiation can only be opened on a submitted proposal (current status: %s)", status)
		}
		return nil

	case ActionCounterOffer:
		if actor.Role != RoleVendor && actor.Role != RoleOwner {
			return blocked("only the vendor or the project owner can send a counter-offer")
		}
		if p.Negotiation == nil {
			return blocked("negotiation has not been opened for this proposal")
		}
		switch status {
		case ProposalStatusNegotiating:
			return nil
		case ProposalStatusPendingVendorResponse:
			if actor.Role == RoleVendor {
				return nil
			}
			return blocked("your counter-offer is awaiting the vendor's response")
		case ProposalStatusPendingOwnerResponse:
			if actor.Role == RoleOwner {
				return nil
			}
			return blocked("your counter-offer is awaiting the project owner's response")
		default:
			return blocked("a counter-offer cannot be sent while the proposal is %s", status)
		}

	case ActionAccept, ActionReject:
		switch actor.Role {
		case RoleVendor:
			if status == ProposalStatusNegotiating || status == ProposalStatusPendingVendorResponse {
				return nil
			}
			return blocked("you can only respond while the negotiation is awaiting your decision (current status: %s)", status)
		case RoleOwner:
			if status == ProposalStatusNegotiating || status == ProposalStatusPendingOwnerResponse {
				return nil
			}
			return blocked("you can only respond while the negotiation is awaiting your decision (current status: %s)", status)
		default:
			return blocked("only the vendor or the project owner can %s a proposal", action)
		}

	case ActionResubmit:
		if actor.Role != RoleVendor {
			return blocked("only the vendor can resubmit a proposal")
		}
		if status != ProposalStatusPendingVendorResponse {
			return blocked("a proposal can only be resubmitted in response to the owner's counter-offer (current status: %s)", status)
		}
		return nil

	default:
		return blocked("unknown negotiation action %q", action)
	}
}

// OpenNegotiation moves a submitted proposal into the negotiating state,
// creating the negotiation sub-document if it is absent. Opening a
// negotiation is not itself a negotiation round, so no history entry is
// appended.
func OpenNegotiation(p *Proposal, actor Actor, now time.Time) error {
	if err := CanActorTransition(actor, p, ActionOpenNegotiation); err != nil {
		return err
	}
	if p.Negotiation == nil {
		p.Negotiation = &Negotiation{
			CounterOffer: map[string]CounterOffer{},
			OwnerInfo:    actor.Info(),
		}
	}
	if p.Negotiation.CounterOffer == nil {
		p.Negotiation.CounterOffer = map[string]CounterOffer{}
	}
	setStatus(p, ProposalStatusNegotiating)
	touch(p, actor, now)
	return nil
}

// SubmitCounterOffer records a new round of revised prices, keyed by flat
// spec index, and hands the turn to the other party. The counter-offer map
// is replaced wholesale: it always holds the latest round only, while the
// history keeps every round apart.
func SubmitCounterOffer(p *Proposal, actor Actor, offers map[int]float64, leafCount int, message string, now time.Time) error {
	if err := CanActorTransition(actor, p, ActionCounterOffer); err != nil {
		return err
	}
	if len(offers) == 0 {
		return blocked("a counter-offer must revise at least one item price")
	}
	replacement := make(map[string]CounterOffer, len(offers))
	offerData := make(map[string]any, len(offers))
	for idx, price := range offers {
		if idx < 0 || idx >= leafCount {
			return blocked("counter-offer references item %d, which does not exist in this bill of quantities", idx)
		}
		if price < 0 {
			return blocked("counter-offer prices cannot be negative")
		}
		key := strconv.Itoa(idx)
		replacement[key] = CounterOffer{VendorPrice: price, Timestamp: now}
		offerData[key] = price
	}

	p.Negotiation.CounterOffer = replacement
	if actor.Role == RoleVendor {
		p.Negotiation.VendorInfo = actor.Info()
		setStatus(p, ProposalStatusPendingOwnerResponse)
	} else {
		p.Negotiation.OwnerInfo = actor.Info()
		setStatus(p, ProposalStatusPendingVendorResponse)
	}
	appendHistory(p, actor, HistoryCounterOfferSent, message, map[string]any{"counterOffer": offerData}, now)
	touch(p, actor, now)
	return nil
}

// AcceptProposal terminates the negotiation with the counter-offer map
// frozen as the effective prices.
func AcceptProposal(p *Proposal, actor Actor, message string, now time.Time) error {
	if err := CanActorTransition(actor, p, ActionAccept); err != nil {
		return err
	}
	setStatus(p, ProposalStatusAccepted)
	appendHistory(p, actor, HistoryAccepted, message, nil, now)
	touch(p, actor, now)
	return nil
}

// RejectProposal terminates the negotiation without agreement.
func RejectProposal(p *Proposal, actor Actor, message string, now time.Time) error {
	if err := CanActorTransition(actor, p, ActionReject); err != nil {
		return err
	}
	setStatus(p, ProposalStatusRejected)
	appendHistory(p, actor, HistoryRejected, message, nil, now)
	touch(p, actor, now)
	return nil
}

// ResubmitProposal replaces the proposal's pricing in place in answer to the
// owner's counter-offer: fresh boqPricing and total, status back to
// submitted, counter-offer map cleared. The history is preserved; the
// proposal keeps its identity.
func ResubmitProposal(p *Proposal, actor Actor, lines []PricingLine, now time.Time) error {
	if err := CanActorTransition(actor, p, ActionResubmit); err != nil {
		return err
	}
	if len(lines) == 0 {
		return blocked("a resubmission must include the repriced bill of quantities")
	}
	for i := range lines {
		lines[i].Subtotal = LineSubtotal(lines[i].Volume, lines[i].VendorPrice)
	}
	p.BOQPricing = lines
	p.TotalAmount = GrandTotal(lines)
	p.Negotiation.CounterOffer = map[string]CounterOffer{}
	setStatus(p, ProposalStatusSubmitted)
	appendHistory(p, actor, HistoryResubmitted, "", map[string]any{"totalAmount": p.TotalAmount}, now)
	touch(p, actor, now)
	return nil
}

// setStatus keeps the proposal status and the negotiation status in sync.
func setStatus(p *Proposal, status string) {
	p.Status = status
	if p.Negotiation != nil {
		p.Negotiation.Status = status
	}
}

// touch updates the last-action bookkeeping after a successful transition.
func touch(p *Proposal, actor Actor, now time.Time) {
	p.UpdatedAt = now
	if p.Negotiation != nil {
		p.Negotiation.LastActionBy = actor.Role
		p.Negotiation.LastActionAt = now
	}
}

// appendHistory appends one entry to the audit trail. Prior entries are
// never touched.
func appendHistory(p *Proposal, actor Actor, action, message string, data map[string]any, now time.Time) {
	if p.Negotiation == nil {
		return
	}
	p.Negotiation.History = append(p.Negotiation.History, HistoryEntry{
		ID:        uuid.NewString(),
		Action:    action,
		By:        actor.Role,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Timestamp: now,
		Message:   message,
		Data:      data,
	})
}
