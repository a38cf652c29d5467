package services

// ProjectSummary is the slice of project state the dashboard needs: the
// record status plus its normalized proposal list.
type ProjectSummary struct {
	ID        string
	Status    string
	Proposals []*Proposal
}

// PaymentSummary is one payment record reduced to what the aggregates use.
type PaymentSummary struct {
	Amount float64
	Status string
}

// Payment record statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// DashboardStats holds the admin dashboard aggregates.
type DashboardStats struct {
	TotalProjects      int            `json:"total_projects"`
	ProjectsByStatus   map[string]int `json:"projects_by_status"`
	TotalProposals     int            `json:"total_proposals"`
	ActiveNegotiations int            `json:"active_negotiations"`
	AcceptedProposals  int            `json:"accepted_proposals"`
	AwardedValue       float64        `json:"awarded_value"`
	PlatformFeePercent float64        `json:"platform_fee_percent"`
	PlatformRevenue    float64        `json:"platform_revenue"`
	PaymentsPaid       float64        `json:"payments_paid"`
	PaymentsPending    float64        `json:"payments_pending"`
}

// ComputeDashboardStats aggregates projects, their proposals and payments
// into the admin dashboard numbers. Awarded value uses the negotiated total
// of each accepted proposal, not the originally submitted amount, and
// platform revenue applies the configured fee to that value.
func ComputeDashboardStats(projects []ProjectSummary, payments []PaymentSummary, feePercent float64) DashboardStats {
	stats := DashboardStats{
		ProjectsByStatus:   map[string]int{},
		PlatformFeePercent: feePercent,
	}

	for _, proj := range projects {
		stats.TotalProjects++
		status := proj.Status
		if status == "" {
			status = "unknown"
		}
		stats.ProjectsByStatus[status]++

		for _, p := range proj.Proposals {
			if p == nil {
				continue
			}
			stats.TotalProposals++
			switch p.CurrentStatus() {
			case ProposalStatusNegotiating,
				ProposalStatusPendingVendorResponse,
				ProposalStatusPendingOwnerResponse:
				stats.ActiveNegotiations++
			case ProposalStatusAccepted:
				stats.AcceptedProposals++
				stats.AwardedValue += NegotiatedTotal(p)
			}
		}
	}

	stats.PlatformRevenue = stats.AwardedValue * feePercent / 100

	for _, pay := range payments {
		switch pay.Status {
		case PaymentStatusPaid:
			stats.PaymentsPaid += pay.Amount
		case PaymentStatusPending:
			stats.PaymentsPending += pay.Amount
		}
	}

	return stats
}
