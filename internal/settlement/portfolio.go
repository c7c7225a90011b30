// internal/settlement/portfolio.go
package settlement

import (
	"github.com/google/uuid"
)

// TransactionView is the per-transaction input to the aggregator: the
// commission terms, the stored totals and the full allocation set. One
// view per transaction the user touches in either role.
type TransactionView struct {
	TransactionID  uuid.UUID
	Terms          Terms
	TotalPrincipal float64
	InterestRate   float64
	Entries        []Entry
}

// RiskTakerBreakdown summarises the user's originated transactions.
type RiskTakerBreakdown struct {
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	CommissionEarned float64 `json:"commission_earned"`
}

// MemberBreakdown summarises the user's allocations across all
// transactions where they participate as a syndicate member.
type MemberBreakdown struct {
	Principal               float64 `json:"principal"`
	OriginalInterest        float64 `json:"original_interest"`
	InterestAfterCommission float64 `json:"interest_after_commission"`
	CommissionPaid          float64 `json:"commission_paid"`
}

// Portfolio is the consolidated per-user financial summary.
type Portfolio struct {
	TotalPrincipalAmount         float64            `json:"total_principal_amount"`
	TotalOriginalInterest        float64            `json:"total_original_interest"`
	TotalInterestAfterCommission float64            `json:"total_interest_after_commission"`
	TotalCommissionImpact        float64            `json:"total_commission_impact"`
	AsRiskTaker                  RiskTakerBreakdown `json:"as_risk_taker"`
	AsSyndicateMember            MemberBreakdown    `json:"as_syndicate_member"`
}

// BuildPortfolio rolls a user's positions up across both roles.
//
// Member figures come from the user's own entries. Risk-taker figures
// come from each originated transaction: when the risk taker also
// holds an allocation there, their settled interest is that entry's
// interest after commission and the principal is already counted on
// the member side; otherwise principal and interest derive from the
// transaction totals. Commission earned accumulates across all
// originated transactions.
func BuildPortfolio(userID uuid.UUID, views []TransactionView) Portfolio {
	var member MemberBreakdown
	var riskTaker RiskTakerBreakdown

	for _, v := range views {
		var ownEntry *Entry
		for i := range v.Entries {
			if v.Entries[i].ParticipantID == userID {
				ownEntry = &v.Entries[i]
				break
			}
		}

		if ownEntry != nil {
			settled := SettleOne(v.Terms, *ownEntry)
			member.Principal += settled.PrincipalShare
			member.OriginalInterest += settled.ActualInterest
			member.InterestAfterCommission += settled.InterestAfterCommission
		}

		if v.Terms.RiskTakerID != userID {
			continue
		}

		if ownEntry != nil {
			riskTaker.Interest += SettleOne(v.Terms, *ownEntry).InterestAfterCommission
		} else {
			riskTaker.Principal += v.TotalPrincipal
			riskTaker.Interest += ActualInterest(v.TotalPrincipal, v.InterestRate)
		}
		riskTaker.CommissionEarned += CommissionEarned(v.Terms, v.Entries)
	}

	member.CommissionPaid = member.OriginalInterest - member.InterestAfterCommission

	return Portfolio{
		TotalPrincipalAmount:         member.Principal + riskTaker.Principal,
		TotalOriginalInterest:        member.OriginalInterest + riskTaker.Interest,
		TotalInterestAfterCommission: member.InterestAfterCommission + riskTaker.Interest + riskTaker.CommissionEarned,
		TotalCommissionImpact:        riskTaker.CommissionEarned - member.CommissionPaid,
		AsRiskTaker:                  riskTaker,
		AsSyndicateMember:            member,
	}
}
