// internal/settlement/settle.go

// Package settlement holds the commission allocation and
// interest-settlement engine. Everything in this package is a pure
// function of its arguments: no database access, no request context.
// Callers load the stored rows, map them into Terms and Entry values
// and read the settled figures back.
package settlement

import (
	"github.com/google/uuid"
)

// AmountTolerance is the absolute tolerance used when matching monetary
// sums (principal shares against the transaction total, per-entry
// interest rates against the transaction rate).
const AmountTolerance = 0.01

// Terms carries the transaction-level facts the engine needs: who
// originated the loan and what commission, if any, they retain.
type Terms struct {
	RiskTakerID           uuid.UUID
	CommissionEnabled     bool
	CommissionRatePercent float64
}

// commissionApplies reports whether any commission is deducted at all.
// A disabled flag wins over a stored rate, so a leftover rate on a
// disabled transaction never produces a deduction.
func (t Terms) commissionApplies() bool {
	return t.CommissionEnabled && t.CommissionRatePercent > 0
}

// Entry is one participant's allocation as stored: their principal
// share and the interest rate (percent) applied to that share.
type Entry struct {
	ParticipantID  uuid.UUID
	PrincipalShare float64
	InterestRate   float64
}

// SettledEntry is an Entry with its derived figures filled in.
type SettledEntry struct {
	ParticipantID           uuid.UUID
	PrincipalShare          float64
	ActualInterest          float64
	CommissionDeducted      float64
	InterestAfterCommission float64
	IsRiskTaker             bool
}

// ActualInterest computes a participant's interest amount from their
// own principal share and rate. The rate is a percentage.
func ActualInterest(principalShare, ratePercent float64) float64 {
	return principalShare * ratePercent / 100
}

// SettleOne computes the settled figures for a single entry.
//
// The risk taker never pays commission on their own allocation, even
// when commission is enabled. For everyone else the deduction is a
// percentage of that entry's own actual interest; it is not pooled
// across the syndicate. Interest after commission is clamped at zero.
func SettleOne(terms Terms, e Entry) SettledEntry {
	settled := SettledEntry{
		ParticipantID:  e.ParticipantID,
		PrincipalShare: e.PrincipalShare,
		ActualInterest: ActualInterest(e.PrincipalShare, e.InterestRate),
		IsRiskTaker:    e.ParticipantID == terms.RiskTakerID,
	}

	if !terms.commissionApplies() || settled.IsRiskTaker {
		settled.InterestAfterCommission = settled.ActualInterest
		return settled
	}

	settled.CommissionDeducted = terms.CommissionRatePercent / 100 * settled.ActualInterest
	settled.InterestAfterCommission = settled.ActualInterest - settled.CommissionDeducted
	if settled.InterestAfterCommission < 0 {
		settled.InterestAfterCommission = 0
	}
	return settled
}

// Settle computes the settled figures for every entry of a transaction.
// Entries are independent, so the result for one participant never
// depends on who else is in the syndicate.
func Settle(terms Terms, entries []Entry) []SettledEntry {
	settled := make([]SettledEntry, len(entries))
	for i, e := range entries {
		settled[i] = SettleOne(terms, e)
	}
	return settled
}

// CommissionEarned is the risk taker's total commission on one
// transaction: the sum of deductions over all entries except their own
// allocation, if they hold one. With no co-syndicators it is zero.
func CommissionEarned(terms Terms, entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.ParticipantID == terms.RiskTakerID {
			continue
		}
		total += SettleOne(terms, e).CommissionDeducted
	}
	return total
}
