// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one syndicated loan. The risk taker originates it and
// may retain a commission on the interest of co-syndicators. Commission
// and interest figures per participant live on the Allocation rows;
// everything here besides the totals and commission terms is metadata.
//
// Transactions are immutable after creation: there are no update or
// delete operations.
type Transaction struct {
	BaseModel
	RiskTakerID           uuid.UUID      `json:"risk_taker_id" gorm:"type:uuid;not null;index"`
	Syndicators           SyndicatorList `json:"syndicators" gorm:"type:jsonb"`
	TotalPrincipalAmount  float64        `json:"total_principal_amount" gorm:"type:decimal(14,2);not null"`
	TotalInterestRate     float64        `json:"total_interest_rate" gorm:"type:decimal(8,4);not null"`
	CommissionEnabled     bool           `json:"commission_enabled" gorm:"default:false"`
	CommissionRatePercent float64        `json:"commission_rate_percent" gorm:"type:decimal(7,4);default:0"`
	StartDate             time.Time      `json:"start_date" gorm:"not null"`
	EndDate               *time.Time     `json:"end_date"`
	MonthPeriodOfLoan     *int           `json:"month_period_of_loan"`
	LenderName            string         `json:"lender_name,omitempty" gorm:"size:100"`

	// Relationships
	RiskTaker   User         `json:"risk_taker,omitempty" gorm:"foreignKey:RiskTakerID"`
	Allocations []Allocation `json:"allocations,omitempty" gorm:"foreignKey:TransactionID"`
}

// Allocation is one syndicator's slice of a transaction: their share of
// the principal and the interest rate applied to that share. Settled
// figures (actual interest, commission deducted, interest after
// commission) are derived on read by the settlement package, never
// stored.
type Allocation struct {
	BaseModel
	TransactionID  uuid.UUID `json:"transaction_id" gorm:"type:uuid;not null;index"`
	SyndicatorID   uuid.UUID `json:"syndicator_id" gorm:"type:uuid;not null;index"`
	PrincipalShare float64   `json:"principal_share" gorm:"type:decimal(14,2);not null"`
	InterestRate   float64   `json:"interest_rate" gorm:"type:decimal(8,4);not null"`

	// Relationships
	Transaction Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
	Syndicator  User        `json:"syndicator,omitempty" gorm:"foreignKey:SyndicatorID"`
}
