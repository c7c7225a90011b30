// internal/services/portfolio_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syndicator/backend/internal/models"
	"github.com/syndicator/backend/internal/settlement"
)

// PortfolioService loads every transaction a user touches and hands the
// lot to the pure aggregator. All the arithmetic lives in the
// settlement package; this service only assembles its inputs.
type PortfolioService struct {
	db *gorm.DB
}

func NewPortfolioService(db *gorm.DB) *PortfolioService {
	return &PortfolioService{db: db}
}

// GetPortfolio builds the consolidated per-user summary across both
// roles.
func (s *PortfolioService) GetPortfolio(userID uuid.UUID) (*settlement.Portfolio, error) {
	var originated []models.Transaction
	if err := s.db.Where("risk_taker_id = ?", userID).
		Preload("Allocations").
		Find(&originated).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch risk-taker transactions: %w", err)
	}

	var held []models.Allocation
	if err := s.db.Where("syndicator_id = ?", userID).
		Preload("Transaction").Preload("Transaction.Allocations").
		Find(&held).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch allocations: %w", err)
	}

	// One view per distinct transaction; a transaction where the user is
	// both roles must not appear twice.
	views := make([]settlement.TransactionView, 0, len(originated)+len(held))
	seen := make(map[uuid.UUID]bool)

	for i := range originated {
		views = append(views, newTransactionView(&originated[i]))
		seen[originated[i].ID] = true
	}
	for i := range held {
		t := held[i].Transaction
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		views = append(views, newTransactionView(&t))
	}

	portfolio := settlement.BuildPortfolio(userID, views)
	return &portfolio, nil
}

func newTransactionView(t *models.Transaction) settlement.TransactionView {
	entries := make([]settlement.Entry, len(t.Allocations))
	for i, a := range t.Allocations {
		entries[i] = settlement.Entry{
			ParticipantID:  a.SyndicatorID,
			PrincipalShare: a.PrincipalShare,
			InterestRate:   a.InterestRate,
		}
	}
	return settlement.TransactionView{
		TransactionID:  t.ID,
		Terms:          termsOf(t),
		TotalPrincipal: t.TotalPrincipalAmount,
		InterestRate:   t.TotalInterestRate,
		Entries:        entries,
	}
}
