// internal/services/transaction_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syndicator/backend/internal/database"
	"github.com/syndicator/backend/internal/models"
	"github.com/syndicator/backend/internal/settlement"
	"github.com/syndicator/backend/internal/utils"
)

// TransactionService owns the transaction creation workflow and every
// allocation read. Creation validates the full request before touching
// the database and then writes the transaction and its allocations as
// one atomic unit; the friendship check runs inside that unit so a
// concurrently revoked friendship cannot slip a stranger into a
// syndicate.
type TransactionService struct {
	db      *gorm.DB
	friends *FriendService
}

func NewTransactionService(db *gorm.DB, friends *FriendService) *TransactionService {
	return &TransactionService{
		db:      db,
		friends: friends,
	}
}

// SyndicateShare is one syndicate_details entry: the participant's
// principal share and their interest rate (percent, applied to their
// own share). The rate must match the transaction-level rate.
type SyndicateShare struct {
	PrincipalShare float64 `json:"principal_share"`
	InterestRate   float64 `json:"interest_rate"`
}

type CreateTransactionRequest struct {
	TotalPrincipalAmount  *float64                  `json:"total_principal_amount" validate:"required"`
	TotalInterestRate     *float64                  `json:"total_interest_rate" validate:"required"`
	SyndicateDetails      map[string]SyndicateShare `json:"syndicate_details,omitempty"`
	CommissionEnabled     bool                      `json:"commission_enabled"`
	CommissionRatePercent float64                   `json:"commission_rate_percent"`
	StartDate             string                    `json:"start_date" validate:"required"`
	EndDate               string                    `json:"end_date,omitempty"`
	MonthPeriodOfLoan     *int                      `json:"month_period_of_loan,omitempty"`
	LenderName            string                    `json:"lender_name,omitempty" validate:"omitempty,max=100"`
}

// AllocationView is an allocation with its settled figures filled in.
type AllocationView struct {
	AllocationID            uuid.UUID  `json:"allocation_id"`
	TransactionID           uuid.UUID  `json:"transaction_id"`
	SyndicatorID            uuid.UUID  `json:"syndicator_id"`
	SyndicatorUsername      string     `json:"syndicator_username"`
	SyndicatorName          string     `json:"syndicator_name,omitempty"`
	PrincipalShare          float64    `json:"principal_share"`
	InterestRate            float64    `json:"interest_rate"`
	ActualInterestAmount    float64    `json:"actual_interest_amount"`
	CommissionDeducted      float64    `json:"commission_deducted"`
	InterestAfterCommission float64    `json:"interest_after_commission"`
	IsRiskTaker             bool       `json:"is_risk_taker"`
	CommissionEnabled       bool       `json:"commission_enabled"`
	CreatedAt               time.Time  `json:"created_at"`
}

type CreateTransactionResult struct {
	Transaction     *models.Transaction `json:"transaction"`
	Allocations     []AllocationView    `json:"allocations"`
	TransactionType string              `json:"transaction_type"` // "solo" or "syndicated"
}

type UserAllocationsResult struct {
	Allocations []AllocationView       `json:"allocations"`
	Summary     UserAllocationsSummary `json:"summary"`
}

type UserAllocationsSummary struct {
	TotalPrincipalCommitted      float64 `json:"total_principal_committed"`
	TotalOriginalInterest        float64 `json:"total_original_interest"`
	TotalInterestAfterCommission float64 `json:"total_interest_after_commission"`
	TotalCommissionPaid          float64 `json:"total_commission_paid"`
	AllocationCount              int     `json:"allocation_count"`
}

type TransactionAllocationsResult struct {
	Transaction *models.Transaction           `json:"transaction"`
	Allocations []AllocationView              `json:"allocations"`
	Summary     TransactionAllocationsSummary `json:"summary"`
}

type TransactionAllocationsSummary struct {
	TotalSplits                  int     `json:"total_splits"`
	TotalPrincipalSplit          float64 `json:"total_principal_split"`
	TotalOriginalInterest        float64 `json:"total_original_interest"`
	TotalInterestAfterCommission float64 `json:"total_interest_after_commission"`
	TotalCommissionDistributed   float64 `json:"total_commission_distributed"`
	SyndicatorsPayingCommission  int     `json:"syndicators_paying_commission"`
}

type TransactionListing struct {
	Transactions           []models.Transaction `json:"transactions"`
	Total                  int64                `json:"total"`
	AsRiskTakerCount       int64                `json:"as_risk_taker"`
	AsSyndicateMemberCount int64                `json:"as_syndicate_member"`
}

const dateLayout = "2006-01-02"

// Create validates the request and materializes the transaction with
// its allocation set. Validation fails fast: the first violation wins
// and nothing is written.
func (s *TransactionService) Create(riskTakerID uuid.UUID, req *CreateTransactionRequest) (*CreateTransactionResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationErrorf("total_principal_amount, total_interest_rate and start_date are required")
	}

	principal := *req.TotalPrincipalAmount
	interestRate := *req.TotalInterestRate
	if principal < 0 || interestRate < 0 {
		return nil, validationErrorf("total_principal_amount and total_interest_rate must not be negative")
	}

	if req.CommissionEnabled && (req.CommissionRatePercent <= 0 || req.CommissionRatePercent > 100) {
		return nil, validationErrorf("commission_rate_percent must be between 0 and 100 when commission is enabled")
	}
	commissionRate := req.CommissionRatePercent
	if !req.CommissionEnabled {
		commissionRate = 0
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, validationErrorf("start_date must be formatted as %s", dateLayout)
	}
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return nil, validationErrorf("end_date must be formatted as %s", dateLayout)
		}
		endDate = &parsed
	}

	var riskTaker models.User
	if err := s.db.First(&riskTaker, riskTakerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := &CreateTransactionResult{TransactionType: "solo"}
	if len(req.SyndicateDetails) > 0 {
		result.TransactionType = "syndicated"
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var roster models.SyndicatorList
		var participants map[string]models.User

		if len(req.SyndicateDetails) > 0 {
			var err error
			participants, err = s.resolveParticipants(tx, req.SyndicateDetails)
			if err != nil {
				return err
			}

			// Friendship is re-checked inside the write transaction so a
			// revocation racing this request cannot be approved.
			if err := s.checkFriendships(tx, &riskTaker, participants); err != nil {
				return err
			}

			if err := validateShares(req.SyndicateDetails, principal, interestRate); err != nil {
				return err
			}

			usernames := sortedUsernames(participants)
			for _, username := range usernames {
				u := participants[username]
				roster = append(roster, models.SyndicatorRef{
					UserID:   u.ID.String(),
					Username: u.Username,
				})
			}
		}

		transaction := &models.Transaction{
			RiskTakerID:           riskTaker.ID,
			Syndicators:           roster,
			TotalPrincipalAmount:  principal,
			TotalInterestRate:     interestRate,
			CommissionEnabled:     req.CommissionEnabled,
			CommissionRatePercent: commissionRate,
			StartDate:             startDate,
			EndDate:               endDate,
			MonthPeriodOfLoan:     req.MonthPeriodOfLoan,
			LenderName:            req.LenderName,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		allocations, err := s.createAllocations(tx, transaction, &riskTaker, req.SyndicateDetails, participants)
		if err != nil {
			return err
		}

		transaction.RiskTaker = riskTaker
		result.Transaction = transaction
		result.Allocations = allocations
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *TransactionService) resolveParticipants(tx *gorm.DB, details map[string]SyndicateShare) (map[string]models.User, error) {
	usernames := make([]string, 0, len(details))
	for username := range details {
		usernames = append(usernames, username)
	}

	var users []models.User
	if err := tx.Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve syndicators: %w", err)
	}

	byUsername := make(map[string]models.User, len(users))
	for _, u := range users {
		byUsername[u.Username] = u
	}

	var missing []string
	for _, username := range usernames {
		if _, ok := byUsername[username]; !ok {
			missing = append(missing, username)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, validationErrorf("users not found: %s", strings.Join(missing, ", "))
	}

	return byUsername, nil
}

func (s *TransactionService) checkFriendships(tx *gorm.DB, riskTaker *models.User, participants map[string]models.User) error {
	var nonFriends []string
	for _, username := range sortedUsernames(participants) {
		u := participants[username]
		// The risk taker may syndicate to themselves without a friendship.
		if u.ID == riskTaker.ID {
			continue
		}
		connected, err := s.friends.AreFriends(tx, riskTaker.ID, u.ID)
		if err != nil {
			return err
		}
		if !connected {
			nonFriends = append(nonFriends, u.Username)
		}
	}
	if len(nonFriends) > 0 {
		return validationErrorf("syndicator(s) %s are not accepted friends", strings.Join(nonFriends, ", "))
	}
	return nil
}

func validateShares(details map[string]SyndicateShare, totalPrincipal, totalInterestRate float64) error {
	usernames := make([]string, 0, len(details))
	for username := range details {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	var principalSum float64
	for _, username := range usernames {
		share := details[username]
		if share.PrincipalShare < 0 {
			return validationErrorf("principal_share for %s must not be negative", username)
		}
		// A single shared interest rate across the whole syndicate.
		if math.Abs(share.InterestRate-totalInterestRate) > settlement.AmountTolerance {
			return validationErrorf(
				"interest rate for %s (%.2f) must equal total_interest_rate (%.2f): all syndicators share one rate",
				username, share.InterestRate, totalInterestRate)
		}
		principalSum += share.PrincipalShare
	}

	if math.Abs(principalSum-totalPrincipal) > settlement.AmountTolerance {
		return validationErrorf(
			"total_principal_amount (%.2f) does not match the sum of principal shares (%.2f)",
			totalPrincipal, principalSum)
	}
	return nil
}

func (s *TransactionService) createAllocations(
	tx *gorm.DB,
	transaction *models.Transaction,
	riskTaker *models.User,
	details map[string]SyndicateShare,
	participants map[string]models.User,
) ([]AllocationView, error) {
	terms := termsOf(transaction)

	// Solo transaction: the risk taker holds the whole loan.
	if len(details) == 0 {
		allocation := &models.Allocation{
			TransactionID:  transaction.ID,
			SyndicatorID:   riskTaker.ID,
			PrincipalShare: transaction.TotalPrincipalAmount,
			InterestRate:   transaction.TotalInterestRate,
		}
		if err := tx.Create(allocation).Error; err != nil {
			return nil, fmt.Errorf("failed to create allocation: %w", err)
		}
		allocation.Syndicator = *riskTaker
		return []AllocationView{newAllocationView(allocation, terms)}, nil
	}

	views := make([]AllocationView, 0, len(details))
	for _, username := range sortedUsernames(participants) {
		share := details[username]
		participant := participants[username]
		allocation := &models.Allocation{
			TransactionID:  transaction.ID,
			SyndicatorID:   participant.ID,
			PrincipalShare: share.PrincipalShare,
			InterestRate:   share.InterestRate,
		}
		if err := tx.Create(allocation).Error; err != nil {
			return nil, fmt.Errorf("failed to create allocation: %w", err)
		}
		allocation.Syndicator = participant
		views = append(views, newAllocationView(allocation, terms))
	}
	return views, nil
}

// GetUserAllocations returns every allocation held by the user with
// settled figures and a roll-up summary.
func (s *TransactionService) GetUserAllocations(userID uuid.UUID) (*UserAllocationsResult, error) {
	var allocations []models.Allocation
	if err := s.db.Where("syndicator_id = ?", userID).
		Preload("Transaction").Preload("Transaction.RiskTaker").Preload("Syndicator").
		Order("created_at DESC").
		Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch allocations: %w", err)
	}

	result := &UserAllocationsResult{Allocations: []AllocationView{}}
	for i := range allocations {
		a := &allocations[i]
		view := newAllocationView(a, termsOf(&a.Transaction))
		result.Allocations = append(result.Allocations, view)

		result.Summary.TotalPrincipalCommitted += view.PrincipalShare
		result.Summary.TotalOriginalInterest += view.ActualInterestAmount
		result.Summary.TotalInterestAfterCommission += view.InterestAfterCommission
		result.Summary.TotalCommissionPaid += view.CommissionDeducted
	}
	result.Summary.AllocationCount = len(result.Allocations)
	return result, nil
}

// GetTransactionAllocations returns the full allocation set of one
// transaction. The permission check runs before any data leaves the
// store: only the risk taker or a syndicate member may look.
func (s *TransactionService) GetTransactionAllocations(transactionID, requesterID uuid.UUID) (*TransactionAllocationsResult, error) {
	var transaction models.Transaction
	if err := s.db.Preload("RiskTaker").First(&transaction, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if transaction.RiskTakerID != requesterID {
		var memberCount int64
		if err := s.db.Model(&models.Allocation{}).
			Where("transaction_id = ? AND syndicator_id = ?", transactionID, requesterID).
			Count(&memberCount).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if memberCount == 0 {
			return nil, ErrPermissionDenied
		}
	}

	var allocations []models.Allocation
	if err := s.db.Where("transaction_id = ?", transactionID).
		Preload("Syndicator").
		Order("created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch allocations: %w", err)
	}

	terms := termsOf(&transaction)
	result := &TransactionAllocationsResult{
		Transaction: &transaction,
		Allocations: []AllocationView{},
	}
	for i := range allocations {
		view := newAllocationView(&allocations[i], terms)
		result.Allocations = append(result.Allocations, view)

		result.Summary.TotalPrincipalSplit += view.PrincipalShare
		result.Summary.TotalOriginalInterest += view.ActualInterestAmount
		result.Summary.TotalInterestAfterCommission += view.InterestAfterCommission
		result.Summary.TotalCommissionDistributed += view.CommissionDeducted
		if !view.IsRiskTaker {
			result.Summary.SyndicatorsPayingCommission++
		}
	}
	result.Summary.TotalSplits = len(result.Allocations)
	return result, nil
}

// List returns every transaction the user touches in either role,
// deduplicated, newest first.
func (s *TransactionService) List(userID uuid.UUID, params utils.PaginationParams) (*TransactionListing, error) {
	memberTxIDs := s.db.Model(&models.Allocation{}).
		Select("transaction_id").
		Where("syndicator_id = ?", userID)

	query := s.db.Model(&models.Transaction{}).
		Where("risk_taker_id = ? OR id IN (?)", userID, memberTxIDs).
		Preload("RiskTaker")

	listing := &TransactionListing{Transactions: []models.Transaction{}}
	if err := query.Count(&listing.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	sorted := utils.ApplySort(query, params, []string{"created_at", "start_date", "total_principal_amount"})
	paged := utils.ApplyPagination(sorted, params)
	if err := paged.Find(&listing.Transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	if err := s.db.Model(&models.Transaction{}).
		Where("risk_taker_id = ?", userID).
		Count(&listing.AsRiskTakerCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count risk-taker transactions: %w", err)
	}
	if err := s.db.Model(&models.Transaction{}).
		Where("id IN (?)", memberTxIDs).
		Count(&listing.AsSyndicateMemberCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count syndicate transactions: %w", err)
	}

	return listing, nil
}

func termsOf(t *models.Transaction) settlement.Terms {
	return settlement.Terms{
		RiskTakerID:           t.RiskTakerID,
		CommissionEnabled:     t.CommissionEnabled,
		CommissionRatePercent: t.CommissionRatePercent,
	}
}

func newAllocationView(a *models.Allocation, terms settlement.Terms) AllocationView {
	settled := settlement.SettleOne(terms, settlement.Entry{
		ParticipantID:  a.SyndicatorID,
		PrincipalShare: a.PrincipalShare,
		InterestRate:   a.InterestRate,
	})

	return AllocationView{
		AllocationID:            a.ID,
		TransactionID:           a.TransactionID,
		SyndicatorID:            a.SyndicatorID,
		SyndicatorUsername:      a.Syndicator.Username,
		SyndicatorName:          a.Syndicator.DisplayName(),
		PrincipalShare:          settled.PrincipalShare,
		InterestRate:            a.InterestRate,
		ActualInterestAmount:    settled.ActualInterest,
		CommissionDeducted:      settled.CommissionDeducted,
		InterestAfterCommission: settled.InterestAfterCommission,
		IsRiskTaker:             settled.IsRiskTaker,
		CommissionEnabled:       terms.CommissionEnabled,
		CreatedAt:               a.CreatedAt,
	}
}

func sortedUsernames(participants map[string]models.User) []string {
	usernames := make([]string, 0, len(participants))
	for username := range participants {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}
