// internal/handlers/transaction.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/syndicator/backend/internal/i18n"
	"github.com/syndicator/backend/internal/services"
	"github.com/syndicator/backend/internal/utils"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
}

func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.transactionService.Create(userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":          i18n.T(lang, i18n.KeyTransactionCreated),
		"transaction":      result.Transaction,
		"allocations":      result.Allocations,
		"transaction_type": result.TransactionType,
	})
}

// GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	listing, err := h.transactionService.List(userID, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(gin.H{
		"transactions":        listing.Transactions,
		"as_risk_taker":       listing.AsRiskTakerCount,
		"as_syndicate_member": listing.AsSyndicateMemberCount,
	}, listing.Total, params)
	utils.PaginatedResponse(c, result)
}

// GET /transactions/:id/allocations
func (h *TransactionHandler) GetTransactionAllocations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transaction ID", nil)
		return
	}

	result, err := h.transactionService.GetTransactionAllocations(transactionID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /allocations
func (h *TransactionHandler) GetUserAllocations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	result, err := h.transactionService.GetUserAllocations(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

func (h *TransactionHandler) respondError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.NotFoundResponse(c, "transaction")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.ForbiddenResponse(c, "")
	default:
		logrus.WithError(err).Error("Transaction handling failed")
		utils.InternalErrorResponse(c, "")
	}
}
