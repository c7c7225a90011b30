// internal/handlers/portfolio.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/syndicator/backend/internal/services"
	"github.com/syndicator/backend/internal/utils"
)

type PortfolioHandler struct {
	portfolioService *services.PortfolioService
}

func NewPortfolioHandler(portfolioService *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// GET /portfolio
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(userID)
	if err != nil {
		logrus.WithError(err).Error("Portfolio aggregation failed")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, portfolio)
}
