// internal/handlers/friend.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/syndicator/backend/internal/i18n"
	"github.com/syndicator/backend/internal/models"
	"github.com/syndicator/backend/internal/services"
	"github.com/syndicator/backend/internal/utils"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// POST /friends/requests
func (h *FriendHandler) SendRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Username string `json:"username" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.friendService.SendRequest(userID, req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.AlreadyFriends {
		utils.SuccessResponse(c, gin.H{
			"message":         i18n.T(lang, i18n.KeyFriendAlreadyFriends),
			"already_friends": true,
		})
		return
	}

	if !result.Created {
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyFriendRequestCreated),
			"request": result.Request,
		})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFriendRequestCreated),
		"request": result.Request,
	})
}

// GET /friends/requests
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	listing, err := h.friendService.ListRequests(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// PATCH /friends/requests/:id
func (h *FriendHandler) UpdateRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	request, err := h.friendService.UpdateStatus(userID, requestID, models.FriendRequestStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFriendRequestUpdated),
		"request": request,
	})
}

// GET /friends
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	friends, err := h.friendService.ListFriends(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"friends": friends,
		"total":   len(friends),
	})
}

func (h *FriendHandler) respondError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrFriendRequestNotFound):
		utils.NotFoundResponse(c, "friend.request")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.ForbiddenResponse(c, "")
	default:
		logrus.WithError(err).Error("Friend request handling failed")
		utils.InternalErrorResponse(c, "")
	}
}
