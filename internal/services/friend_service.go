// internal/services/friend_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syndicator/backend/internal/models"
)

// FriendService is the relationship store. Two users are connected when
// an accepted friend request exists between them in either direction;
// that single query gates who may be pulled into a syndicate.
type FriendService struct {
	db *gorm.DB
}

type FriendRequestResponse struct {
	Request        *models.FriendRequest `json:"request"`
	AlreadyFriends bool                  `json:"already_friends"`
	Created        bool                  `json:"created"`
}

type FriendRequestListing struct {
	Total         int                    `json:"total"`
	SentCount     int                    `json:"sent_count"`
	ReceivedCount int                    `json:"received_count"`
	StatusSummary map[string]int         `json:"status_summary"`
	Sent          []models.FriendRequest `json:"sent"`
	Received      []models.FriendRequest `json:"received"`
}

func NewFriendService(db *gorm.DB) *FriendService {
	return &FriendService{db: db}
}

// SendRequest creates a pending friend request toward the user named by
// username. Re-sending an existing request is a no-op returning the
// current row; an already accepted relationship short-circuits.
func (s *FriendService) SendRequest(requesterID uuid.UUID, username string) (*FriendRequestResponse, error) {
	var recipient models.User
	if err := s.db.Where("username = ?", username).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if recipient.ID == requesterID {
		return nil, validationErrorf("users cannot add themselves as a friend")
	}

	if connected, err := s.AreFriends(s.db, requesterID, recipient.ID); err != nil {
		return nil, err
	} else if connected {
		return &FriendRequestResponse{AlreadyFriends: true}, nil
	}

	var request models.FriendRequest
	err := s.db.Where("requester_id = ? AND recipient_id = ?", requesterID, recipient.ID).
		First(&request).Error
	if err == nil {
		return &FriendRequestResponse{Request: &request}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	request = models.FriendRequest{
		RequesterID: requesterID,
		RecipientID: recipient.ID,
		Status:      models.FriendRequestPending,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	return &FriendRequestResponse{Request: &request, Created: true}, nil
}

// ListRequests returns every friend request the user is involved in,
// most recent first, split by direction.
func (s *FriendService) ListRequests(userID uuid.UUID) (*FriendRequestListing, error) {
	var requests []models.FriendRequest
	if err := s.db.Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Preload("Requester").Preload("Recipient").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friend requests: %w", err)
	}

	listing := &FriendRequestListing{
		Total: len(requests),
		StatusSummary: map[string]int{
			string(models.FriendRequestPending):  0,
			string(models.FriendRequestAccepted): 0,
			string(models.FriendRequestRejected): 0,
			string(models.FriendRequestCanceled): 0,
		},
		Sent:     []models.FriendRequest{},
		Received: []models.FriendRequest{},
	}

	for _, r := range requests {
		listing.StatusSummary[string(r.Status)]++
		if r.RequesterID == userID {
			listing.Sent = append(listing.Sent, r)
		} else {
			listing.Received = append(listing.Received, r)
		}
	}
	listing.SentCount = len(listing.Sent)
	listing.ReceivedCount = len(listing.Received)

	return listing, nil
}

// UpdateStatus transitions a friend request. Only the recipient may
// accept or reject, only the sender may cancel.
func (s *FriendService) UpdateStatus(userID, requestID uuid.UUID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if !status.Valid() {
		return nil, validationErrorf("invalid status %q: must be one of pending, accepted, rejected, canceled", status)
	}

	var request models.FriendRequest
	if err := s.db.Preload("Requester").Preload("Recipient").First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !request.Involves(userID) {
		return nil, ErrPermissionDenied
	}

	switch status {
	case models.FriendRequestAccepted, models.FriendRequestRejected:
		if userID != request.RecipientID {
			return nil, ErrPermissionDenied
		}
	case models.FriendRequestCanceled:
		if userID != request.RequesterID {
			return nil, ErrPermissionDenied
		}
	}

	request.Status = status
	if err := s.db.Save(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}

	return &request, nil
}

// ListFriends returns every user connected to userID through an
// accepted request, regardless of who sent it.
func (s *FriendService) ListFriends(userID uuid.UUID) ([]models.User, error) {
	var requests []models.FriendRequest
	if err := s.db.Where("(requester_id = ? OR recipient_id = ?) AND status = ?",
		userID, userID, models.FriendRequestAccepted).
		Preload("Requester").Preload("Recipient").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}

	friends := make([]models.User, 0, len(requests))
	for _, r := range requests {
		if r.RequesterID == userID {
			friends = append(friends, r.Recipient)
		} else {
			friends = append(friends, r.Requester)
		}
	}
	return friends, nil
}

// AreFriends is the is_connected query: an accepted request in either
// direction. It runs on the db handle it is given so transaction
// creation can re-check friendship inside its own atomic unit.
func (s *FriendService) AreFriends(db *gorm.DB, a, b uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.FriendRequest{}).
		Where("((requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)) AND status = ?",
			a, b, b, a, models.FriendRequestAccepted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}
