// internal/models/friend.go
package models

import (
	"github.com/google/uuid"
)

// FriendRequest is the relationship store: two users are connected when
// an accepted request exists between them in either direction.
type FriendRequest struct {
	BaseModel
	RequesterID uuid.UUID           `json:"requester_id" gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID           `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Status      FriendRequestStatus `json:"status" gorm:"type:varchar(10);default:'pending';index"`

	// Relationships
	Requester User `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	Recipient User `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}

// Involves reports whether the given user is either side of the request.
func (r *FriendRequest) Involves(userID uuid.UUID) bool {
	return r.RequesterID == userID || r.RecipientID == userID
}
