// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the UUID in application code so the same models
// work against postgres and the sqlite test database.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// SyndicatorRef is one entry of the roster snapshot stored on a
// transaction. The snapshot is informational; settlement always reads
// the Allocation rows.
type SyndicatorRef struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SyndicatorList is stored as a JSON column.
type SyndicatorList []SyndicatorRef

func (l SyndicatorList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]SyndicatorRef{})
	}
	return json.Marshal(l)
}

func (l *SyndicatorList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Enums
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
	FriendRequestCanceled FriendRequestStatus = "canceled"
)

func (s FriendRequestStatus) Valid() bool {
	switch s {
	case FriendRequestPending, FriendRequestAccepted, FriendRequestRejected, FriendRequestCanceled:
		return true
	}
	return false
}
