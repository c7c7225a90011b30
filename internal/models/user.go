// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Name         string     `json:"name" gorm:"size:50"`
	PhoneNumber  string     `json:"phone_number,omitempty" gorm:"size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	OriginatedTransactions []Transaction   `json:"originated_transactions,omitempty" gorm:"foreignKey:RiskTakerID"`
	Allocations            []Allocation    `json:"allocations,omitempty" gorm:"foreignKey:SyndicatorID"`
	SentFriendRequests     []FriendRequest `json:"sent_friend_requests,omitempty" gorm:"foreignKey:RequesterID"`
	ReceivedFriendRequests []FriendRequest `json:"received_friend_requests,omitempty" gorm:"foreignKey:RecipientID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// DisplayName falls back to the username when no name was set.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
