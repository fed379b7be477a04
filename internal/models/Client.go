package models

import (
	"time"

	"github.com/google/uuid"
)

// Client wraps a User with the banking-specific attributes of a customer.
type Client struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Profession string    `gorm:"default:Non spécifiée" json:"profession"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Comptes []Compte `gorm:"foreignKey:ClientID" json:"comptes,omitempty"`
}
