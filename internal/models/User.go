package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"

	StatutUserActif   = "Actif"
	StatutUserInactif = "Inactif"

	PermCompteRead      = "compte:read"
	PermCompteWrite     = "compte:write"
	PermTransactionRead = "transaction:read"
)

type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Nom           string         `json:"nom"`
	Prenom        string         `json:"prenom"`
	Login         string         `gorm:"uniqueIndex;not null" json:"login"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Telephone     string         `gorm:"uniqueIndex;not null" json:"telephone"`
	CNI           string         `gorm:"column:cni;uniqueIndex;not null" json:"cni"`
	Adresse       string         `json:"adresse"`
	Sexe          string         `json:"sexe"`
	Code          string         `json:"-"`
	Statut        string         `json:"statut"` // "Actif" or "Inactif"
	Role          string         `json:"role"`   // "admin" or "client"
	Permissions   pq.StringArray `gorm:"type:text[]" json:"permissions"`
	DateNaissance time.Time      `json:"date_naissance"`
	IsVerified    bool           `json:"is_verified"`
	Password      string         `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Client *Client `gorm:"foreignKey:UserID" json:"client,omitempty"`
}

// HasPermission reports whether the user carries the given capability string.
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	return u.Role == role
}
