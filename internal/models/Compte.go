package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeCompteCheque  = "cheque"
	TypeCompteEpargne = "epargne"

	StatutCompteActif   = "actif"
	StatutCompteInactif = "inactif"
	StatutCompteBloque  = "bloqué"
	StatutCompteFerme   = "fermé"
)

// Compte is a bank account owned by a Client. Its balance is never stored:
// it is derived from the transaction ledger on every read.
type Compte struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID      uuid.UUID      `gorm:"type:uuid;index;not null" json:"client_id"`
	Client        Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	NumeroCompte  string         `gorm:"uniqueIndex;not null" json:"numero_compte"`
	Type          string         `json:"type"`   // "cheque" or "epargne"
	Statut        string         `json:"statut"` // "actif", "inactif", "bloqué", "fermé"
	MotifBlocage  *string        `json:"motif_blocage,omitempty"`
	DateFermeture *time.Time     `json:"date_fermeture,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Transactions []Transaction `gorm:"foreignKey:CompteID" json:"transactions,omitempty"`
}

func (c *Compte) EstFerme() bool {
	return c.Statut == StatutCompteFerme
}

func (c *Compte) EstBloque() bool {
	return c.Statut == StatutCompteBloque
}
