package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeTransactionDepot     = "depot"
	TypeTransactionRetrait   = "retrait"
	TypeTransactionTransfert = "transfert"
)

// Transaction is an append-only ledger entry. A depot or retrait references
// its own compte as destinataire; a transfert is a single row owned by the
// source compte with the credited compte as destinataire. Rows are never
// updated or deleted.
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompteID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"compte_id"`
	Type           string          `json:"type"` // "depot", "retrait" or "transfert"
	Montant        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"montant"`
	DestinataireID uuid.UUID       `gorm:"type:uuid;index;not null" json:"destinataire_id"`
	CreatedAt      time.Time       `json:"created_at"`
}
