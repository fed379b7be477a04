package bank

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sunu_bank/internal/models"
)

// Ledger returns every transaction touching a compte: rows it owns plus
// transfert rows where it is the destinataire.
type Ledger interface {
	LedgerEntries(ctx context.Context, compteID uuid.UUID) ([]models.Transaction, error)
}

// BalanceCalculator derives the current balance of a compte from its
// transaction log. The ledger is the sole source of truth; nothing is cached.
type BalanceCalculator struct {
	ledger Ledger
}

func NewBalanceCalculator(ledger Ledger) *BalanceCalculator {
	return &BalanceCalculator{ledger: ledger}
}

// Compute sums deposits minus withdrawals. A transfert debits the compte that
// owns the row and credits the destinataire. An empty ledger yields zero.
func (b *BalanceCalculator) Compute(ctx context.Context, compteID uuid.UUID) (decimal.Decimal, error) {
	entries, err := b.ledger.LedgerEntries(ctx, compteID)
	if err != nil {
		return decimal.Zero, err
	}

	solde := decimal.Zero
	for _, tx := range entries {
		if tx.CompteID == compteID {
			switch tx.Type {
			case models.TypeTransactionDepot:
				solde = solde.Add(tx.Montant)
			case models.TypeTransactionRetrait, models.TypeTransactionTransfert:
				solde = solde.Sub(tx.Montant)
			}
		} else if tx.Type == models.TypeTransactionTransfert && tx.DestinataireID == compteID {
			solde = solde.Add(tx.Montant)
		}
	}
	return solde, nil
}

// ComputeOrZero is the degraded read used by listing paths: a compte whose
// ledger cannot be read shows solde 0 instead of failing the whole page.
func (b *BalanceCalculator) ComputeOrZero(ctx context.Context, compteID uuid.UUID) decimal.Decimal {
	solde, err := b.Compute(ctx, compteID)
	if err != nil {
		logrus.WithField("compte_id", compteID).WithError(err).Warn("erreur calcul solde, solde dégradé à 0")
		return decimal.Zero
	}
	return solde
}
