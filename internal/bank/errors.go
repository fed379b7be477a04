package bank

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrConflict        = errors.New("duplicate value for a unique field")
	ErrAlreadyClosed   = errors.New("compte already closed")
	ErrPositiveBalance = errors.New("compte still holds a positive balance")
	ErrNumeroExhausted = errors.New("could not generate a unique numero de compte")
	ErrMinimumDeposit  = errors.New("opening deposit below the configured minimum")
	ErrEmptyUpdate     = errors.New("at least one field must be provided")
	ErrCompteBloque    = errors.New("compte is blocked")
	ErrCompteFerme     = errors.New("compte is closed")
	ErrMotifRequired   = errors.New("a blocking reason is required")
	ErrInvalidStatut   = errors.New("invalid status transition")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrSelfTransfer    = errors.New("cannot transfer to the same compte")
	ErrInsufficient    = errors.New("insufficient funds")
)
