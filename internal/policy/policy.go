// Package policy holds the access rules for comptes and transactions as a
// pure function over actor role, permission set and resource ownership. It
// has no side effects and touches neither the database nor the HTTP layer.
package policy

import (
	"github.com/google/uuid"

	"sunu_bank/internal/models"
)

type Action string

const (
	ViewAnyComptes   Action = "compte.viewAny"
	ViewCompte       Action = "compte.view"
	CreateCompte     Action = "compte.create"
	UpdateCompte     Action = "compte.update"
	CloseCompte      Action = "compte.close"
	ViewTransactions Action = "transactions.view"
	ViewDashboard    Action = "admin.dashboard"
)

// Actor is the authenticated caller as carried by the token: role,
// capability strings, and the Client record it owns if any.
type Actor struct {
	UserID      uuid.UUID
	Role        string
	Permissions []string
	ClientID    *uuid.UUID
}

func (a Actor) hasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (a Actor) owns(compte *models.Compte) bool {
	return a.ClientID != nil && compte != nil && compte.ClientID == *a.ClientID
}

// Allowed decides whether actor may perform action on compte. Listing and
// creation take a nil compte since no resource instance exists yet. Any
// combination not explicitly granted is denied.
func Allowed(actor Actor, action Action, compte *models.Compte) bool {
	switch action {
	case ViewAnyComptes:
		return actor.hasPermission(models.PermCompteRead)

	case CreateCompte:
		return actor.hasPermission(models.PermCompteWrite)

	case ViewCompte:
		if actor.Role == models.RoleAdmin {
			return actor.hasPermission(models.PermCompteRead)
		}
		if actor.Role == models.RoleClient {
			return actor.owns(compte) && actor.hasPermission(models.PermCompteRead)
		}

	case UpdateCompte:
		if actor.Role == models.RoleAdmin {
			return actor.hasPermission(models.PermCompteWrite)
		}
		if actor.Role == models.RoleClient {
			return actor.owns(compte) && actor.hasPermission(models.PermCompteWrite)
		}

	case CloseCompte:
		return actor.Role == models.RoleAdmin && actor.hasPermission(models.PermCompteWrite)

	case ViewTransactions:
		if actor.Role == models.RoleAdmin {
			return actor.hasPermission(models.PermTransactionRead)
		}
		if actor.Role == models.RoleClient {
			return actor.owns(compte) && actor.hasPermission(models.PermTransactionRead)
		}

	case ViewDashboard:
		return actor.Role == models.RoleAdmin
	}

	return false
}
