package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sunu_bank/internal/models"
)

// SeedAdmin creates the default administrator when the users table is empty,
// so a fresh deployment has a working login.
func SeedAdmin(db *gorm.DB, login, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:        uuid.New(),
		Nom:       "Admin",
		Prenom:    "Système",
		Login:     login,
		Email:     login,
		Telephone: "+221770000000",
		CNI:       "AA000000000",
		Adresse:   "Dakar",
		Sexe:      "Homme",
		Statut:    models.StatutUserActif,
		Role:      models.RoleAdmin,
		Permissions: []string{
			models.PermCompteRead,
			models.PermCompteWrite,
			models.PermTransactionRead,
		},
		DateNaissance: time.Now().AddDate(-30, 0, 0),
		IsVerified:    true,
		Password:      string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logrus.WithField("login", login).Info("administrateur par défaut créé")
	return nil
}
