package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"sunu_bank/internal/bank"
	"sunu_bank/internal/middleware"
	"sunu_bank/internal/models"
)

type UserFinder interface {
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthController struct {
	users  UserFinder
	tokens TokenRevoker
}

func NewAuthController(users UserFinder, tokens TokenRevoker) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

type loginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token. Bad login and bad password
// answer identically.
func (a *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationResponse(c, bindingErrors(err))
		return
	}

	user, err := a.users.FindUserByLogin(c.Request.Context(), input.Login)
	if err != nil {
		if errors.Is(err, bank.ErrNotFound) {
			errorResponse(c, http.StatusUnauthorized, "Identifiants invalides")
			return
		}
		respondDomainError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		errorResponse(c, http.StatusUnauthorized, "Identifiants invalides")
		return
	}

	token, _, expiresIn, err := middleware.GenerateToken(user)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	successResponse(c, http.StatusOK, "Connexion réussie", gin.H{
		"user":      user,
		"token":     token,
		"tokenType": "Bearer",
		"expiresIn": expiresIn,
	})
}

// Logout denylists the caller's token until its natural expiry.
func (a *AuthController) Logout(c *gin.Context) {
	jti, exp := middleware.CurrentJTI(c)
	ttl := time.Until(exp)

	if err := a.tokens.Revoke(c.Request.Context(), jti, ttl); err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Déconnexion réussie", nil)
}
