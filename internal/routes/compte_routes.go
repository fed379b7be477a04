package routes

import (
	"github.com/gin-gonic/gin"

	"sunu_bank/internal/middleware"
	"sunu_bank/internal/models"
)

func CompteRoutes(r *gin.Engine, deps Deps) {
	comptes := r.Group("v1/comptes")
	comptes.Use(middleware.RequireAuth(deps.Denylist))
	{
		comptes.GET("", deps.Comptes.List)
		comptes.POST("", deps.Comptes.Create)
		comptes.GET("/:id", deps.Comptes.Get)
		comptes.PATCH("/:id", deps.Comptes.Update)
		comptes.DELETE("/:id", deps.Comptes.Close)
		comptes.GET("/:id/transactions", deps.Comptes.ListTransactions)
		comptes.POST("/:id/transactions", deps.Comptes.CreateTransaction)
	}

	blocage := r.Group("v1/comptes")
	blocage.Use(middleware.RequireRole(deps.Denylist, models.RoleAdmin))
	{
		blocage.POST("/:id/bloquer", deps.Comptes.Block)
		blocage.POST("/:id/debloquer", deps.Comptes.Unblock)
	}
}
