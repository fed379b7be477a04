package routes

import (
	"github.com/gin-gonic/gin"

	"sunu_bank/internal/middleware"
)

func AuthRoutes(r *gin.Engine, deps Deps) {
	auth := r.Group("auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/logout", middleware.RequireAuth(deps.Denylist), deps.Auth.Logout)
	}
}
