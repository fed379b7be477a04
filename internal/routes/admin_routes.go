package routes

import (
	"github.com/gin-gonic/gin"

	"sunu_bank/internal/middleware"
	"sunu_bank/internal/models"
)

func AdminRoutes(r *gin.Engine, deps Deps) {
	admin := r.Group("v1/admin")
	admin.Use(middleware.RequireRole(deps.Denylist, models.RoleAdmin))
	{
		admin.GET("/dashboard", deps.Admin.Dashboard)
	}
}
