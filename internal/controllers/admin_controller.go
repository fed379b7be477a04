package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sunu_bank/internal/bank"
	"sunu_bank/internal/middleware"
	"sunu_bank/internal/policy"
)

type StatsProvider interface {
	Dashboard(ctx context.Context) (bank.DashboardStats, error)
}

type AdminController struct {
	stats StatsProvider
}

func NewAdminController(stats StatsProvider) *AdminController {
	return &AdminController{stats: stats}
}

// Dashboard returns aggregate counts for the admin console.
func (a *AdminController) Dashboard(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if !policy.Allowed(actor, policy.ViewDashboard, nil) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	stats, err := a.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Statistiques récupérées avec succès", stats)
}
