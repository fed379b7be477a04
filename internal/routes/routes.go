package routes

import (
	"github.com/gin-gonic/gin"

	"sunu_bank/internal/controllers"
	"sunu_bank/internal/middleware"
)

// Deps carries the wired controllers and the token denylist the protected
// route groups authenticate against.
type Deps struct {
	Auth     *controllers.AuthController
	Comptes  *controllers.CompteController
	Admin    *controllers.AdminController
	Denylist middleware.Denylist
}

func SetupRouter(deps Deps) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	AuthRoutes(r, deps)
	CompteRoutes(r, deps)
	AdminRoutes(r, deps)

	return r
}
