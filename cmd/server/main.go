package main

import (
	"log"
	"net/http"

	"sunu_bank/internal/bank"
	"sunu_bank/internal/config"
	"sunu_bank/internal/controllers"
	"sunu_bank/internal/logger"
	"sunu_bank/internal/middleware"
	"sunu_bank/internal/routes"
	"sunu_bank/internal/storage"
)

func main() {
	// Structured logging to a rotating file
	logger.Setup()

	// Database and token denylist backends
	config.InitDB()
	config.InitRedis()

	if err := storage.SeedAdmin(config.DB, config.AdminLogin(), config.AdminPassword()); err != nil {
		log.Fatalf("admin seeding failed: %v", err)
	}

	store := storage.New(config.DB)
	denylist := storage.NewTokenDenylist(config.Redis)

	numeros := bank.NewNumeroGenerator(store, config.NumeroDigits(), config.NumeroMaxAttempts())
	service := bank.NewService(store, numeros, config.MinimumDeposit())

	r := routes.SetupRouter(routes.Deps{
		Auth:     controllers.NewAuthController(store, denylist),
		Comptes:  controllers.NewCompteController(service),
		Admin:    controllers.NewAdminController(service),
		Denylist: denylist,
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := config.ListenAddr()
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
