package main

import (
	"os"
	"time"

	"bank-reconciliation-backend/internal/config"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/routes"
	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on system env")
	}
	settings := config.Load()

	db, err := config.InitDB()
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}

	if err := db.AutoMigrate(
		&models.BankTransaction{},
		&models.JournalEntry{},
		&models.ReconciliationConfig{},
		&models.ReconciliationTask{},
		&models.Reconciliation{},
	); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{settings.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	reconService := routes.RegisterRoutes(r, db, settings, log)

	janitor := service.NewJanitor(reconService.TaskManager(), settings.TaskRetention)
	janitor.SetLogger(log)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("janitor start failed")
	}
	defer janitor.Stop()

	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
