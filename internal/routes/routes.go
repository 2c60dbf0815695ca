package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"bank-reconciliation-backend/internal/config"
	handler "bank-reconciliation-backend/internal/handlers"
	"bank-reconciliation-backend/internal/repository"
	service "bank-reconciliation-backend/internal/services/reconciliation"
)

// RegisterRoutes wires the persistence, service and handler layers onto the
// engine and returns the service so the caller can attach background jobs.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, settings config.Settings, log zerolog.Logger) *service.Service {
	store := repository.NewStore(db)

	reconService := service.NewService(store, settings.TaskTimeBudget)
	reconService.SetLogger(log)

	reconHandler := handler.NewReconciliationHandler(reconService)
	configHandler := handler.NewConfigHandler(reconService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	recon := api.Group("/reconciliation")
	recon.POST("/tasks", reconHandler.StartTask)
	recon.GET("/tasks", reconHandler.ListTasks)
	recon.GET("/tasks/:taskId", reconHandler.GetTaskStatus)
	recon.POST("/tasks/:taskId/cancel", reconHandler.CancelTask)
	recon.GET("/tasks/:taskId/suggestions", reconHandler.ListSuggestions)
	recon.POST("/finalize", reconHandler.Finalize)
	recon.POST("/bulk-delete", reconHandler.BulkDelete)

	configs := api.Group("/configs")
	{
		configs.POST("", configHandler.CreateConfig)
		configs.GET("", configHandler.ListConfigs)
		configs.GET("/:configId", configHandler.GetConfig)
	}

	return reconService
}
