package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	handler "rent-credit-reporting-backend/internal/handlers"
	"rent-credit-reporting-backend/internal/metrics"
	"rent-credit-reporting-backend/internal/repository"
	service "rent-credit-reporting-backend/internal/services/reporting"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, log *logrus.Logger) {
	store := repository.NewReportStore(db)
	reportService := service.NewService(store, log)
	reportHandler := handler.NewReportHandler(reportService, log)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Credit-reporting pipeline routes
	reports := api.Group("/credit-reporting")
	reports.POST("/validate-credit-report-batch", reportHandler.ValidateBatch)
	reports.POST("/manage-credit-report-batch", reportHandler.ManageBatch)
	reports.GET("/batches", reportHandler.ListBatches)
	reports.GET("/batches/:batchId", reportHandler.GetBatch)
}
