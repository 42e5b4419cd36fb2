package main

import (
	"log"
	"os"
	"strings"
	"time"

	"rent-credit-reporting-backend/internal/config"
	"rent-credit-reporting-backend/internal/metrics"
	"rent-credit-reporting-backend/internal/models"
	"rent-credit-reporting-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	logger := config.NewLogger()
	db := config.InitDB()

	// tenants and consents are owned by the onboarding and consent
	// services; this pipeline only reads them.
	db.AutoMigrate(
		&models.Batch{},
		&models.Entry{},
		&models.Issue{},
		&models.AuditLog{},
	)

	r := gin.Default()
	r.Use(metrics.Middleware())

	// CORS config
	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, logger)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	r.Run(addr)
}
