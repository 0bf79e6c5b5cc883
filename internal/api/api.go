package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/api/handlers"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/api/middleware"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Pricing *service.PricingService
	// Drive serves /api/drive/*; nil disables the Drive routes.
	Drive     http.Handler
	UploadDir string
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger("/health"))
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	if services == nil {
		return router
	}

	if services.Pricing != nil {
		pricingHandler := handlers.NewPricingHandler(services.Pricing, services.UploadDir)
		router.GET("/health", pricingHandler.HealthCheck)

		apiGroup := router.Group("/api/v1")
		{
			apiGroup.GET("/kpis/json", pricingHandler.GetKPIs)
			apiGroup.GET("/sections", pricingHandler.GetSections)
			apiGroup.GET("/stores", pricingHandler.GetStores)
			apiGroup.GET("/price-index", pricingHandler.GetPriceIndex)
			apiGroup.GET("/health", pricingHandler.GetHealth)
			apiGroup.GET("/promotions", pricingHandler.GetPromotions)
			apiGroup.GET("/outliers", pricingHandler.GetOutliers)
			apiGroup.GET("/market", pricingHandler.GetMarket)
			apiGroup.POST("/refresh", pricingHandler.Refresh)
			apiGroup.POST("/upload", pricingHandler.Upload)
		}
	}

	if services.Drive != nil {
		router.Any("/api/drive/*path", gin.WrapH(services.Drive))
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
