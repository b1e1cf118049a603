package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"property-backend/config"
	"property-backend/internal/mw"
	"property-backend/internal/service"
	"property-backend/internal/upload"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, svc *service.Services, uploader *upload.Uploader, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(log), mw.Recovery(log))

	handler := NewHandler(svc, uploader, log, cfg.Production())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Uploaded declarations are plain static files when kept on disk.
	if dir, ok := uploader.Local(); ok {
		r.Static("/uploads", dir)
	}

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.Health)

		data := api.Group("")
		if cfg.CacheTTLSeconds > 0 {
			ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
			data.Use(mw.Cache(cache.New(ttl, 2*ttl), ttl))
		}

		data.GET("/properties", handler.ListProperties)
		data.GET("/properties/:id", handler.GetProperty)
		data.POST("/properties", handler.CreateProperty)
		data.PUT("/properties/:id", handler.UpdateProperty)
		data.DELETE("/properties/:id", handler.DeleteProperty)

		data.GET("/properties/:id/buildings", handler.ListBuildings)
		data.POST("/properties/:id/buildings", handler.CreateBuilding)
		data.PUT("/buildings/:id", handler.UpdateBuilding)
		data.DELETE("/buildings/:id", handler.DeleteBuilding)

		data.GET("/buildings/:id/units", handler.ListUnits)
		data.POST("/buildings/:id/units", handler.CreateUnit)
		data.POST("/buildings/:id/units/bulk", handler.CreateUnitsBulk)
		data.PUT("/units/:id", handler.UpdateUnit)
		data.DELETE("/units/:id", handler.DeleteUnit)

		data.GET("/suggestions/staff", handler.GetStaffSuggestions)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   &ErrorInfo{Message: fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)},
		})
	})

	return r
}

// NewServerHandler wraps the router with CORS handling for the configured origins.
func NewServerHandler(router http.Handler, cfg config.ServerConfig) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	}).Handler(router)
}
