package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-backend/internal/service"
	"property-backend/internal/upload"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	properties  *service.PropertyService
	buildings   *service.BuildingService
	units       *service.UnitService
	suggestions *service.SuggestionService
	uploader    *upload.Uploader
	log         *zap.Logger
	production  bool
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Services, uploader *upload.Uploader, log *zap.Logger, production bool) *Handler {
	return &Handler{
		properties:  svc.Properties,
		buildings:   svc.Buildings,
		units:       svc.Units,
		suggestions: svc.Suggestions,
		uploader:    uploader,
		log:         log,
		production:  production,
	}
}

// HealthResponse is the payload of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStaffSuggestions handles GET /api/suggestions/staff.
func (h *Handler) GetStaffSuggestions(c *gin.Context) {
	s, err := h.suggestions.StaffSuggestions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}
