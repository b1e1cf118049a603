package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-backend/internal/service"
)

// ListBuildings handles GET /api/properties/:id/buildings.
func (h *Handler) ListBuildings(c *gin.Context) {
	buildings, err := h.buildings.ListByProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, buildings)
}

// CreateBuilding handles POST /api/properties/:id/buildings.
func (h *Handler) CreateBuilding(c *gin.Context) {
	var in service.BuildingInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	b, err := h.buildings.Create(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, b)
}

// UpdateBuilding handles PUT /api/buildings/:id. Keys missing from the body
// keep their stored value.
func (h *Handler) UpdateBuilding(c *gin.Context) {
	var patch service.BuildingPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	b, err := h.buildings.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

// DeleteBuilding handles DELETE /api/buildings/:id.
func (h *Handler) DeleteBuilding(c *gin.Context) {
	if err := h.buildings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
