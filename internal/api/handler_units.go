package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-backend/internal/parse"
	"property-backend/internal/service"
)

// ListUnits handles GET /api/buildings/:id/units.
func (h *Handler) ListUnits(c *gin.Context) {
	units, err := h.units.ListByBuilding(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, units)
}

// CreateUnit handles POST /api/buildings/:id/units.
func (h *Handler) CreateUnit(c *gin.Context) {
	var in service.UnitInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	u, err := h.units.Create(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

type bulkUnitsRequest struct {
	Units json.RawMessage `json:"units"`
}

// CreateUnitsBulk handles POST /api/buildings/:id/units/bulk.
func (h *Handler) CreateUnitsBulk(c *gin.Context) {
	var req bulkUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	in, err := parse.List[service.UnitInput](req.Units, "units")
	if err != nil {
		h.fail(c, service.Validationf("Units array is required and must not be empty"))
		return
	}
	units, err := h.units.CreateBulk(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, units)
}

// UpdateUnit handles PUT /api/units/:id. Keys missing from the body keep their
// stored value.
func (h *Handler) UpdateUnit(c *gin.Context) {
	var patch service.UnitPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	u, err := h.units.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

// DeleteUnit handles DELETE /api/units/:id.
func (h *Handler) DeleteUnit(c *gin.Context) {
	if err := h.units.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
