package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-backend/internal/parse"
	"property-backend/internal/service"
)

const declarationField = "declaration_file"

// ListProperties handles GET /api/properties.
func (h *Handler) ListProperties(c *gin.Context) {
	list, err := h.properties.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// GetProperty handles GET /api/properties/:id.
func (h *Handler) GetProperty(c *gin.Context) {
	p, err := h.properties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// CreateProperty handles POST /api/properties. It accepts JSON, or a multipart
// or urlencoded form whose buildings and units fields hold JSON arrays; a
// multipart form may carry a declaration file.
func (h *Handler) CreateProperty(c *gin.Context) {
	ctx := c.Request.Context()

	var in service.PropertyInput
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		var err error
		if in, err = propertyFromForm(c); err != nil {
			h.badRequest(c, err)
			return
		}
	default:
		if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
			h.badRequest(c, err)
			return
		}
	}

	// Reject a bad payload before anything is written to storage.
	if err := h.properties.Validate(in); err != nil {
		h.fail(c, err)
		return
	}

	var declaration *string
	if fh, err := c.FormFile(declarationField); err == nil {
		name, err := h.uploader.Save(ctx, fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		declaration = &name
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		h.badRequest(c, err)
		return
	}

	p, err := h.properties.Create(ctx, in, declaration)
	if err != nil {
		if declaration != nil {
			h.uploader.Discard(ctx, *declaration)
		}
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// UpdateProperty handles PUT /api/properties/:id.
func (h *Handler) UpdateProperty(c *gin.Context) {
	var patch service.PropertyPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	p, err := h.properties.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// DeleteProperty handles DELETE /api/properties/:id.
func (h *Handler) DeleteProperty(c *gin.Context) {
	if err := h.properties.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func propertyFromForm(c *gin.Context) (service.PropertyInput, error) {
	in := service.PropertyInput{
		Name:            formField(c, "name"),
		Type:            formField(c, "type"),
		PropertyManager: formField(c, "property_manager"),
		Accountant:      formField(c, "accountant"),
	}

	var err error
	if in.Buildings, err = parse.List[service.BuildingInput]([]byte(c.PostForm("buildings")), "buildings"); err != nil {
		return in, err
	}
	if in.Units, err = parse.List[service.UnitInput]([]byte(c.PostForm("units")), "units"); err != nil {
		return in, err
	}
	return in, nil
}

// formField reads a form value, remembering whether the key was sent at all.
func formField(c *gin.Context, key string) parse.Field[string] {
	v, ok := c.GetPostForm(key)
	if !ok {
		return parse.Field[string]{}
	}
	return parse.Some(v)
}
