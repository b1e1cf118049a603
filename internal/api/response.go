package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-backend/internal/service"
	"property-backend/internal/upload"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request. Stack is only filled outside production.
type ErrorInfo struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// fail maps err onto a status code and writes the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err), upload.IsRejected(err):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	}

	info := &ErrorInfo{Message: err.Error()}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		if h.production {
			info.Message = "Internal Server Error"
		}
	}
	if !h.production {
		info.Stack = fmt.Sprintf("%+v", err)
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Error: info})
}

// badRequest reports a malformed body as a validation error.
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.fail(c, service.Validationf("%s", err.Error()))
}
