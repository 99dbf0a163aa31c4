package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/focused-api/internal/models"
	"github.com/noah-isme/focused-api/pkg/response"
)

type referenceService interface {
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Departments(ctx context.Context) ([]models.Department, error)
	FocusAreas(ctx context.Context) ([]models.FocusArea, error)
}

// ReferenceHandler exposes the read-only lookup tables.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler builds a new handler.
func NewReferenceHandler(service referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// Teachers godoc
// @Summary List teachers
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers [get]
func (h *ReferenceHandler) Teachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, teachers)
}

// Departments godoc
// @Summary List departments
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments [get]
func (h *ReferenceHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, departments)
}

// FocusAreas godoc
// @Summary List focus areas
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /focus_areas [get]
func (h *ReferenceHandler) FocusAreas(c *gin.Context) {
	areas, err := h.service.FocusAreas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, areas)
}
