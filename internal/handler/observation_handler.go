package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/dto"
	"github.com/noah-isme/focused-api/internal/models"
	"github.com/noah-isme/focused-api/internal/service"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
	"github.com/noah-isme/focused-api/pkg/logger"
	"github.com/noah-isme/focused-api/pkg/response"
)

type observationService interface {
	List(ctx context.Context, filter models.ObservationFilter) ([]dto.ObservationSummary, error)
	Get(ctx context.Context, id int64) (*dto.ObservationDetail, error)
	Create(ctx context.Context, req service.CreateObservationRequest, opts service.NotifyOptions) (int64, error)
	Update(ctx context.Context, id int64, req service.UpdateObservationRequest, opts service.NotifyOptions) error
	Delete(ctx context.Context, id int64) error
	SendEmail(ctx context.Context, id int64, baseURL string) error
}

type observationCSVExporter interface {
	ObservationsCSV(ctx context.Context, filter models.ObservationFilter) ([]byte, error)
}

// ObservationHandler exposes observation CRUD and the email trigger.
type ObservationHandler struct {
	service  observationService
	exporter observationCSVExporter
	logger   *zap.Logger
}

// NewObservationHandler builds a new handler.
func NewObservationHandler(service observationService, exporter observationCSVExporter, logger *zap.Logger) *ObservationHandler {
	return &ObservationHandler{service: service, exporter: exporter, logger: logger}
}

// List godoc
// @Summary List observations
// @Tags Observations
// @Produce json
// @Param teacher_id query int false "Teacher ID"
// @Param department_id query int false "Department ID"
// @Param focus_area_id query int false "Focus area ID"
// @Success 200 {object} response.Envelope
// @Router /observations [get]
func (h *ObservationHandler) List(c *gin.Context) {
	filter, err := observationFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Create godoc
// @Summary Record an observation
// @Tags Observations
// @Accept json
// @Produce json
// @Param notify query bool false "Email the observed teacher"
// @Param payload body service.CreateObservationRequest true "Observation payload"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /new [post]
func (h *ObservationHandler) Create(c *gin.Context) {
	notify, err := queryBool(c, "notify")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	id, err := h.service.Create(c.Request.Context(), req, service.NotifyOptions{Notify: notify, BaseURL: requestBaseURL(c)})
	if err != nil {
		if id != 0 && appErrors.HasCode(err, appErrors.ErrUpstream.Code) {
			logger.FromContext(c, h.logger).Warn("observation saved but notification failed", zap.Int64("observation_id", id), zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CreatedObservation{ID: id})
}

// Get godoc
// @Summary Get observation detail
// @Tags Observations
// @Produce json
// @Param id path int true "Observation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /observations/{id} [get]
func (h *ObservationHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Update godoc
// @Summary Partially update an observation
// @Tags Observations
// @Accept json
// @Produce json
// @Param id path int true "Observation ID"
// @Param resend query bool false "Email the observed teacher again"
// @Param payload body service.UpdateObservationRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /observations/{id} [put]
func (h *ObservationHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	resend, err := queryBool(c, "resend")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateObservationRequest
	if c.Request.Body != nil {
		// an empty body is an empty change set
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, invalidBody(err))
			return
		}
	}
	if err := h.service.Update(c.Request.Context(), id, req, service.NotifyOptions{Notify: resend, BaseURL: requestBaseURL(c)}); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.UpdatedObservation{Message: "Observation updated", ID: id})
}

// Delete godoc
// @Summary Delete an observation
// @Tags Observations
// @Produce json
// @Param id path int true "Observation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /observations/{id} [delete]
func (h *ObservationHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.Message{Message: "Observation deleted successfully"})
}

// SendEmail godoc
// @Summary Email an observation to its teacher
// @Tags Observations
// @Produce json
// @Param id path int true "Observation ID"
// @Param notify query bool false "Logged only"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /observations/{id}/email [post]
func (h *ObservationHandler) SendEmail(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	notify, _ := queryBool(c, "notify")
	logger.FromContext(c, h.logger).Info("email trigger", zap.Int64("observation_id", id), zap.Bool("notify", notify))

	if err := h.service.SendEmail(c.Request.Context(), id, requestBaseURL(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.Message{Message: "Email queued"})
}

// Export godoc
// @Summary Export observations as CSV
// @Tags Observations
// @Produce text/csv
// @Param teacher_id query int false "Teacher ID"
// @Param department_id query int false "Department ID"
// @Param focus_area_id query int false "Focus area ID"
// @Success 200 {file} file
// @Router /observations/export [get]
func (h *ObservationHandler) Export(c *gin.Context) {
	filter, err := observationFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.exporter.ObservationsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "observations.csv", "text/csv; charset=utf-8", data)
}
