package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/focused-api/internal/service"
	"github.com/noah-isme/focused-api/pkg/response"
)

type pdfExporter interface {
	ObservationPDF(ctx context.Context, id int64) (*service.PDFDocument, error)
}

// ExportHandler serves observation PDFs.
type ExportHandler struct {
	service pdfExporter
}

// NewExportHandler builds a new handler.
func NewExportHandler(service pdfExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// PDF godoc
// @Summary Download an observation as PDF
// @Tags Export
// @Produce application/pdf
// @Param id path int true "Observation ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /pdf/{id} [get]
func (h *ExportHandler) PDF(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.ObservationPDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer doc.Body.Close() //nolint:errcheck

	c.DataFromReader(http.StatusOK, doc.Length, "application/pdf", doc.Body, map[string]string{
		"Content-Disposition": "attachment; filename=" + doc.Filename,
	})
}
