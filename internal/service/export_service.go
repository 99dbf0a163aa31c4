package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/dto"
	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
	"github.com/noah-isme/focused-api/pkg/export"
	"github.com/noah-isme/focused-api/pkg/renderer"
)

// Render strategies reported in metrics.
const (
	RenderStrategyLocal  = "local"
	RenderStrategyRemote = "remote"
)

const (
	sheetTitle      = "FocusEd Lesson Observation"
	sheetDateLayout = "2006-01-02 15:04"
)

// observationCSVHeaders is the column order of the CSV export.
var observationCSVHeaders = []string{"id", "observation_date", "teacher", "class", "department", "focus_area"}

type observationReader interface {
	List(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error)
	FindByID(ctx context.Context, id int64) (*models.Observation, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

type remoteRenderer interface {
	Render(ctx context.Context, html string) (*renderer.Document, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// PDFDocument is a rendered observation ready to stream. Length is -1 when
// the remote renderer did not report one.
type PDFDocument struct {
	Filename string
	Body     io.ReadCloser
	Length   int64
}

// ExportConfig selects the PDF strategy. A nil Remote renders in-process.
type ExportConfig struct {
	Local  sheetRenderer
	Remote remoteRenderer
	CSV    csvRenderer
}

// ExportService renders observations as PDF sheets and CSV listings.
type ExportService struct {
	repo    observationReader
	local   sheetRenderer
	remote  remoteRenderer
	csv     csvRenderer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo observationReader, cfg ExportConfig, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Local == nil {
		cfg.Local = export.NewPDFExporter()
	}
	if cfg.CSV == nil {
		cfg.CSV = export.NewCSVExporter()
	}
	return &ExportService{
		repo:    repo,
		local:   cfg.Local,
		remote:  cfg.Remote,
		csv:     cfg.CSV,
		metrics: metrics,
		logger:  logger,
	}
}

// Strategy reports which PDF renderer is in use.
func (s *ExportService) Strategy() string {
	if s.remote != nil {
		return RenderStrategyRemote
	}
	return RenderStrategyLocal
}

// ObservationPDF renders the observation sheet for id. A missing observation
// fails before any renderer is called. The caller must close the body.
func (s *ExportService) ObservationPDF(ctx context.Context, id int64) (*PDFDocument, error) {
	obs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observation")
	}

	sheet := ObservationSheet(obs)
	filename := fmt.Sprintf("observation_%d.pdf", id)

	if s.remote == nil {
		data, err := s.local.Render(sheet)
		s.metrics.RecordPDFRender(RenderStrategyLocal, err == nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &PDFDocument{Filename: filename, Body: io.NopCloser(bytes.NewReader(data)), Length: int64(len(data))}, nil
	}

	html, err := export.RenderHTML(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	doc, err := s.remote.Render(ctx, html)
	s.metrics.RecordPDFRender(RenderStrategyRemote, err == nil)
	if err != nil {
		s.logger.Warn("pdf renderer failed", zap.Int64("observation_id", id), zap.Error(err))
		message := "pdf renderer error"
		if errors.Is(err, renderer.ErrUnreachable) {
			message = "pdf renderer unreachable"
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
	}
	return &PDFDocument{Filename: filename, Body: doc.Body, Length: doc.Length}, nil
}

// ObservationsCSV renders the filtered observation listing as CSV.
func (s *ExportService) ObservationsCSV(ctx context.Context, filter models.ObservationFilter) ([]byte, error) {
	observations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list observations")
	}
	dataset := export.Dataset{Headers: observationCSVHeaders, Rows: make([]map[string]string, 0, len(observations))}
	for _, obs := range observations {
		summary := dto.NewObservationSummary(obs)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"id":               strconv.FormatInt(summary.ID, 10),
			"observation_date": summary.ObservationDate.UTC().Format(sheetDateLayout),
			"teacher":          teacherName(obs.Teacher),
			"class":            summary.ClassName,
			"department":       derefString(summary.DepartmentName),
			"focus_area":       derefString(summary.FocusAreaName),
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ObservationSheet lays out the printable fields of obs. When the focus area
// row is missing its raw id is shown.
func ObservationSheet(obs *models.Observation) export.Sheet {
	focus := strconv.FormatInt(obs.FocusAreaID, 10)
	if obs.FocusArea != nil {
		focus = obs.FocusArea.Name
	}
	return export.Sheet{
		Title: sheetTitle,
		Fields: []export.Field{
			{Label: "Teacher", Value: export.Valued(teacherName(obs.Teacher))},
			{Label: "Date", Value: export.Valued(obs.ObservedAt.UTC().Format(sheetDateLayout))},
			{Label: "Class", Value: export.Valued(obs.ClassName)},
			{Label: "Focus Area", Value: export.Valued(focus)},
			{Label: "Strengths", Value: export.Valued(derefString(obs.Strengths))},
			{Label: "Areas for Development", Value: export.Valued(derefString(obs.Weaknesses))},
			{Label: "Other Comments", Value: export.Valued(derefString(obs.Comments))},
		},
	}
}

func teacherName(t *models.Teacher) string {
	if t == nil {
		return ""
	}
	return t.FullName()
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
