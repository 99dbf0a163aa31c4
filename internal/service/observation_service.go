package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/dto"
	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
)

type observationRepository interface {
	List(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error)
	FindByID(ctx context.Context, id int64) (*models.Observation, error)
	Create(ctx context.Context, obs models.NewObservation) (int64, error)
	Update(ctx context.Context, id int64, changes models.ObservationChanges) error
	Delete(ctx context.Context, id int64) error
}

type observationNotifier interface {
	Dispatch(ctx context.Context, obs *models.Observation, baseURL string) error
}

// CreateObservationRequest represents payload for recording an observation.
type CreateObservationRequest struct {
	TeacherID    int64   `json:"teacher_id" validate:"required,gt=0"`
	DepartmentID int64   `json:"department_id" validate:"required,gt=0"`
	FocusAreaID  int64   `json:"focus_area_id" validate:"required,gt=0"`
	ClassName    string  `json:"class_name" validate:"required,max=16"`
	Strengths    *string `json:"strengths" validate:"omitempty,max=1000"`
	Weaknesses   *string `json:"weaknesses" validate:"omitempty,max=1000"`
	Comments     *string `json:"comments" validate:"omitempty,max=1000"`
}

// UpdateObservationRequest represents a partial update. Absent fields are
// left unchanged; an empty narrative clears it.
type UpdateObservationRequest struct {
	TeacherID    *int64  `json:"teacher_id" validate:"omitempty,gt=0"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,gt=0"`
	FocusAreaID  *int64  `json:"focus_area_id" validate:"omitempty,gt=0"`
	ClassName    *string `json:"class_name" validate:"omitempty,max=16"`
	Strengths    *string `json:"strengths" validate:"omitempty,max=1000"`
	Weaknesses   *string `json:"weaknesses" validate:"omitempty,max=1000"`
	Comments     *string `json:"comments" validate:"omitempty,max=1000"`
}

// NotifyOptions asks a write to mail the observed teacher afterwards.
// BaseURL is the externally visible origin used to build the PDF link.
type NotifyOptions struct {
	Notify  bool
	BaseURL string
}

// ObservationService orchestrates observation operations.
type ObservationService struct {
	repo      observationRepository
	notifier  observationNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewObservationService constructs an ObservationService.
func NewObservationService(repo observationRepository, notifier observationNotifier, validate *validator.Validate, logger *zap.Logger) *ObservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservationService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns observation summaries, newest first. An empty result is not an error.
func (s *ObservationService) List(ctx context.Context, filter models.ObservationFilter) ([]dto.ObservationSummary, error) {
	observations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list observations")
	}
	summaries := make([]dto.ObservationSummary, 0, len(observations))
	for _, obs := range observations {
		summaries = append(summaries, dto.NewObservationSummary(obs))
	}
	return summaries, nil
}

// Get returns one observation with its resolved references.
func (s *ObservationService) Get(ctx context.Context, id int64) (*dto.ObservationDetail, error) {
	obs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := dto.NewObservationDetail(*obs)
	return &detail, nil
}

// Create records an observation and returns its id. When opts.Notify is set
// a mail is scheduled afterwards; a scheduling failure is returned together
// with the id because the row stays committed.
func (s *ObservationService) Create(ctx context.Context, req CreateObservationRequest, opts NotifyOptions) (int64, error) {
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Strengths = trimmedOrNil(req.Strengths)
	req.Weaknesses = trimmedOrNil(req.Weaknesses)
	req.Comments = trimmedOrNil(req.Comments)
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid observation payload")
	}

	id, err := s.repo.Create(ctx, models.NewObservation{
		TeacherID:    req.TeacherID,
		DepartmentID: req.DepartmentID,
		FocusAreaID:  req.FocusAreaID,
		ClassName:    req.ClassName,
		Strengths:    req.Strengths,
		Weaknesses:   req.Weaknesses,
		Comments:     req.Comments,
	})
	if err != nil {
		return 0, s.writeError(err, "failed to create observation")
	}
	s.logger.Info("observation created", zap.Int64("observation_id", id), zap.Bool("notify", opts.Notify))

	if opts.Notify {
		return id, s.notify(ctx, id, opts.BaseURL)
	}
	return id, nil
}

// Update applies the supplied fields. With no fields it fails with
// NOTHING_TO_UPDATE unless opts.Notify (resend) is set.
func (s *ObservationService) Update(ctx context.Context, id int64, req UpdateObservationRequest, opts NotifyOptions) error {
	req.ClassName = trimmed(req.ClassName)
	req.Strengths = trimmed(req.Strengths)
	req.Weaknesses = trimmed(req.Weaknesses)
	req.Comments = trimmed(req.Comments)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid observation payload")
	}
	if req.ClassName != nil && *req.ClassName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "class_name cannot be empty")
	}
	changes := models.ObservationChanges{
		TeacherID:    req.TeacherID,
		DepartmentID: req.DepartmentID,
		FocusAreaID:  req.FocusAreaID,
		ClassName:    req.ClassName,
		Strengths:    req.Strengths,
		Weaknesses:   req.Weaknesses,
		Comments:     req.Comments,
	}

	if changes.Empty() {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		if !opts.Notify {
			return appErrors.Clone(appErrors.ErrNothingToUpdate, "nothing to update")
		}
	} else if err := s.repo.Update(ctx, id, changes); err != nil {
		return s.writeError(err, "failed to update observation")
	}

	if opts.Notify {
		return s.notify(ctx, id, opts.BaseURL)
	}
	return nil
}

// Delete removes an observation. Deleting a missing id is a not found error.
func (s *ObservationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete observation")
	}
	s.logger.Info("observation deleted", zap.Int64("observation_id", id))
	return nil
}

// SendEmail schedules a mail for an existing observation.
func (s *ObservationService) SendEmail(ctx context.Context, id int64, baseURL string) error {
	return s.notify(ctx, id, baseURL)
}

func (s *ObservationService) notify(ctx context.Context, id int64, baseURL string) error {
	obs, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		return appErrors.Clone(appErrors.ErrUpstream, "mailer not configured")
	}
	return s.notifier.Dispatch(ctx, obs, baseURL)
}

func (s *ObservationService) load(ctx context.Context, id int64) (*models.Observation, error) {
	obs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observation")
	}
	return obs, nil
}

func (s *ObservationService) writeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "observation not found")
	}
	var missing *models.MissingReferenceError
	if errors.As(err, &missing) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, missing.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// trimmed keeps an empty result so an update can clear the field.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
