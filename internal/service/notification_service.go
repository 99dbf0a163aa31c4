package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
	"github.com/noah-isme/focused-api/pkg/jobs"
	"github.com/noah-isme/focused-api/pkg/mailer"
)

// NotificationJobType tags queued observation mails.
const NotificationJobType = "observation_mail"

const (
	fallbackTeacherName = "Teacher"
	obsDateLayout       = "2006-01-02"
)

type observationMailer interface {
	SendObservation(ctx context.Context, mail mailer.ObservationMail) mailer.Result
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService builds observation mails and hands them to the mail
// service. With a queue attached, delivery happens on a worker and callers
// only learn whether scheduling succeeded. Without one, delivery runs inline.
type NotificationService struct {
	mailer    observationMailer
	queue     jobEnqueuer
	metrics   *MetricsService
	apiPrefix string
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService. apiPrefix is the
// prefix the PDF route is mounted under.
func NewNotificationService(m observationMailer, metrics *MetricsService, apiPrefix string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mailer:    m,
		metrics:   metrics,
		apiPrefix: strings.TrimRight(apiPrefix, "/"),
		logger:    logger,
	}
}

// AttachQueue routes later dispatches through q.
func (s *NotificationService) AttachQueue(q jobEnqueuer) {
	s.queue = q
}

// PDFURL returns the absolute export URL for an observation.
func (s *NotificationService) PDFURL(baseURL string, id int64) string {
	return strings.TrimRight(baseURL, "/") + s.apiPrefix + "/pdf/" + strconv.FormatInt(id, 10)
}

// BuildPayload assembles the mail for obs. Any of the joined references may
// be missing; the corresponding fields are then nil.
func (s *NotificationService) BuildPayload(obs *models.Observation, baseURL string) mailer.ObservationMail {
	mail := mailer.ObservationMail{
		ObservationID: obs.ID,
		TeacherName:   fallbackTeacherName,
		ObsDate:       obs.ObservedAt.UTC().Format(obsDateLayout),
		ClassName:     nonEmpty(&obs.ClassName),
		Strengths:     nonEmpty(obs.Strengths),
		Weaknesses:    nonEmpty(obs.Weaknesses),
		Comments:      nonEmpty(obs.Comments),
		PDFURL:        s.PDFURL(baseURL, obs.ID),
	}
	if obs.Teacher != nil {
		mail.ToEmail = nonEmpty(&obs.Teacher.Email)
		if name := obs.Teacher.FullName(); name != "" {
			mail.TeacherName = name
		}
	}
	if obs.Department != nil {
		mail.DepartmentName = nonEmpty(&obs.Department.Name)
	}
	if obs.FocusArea != nil {
		mail.FocusArea = nonEmpty(&obs.FocusArea.Name)
	}
	return mail
}

// Dispatch schedules a mail for obs. The returned error only reflects
// scheduling; delivery failures are logged and counted.
func (s *NotificationService) Dispatch(ctx context.Context, obs *models.Observation, baseURL string) error {
	mail := s.BuildPayload(obs, baseURL)
	if s.queue == nil {
		s.deliver(ctx, mail)
		return nil
	}
	if err := s.queue.Enqueue(jobs.Job{Type: NotificationJobType, Payload: mail}); err != nil {
		s.metrics.RecordNotification(NotificationScheduleFailed)
		s.logger.Error("failed to schedule observation mail", zap.Int64("observation_id", obs.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "mailer call failed")
	}
	s.metrics.RecordNotification(NotificationQueued)
	return nil
}

// HandleJob is the queue handler for NotificationJobType jobs.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	mail, ok := job.Payload.(mailer.ObservationMail)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.Type)
	}
	if result := s.deliver(ctx, mail); !result.OK {
		return errors.New(result.Reason)
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, mail mailer.ObservationMail) mailer.Result {
	result := s.mailer.SendObservation(ctx, mail)
	if result.OK {
		s.metrics.RecordNotification(NotificationSent)
		s.logger.Info("observation mail sent", zap.Int64("observation_id", mail.ObservationID), zap.Int("status", result.StatusCode))
		return result
	}
	s.metrics.RecordNotification(NotificationFailed)
	s.logger.Warn("observation mail failed",
		zap.Int64("observation_id", mail.ObservationID),
		zap.Int("status", result.StatusCode),
		zap.String("reason", result.Reason),
	)
	return result
}

func nonEmpty(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	out := *v
	return &out
}
