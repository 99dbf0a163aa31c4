package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
)

// Cache keys for reference listings. ReferenceCachePattern matches all of them.
const (
	cacheKeyTeachers      = "reference:teachers"
	cacheKeyDepartments   = "reference:departments"
	cacheKeyFocusAreas    = "reference:focus_areas"
	ReferenceCachePattern = "reference:*"
)

type referenceRepository interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListFocusAreas(ctx context.Context) ([]models.FocusArea, error)
}

// ReferenceService serves the lookup tables used to build observation forms.
// An empty table is reported as not found: it means seeding never ran.
type ReferenceService struct {
	repo   referenceRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewReferenceService constructs a ReferenceService. cache may be nil.
func NewReferenceService(repo referenceRepository, cache *CacheService, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, logger: logger}
}

// Teachers lists every teacher by surname.
func (s *ReferenceService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if hit, _ := s.cache.Get(ctx, cacheKeyTeachers, &teachers); hit && len(teachers) > 0 {
		return teachers, nil
	}
	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if len(teachers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no teachers found")
	}
	_ = s.cache.Set(ctx, cacheKeyTeachers, teachers, 0)
	return teachers, nil
}

// Departments lists every department by name.
func (s *ReferenceService) Departments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if hit, _ := s.cache.Get(ctx, cacheKeyDepartments, &departments); hit && len(departments) > 0 {
		return departments, nil
	}
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	if len(departments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no departments found")
	}
	_ = s.cache.Set(ctx, cacheKeyDepartments, departments, 0)
	return departments, nil
}

// FocusAreas lists every focus area by name.
func (s *ReferenceService) FocusAreas(ctx context.Context) ([]models.FocusArea, error) {
	var areas []models.FocusArea
	if hit, _ := s.cache.Get(ctx, cacheKeyFocusAreas, &areas); hit && len(areas) > 0 {
		return areas, nil
	}
	areas, err := s.repo.ListFocusAreas(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list focus areas")
	}
	if len(areas) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no focus areas found")
	}
	_ = s.cache.Set(ctx, cacheKeyFocusAreas, areas, 0)
	return areas, nil
}
