package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/models"
	"github.com/noah-isme/focused-api/internal/repository"
)

// Default reference data written on first start.
var (
	DefaultDepartments = []string{"Religious Studies", "Computing", "French"}
	DefaultFocusAreas  = []string{
		"Synoptic", "Subject knowledge", "Explanations", "Questioning", "Feedback",
		"Modelling", "Metacognition", "Memory", "Behaviour",
	}
	DefaultFlagTypes = []string{"Exemplary", "Practice Alert"}
	DefaultTeachers  = []models.Teacher{
		{Forename: "Chloe", Surname: "Chen", Email: "focused-app.user1@maildrop.cc"},
		{Forename: "Colleen", Surname: "Murphy", Email: "focused-app.user2@maildrop.cc"},
		{Forename: "Peter", Surname: "Robinson", Email: "focused-app.user3@maildrop.cc"},
		{Forename: "Laura", Surname: "Williams", Email: "focused-app.user4@maildrop.cc"},
		{Forename: "Steven", Surname: "Ingram", Email: "focused-app.user5@maildrop.cc"},
		{Forename: "Anna", Surname: "Masters", Email: "focused-app.user6@maildrop.cc"},
		{Forename: "Taissa", Surname: "Hubbard", Email: "focused-app.user7@maildrop.cc"},
		{Forename: "Sally", Surname: "Mannon", Email: "focused-app.user8@maildrop.cc"},
	}
)

type referenceSeeder interface {
	SeedTeachers(ctx context.Context, teachers []models.Teacher) (int, error)
	SeedNames(ctx context.Context, table string, names []string) (int, error)
}

// SeedResult reports how many rows were inserted into one table.
type SeedResult struct {
	Table    string `json:"table"`
	Inserted int    `json:"inserted"`
}

// SeedService populates empty reference tables.
type SeedService struct {
	repo   referenceSeeder
	cache  *CacheService
	logger *zap.Logger
}

// NewSeedService constructs a SeedService. cache may be nil.
func NewSeedService(repo referenceSeeder, cache *CacheService, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{repo: repo, cache: cache, logger: logger}
}

// Seed inserts default rows into every reference table that is currently
// empty. Tables that already hold rows are left untouched.
func (s *SeedService) Seed(ctx context.Context) ([]SeedResult, error) {
	results := make([]SeedResult, 0, 4)

	named := []struct {
		table string
		names []string
	}{
		{repository.TableDepartments, DefaultDepartments},
		{repository.TableFocusAreas, DefaultFocusAreas},
		{repository.TableFlagTypes, DefaultFlagTypes},
	}
	for _, set := range named {
		n, err := s.repo.SeedNames(ctx, set.table, set.names)
		if err != nil {
			return results, fmt.Errorf("seed reference data: %w", err)
		}
		results = append(results, SeedResult{Table: set.table, Inserted: n})
	}

	n, err := s.repo.SeedTeachers(ctx, DefaultTeachers)
	if err != nil {
		return results, fmt.Errorf("seed reference data: %w", err)
	}
	results = append(results, SeedResult{Table: "users", Inserted: n})

	total := 0
	for _, r := range results {
		total += r.Inserted
		s.logger.Info("reference table seeded", zap.String("table", r.Table), zap.Int("inserted", r.Inserted))
	}
	if total > 0 {
		_ = s.cache.Invalidate(ctx, ReferenceCachePattern)
	}
	return results, nil
}
