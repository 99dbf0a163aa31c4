package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/focused-api/internal/models"
)

// Named reference tables share the (id, name UNIQUE) shape.
const (
	TableDepartments = "departments"
	TableFocusAreas  = "focus_areas"
	TableFlagTypes   = "flag_types"
)

var namedTables = map[string]struct{}{
	TableDepartments: {},
	TableFocusAreas:  {},
	TableFlagTypes:   {},
}

// ReferenceRepository reads and seeds the lookup tables observations point at.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListTeachers returns every teacher ordered by surname.
func (r *ReferenceRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, forename, surname, email FROM users ORDER BY surname, forename, id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListDepartments returns every department ordered by name.
func (r *ReferenceRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, name FROM departments ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// ListFocusAreas returns every focus area ordered by name.
func (r *ReferenceRepository) ListFocusAreas(ctx context.Context) ([]models.FocusArea, error) {
	var areas []models.FocusArea
	if err := r.db.SelectContext(ctx, &areas, `SELECT id, name FROM focus_areas ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list focus areas: %w", err)
	}
	return areas, nil
}

// SeedTeachers inserts teachers only when the users table is empty and
// returns how many rows were written.
func (r *ReferenceRepository) SeedTeachers(ctx context.Context, teachers []models.Teacher) (int, error) {
	inserted := 0
	err := r.seedIfEmpty(ctx, "users", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO users (forename, surname, email) VALUES (:forename, :surname, :email) ON CONFLICT (email) DO NOTHING`
		for _, teacher := range teachers {
			res, err := tx.NamedExecContext(ctx, query, teacher)
			if err != nil {
				return fmt.Errorf("insert teacher %s: %w", teacher.Email, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

// SeedNames inserts names into a named reference table only when it is empty.
func (r *ReferenceRepository) SeedNames(ctx context.Context, table string, names []string) (int, error) {
	if _, ok := namedTables[table]; !ok {
		return 0, fmt.Errorf("seed %s: unknown reference table", table)
	}
	inserted := 0
	err := r.seedIfEmpty(ctx, table, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)
		for _, name := range names {
			res, err := tx.ExecContext(ctx, query, name)
			if err != nil {
				return fmt.Errorf("insert %s %q: %w", table, name, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

func (r *ReferenceRepository) seedIfEmpty(ctx context.Context, table string, insert func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed %s: begin: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var count int
	if err := tx.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return fmt.Errorf("seed %s: count: %w", table, err)
	}
	if count > 0 {
		return nil
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("seed %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed %s: commit: %w", table, err)
	}
	return nil
}
