package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/focused-api/internal/models"
)

const foreignKeyViolation = "23503"

// Reference rows are LEFT JOINed so a dangling reference yields NULL columns
// instead of dropping the observation.
const observationSelect = `SELECT o.id, o.observation_date, o.teacher_id, o.department_id, o.focus_area_id, o.class_name, o.strengths, o.weaknesses, o.comments,
u.id AS teacher_ref_id, u.forename AS teacher_forename, u.surname AS teacher_surname, u.email AS teacher_email,
d.id AS department_ref_id, d.name AS department_name,
f.id AS focus_area_ref_id, f.name AS focus_area_name
FROM observations o
LEFT JOIN users u ON u.id = o.teacher_id
LEFT JOIN departments d ON d.id = o.department_id
LEFT JOIN focus_areas f ON f.id = o.focus_area_id`

type observationRow struct {
	ID           int64     `db:"id"`
	ObservedAt   time.Time `db:"observation_date"`
	TeacherID    int64     `db:"teacher_id"`
	DepartmentID int64     `db:"department_id"`
	FocusAreaID  int64     `db:"focus_area_id"`
	ClassName    string    `db:"class_name"`
	Strengths    *string   `db:"strengths"`
	Weaknesses   *string   `db:"weaknesses"`
	Comments     *string   `db:"comments"`

	TeacherRefID    *int64  `db:"teacher_ref_id"`
	TeacherForename *string `db:"teacher_forename"`
	TeacherSurname  *string `db:"teacher_surname"`
	TeacherEmail    *string `db:"teacher_email"`
	DepartmentRefID *int64  `db:"department_ref_id"`
	DepartmentName  *string `db:"department_name"`
	FocusAreaRefID  *int64  `db:"focus_area_ref_id"`
	FocusAreaName   *string `db:"focus_area_name"`
}

func (r observationRow) toModel() models.Observation {
	obs := models.Observation{
		ID:           r.ID,
		ObservedAt:   r.ObservedAt.UTC(),
		TeacherID:    r.TeacherID,
		DepartmentID: r.DepartmentID,
		FocusAreaID:  r.FocusAreaID,
		ClassName:    r.ClassName,
		Strengths:    r.Strengths,
		Weaknesses:   r.Weaknesses,
		Comments:     r.Comments,
	}
	if r.TeacherRefID != nil {
		obs.Teacher = &models.Teacher{
			ID:       *r.TeacherRefID,
			Forename: deref(r.TeacherForename),
			Surname:  deref(r.TeacherSurname),
			Email:    deref(r.TeacherEmail),
		}
	}
	if r.DepartmentRefID != nil {
		obs.Department = &models.Department{ID: *r.DepartmentRefID, Name: deref(r.DepartmentName)}
	}
	if r.FocusAreaRefID != nil {
		obs.FocusArea = &models.FocusArea{ID: *r.FocusAreaRefID, Name: deref(r.FocusAreaName)}
	}
	return obs
}

// ObservationRepository manages persistence for observations.
type ObservationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository constructs an ObservationRepository.
func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// List returns observations matching filter, newest first.
func (r *ObservationRepository) List(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error) {
	var conditions []string
	var args []interface{}

	if filter.TeacherID != nil {
		conditions = append(conditions, fmt.Sprintf("o.teacher_id = $%d", len(args)+1))
		args = append(args, *filter.TeacherID)
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("o.department_id = $%d", len(args)+1))
		args = append(args, *filter.DepartmentID)
	}
	if filter.FocusAreaID != nil {
		conditions = append(conditions, fmt.Sprintf("o.focus_area_id = $%d", len(args)+1))
		args = append(args, *filter.FocusAreaID)
	}

	query := observationSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.observation_date DESC, o.id DESC"

	var rows []observationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	observations := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, row.toModel())
	}
	return observations, nil
}

// FindByID fetches one observation with its reference rows joined.
func (r *ObservationRepository) FindByID(ctx context.Context, id int64) (*models.Observation, error) {
	var row observationRow
	if err := r.db.GetContext(ctx, &row, observationSelect+" WHERE o.id = $1", id); err != nil {
		return nil, err
	}
	obs := row.toModel()
	return &obs, nil
}

// Create inserts an observation and returns its id. The observation date is
// assigned by the database.
func (r *ObservationRepository) Create(ctx context.Context, obs models.NewObservation) (int64, error) {
	const query = `INSERT INTO observations (teacher_id, department_id, focus_area_id, class_name, strengths, weaknesses, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		obs.TeacherID, obs.DepartmentID, obs.FocusAreaID, obs.ClassName,
		obs.Strengths, obs.Weaknesses, obs.Comments,
	)
	if err != nil {
		return 0, fmt.Errorf("create observation: %w", translateWriteError(err))
	}
	return id, nil
}

// Update writes only the fields set in changes. It returns sql.ErrNoRows when
// the observation does not exist.
func (r *ObservationRepository) Update(ctx context.Context, id int64, changes models.ObservationChanges) error {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.TeacherID != nil {
		set("teacher_id", *changes.TeacherID)
	}
	if changes.DepartmentID != nil {
		set("department_id", *changes.DepartmentID)
	}
	if changes.FocusAreaID != nil {
		set("focus_area_id", *changes.FocusAreaID)
	}
	if changes.ClassName != nil {
		set("class_name", *changes.ClassName)
	}
	if changes.Strengths != nil {
		set("strengths", nullIfEmpty(*changes.Strengths))
	}
	if changes.Weaknesses != nil {
		set("weaknesses", nullIfEmpty(*changes.Weaknesses))
	}
	if changes.Comments != nil {
		set("comments", nullIfEmpty(*changes.Comments))
	}
	if len(sets) == 0 {
		return fmt.Errorf("update observation: no fields")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE observations SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update observation: %w", translateWriteError(err))
	}
	return requireAffected(res, "update observation")
}

// Delete hard-deletes an observation. It returns sql.ErrNoRows when nothing
// was deleted.
func (r *ObservationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM observations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete observation: %w", err)
	}
	return requireAffected(res, "delete observation")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// translateWriteError turns foreign key violations into MissingReferenceError.
func translateWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != foreignKeyViolation {
		return err
	}
	kind := "reference"
	switch {
	case strings.Contains(pqErr.Constraint, "teacher"):
		kind = "teacher"
	case strings.Contains(pqErr.Constraint, "department"):
		kind = "department"
	case strings.Contains(pqErr.Constraint, "focus_area"):
		kind = "focus area"
	}
	return &models.MissingReferenceError{Kind: kind}
}

func nullIfEmpty(v string) interface{} {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
