package dto

import (
	"time"

	"github.com/noah-isme/focused-api/internal/models"
)

// ObservationSummary is one row of the observation listing. Reference names
// are nil when the referenced row no longer resolves.
type ObservationSummary struct {
	ID              int64     `json:"id"`
	ObservationDate time.Time `json:"observation_date"`
	TeacherForename *string   `json:"teacher_forename"`
	TeacherSurname  *string   `json:"teacher_surname"`
	ClassName       string    `json:"class_name"`
	DepartmentName  *string   `json:"department_name"`
	FocusAreaName   *string   `json:"focus_area_name"`
}

// ObservationDetail carries the full record: foreign key ids for edit forms
// and resolved names for display.
type ObservationDetail struct {
	ObservationSummary
	TeacherID    int64   `json:"teacher_id"`
	TeacherEmail *string `json:"teacher_email"`
	DepartmentID int64   `json:"department_id"`
	FocusAreaID  int64   `json:"focus_area_id"`
	Strengths    *string `json:"strengths"`
	Weaknesses   *string `json:"weaknesses"`
	Comments     *string `json:"comments"`
}

// CreatedObservation is returned after a successful create.
type CreatedObservation struct {
	ID int64 `json:"id"`
}

// UpdatedObservation is returned after a successful update.
type UpdatedObservation struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Message wraps a plain confirmation.
type Message struct {
	Message string `json:"message"`
}

// NewObservationSummary projects an observation onto its listing row.
func NewObservationSummary(obs models.Observation) ObservationSummary {
	summary := ObservationSummary{
		ID:              obs.ID,
		ObservationDate: obs.ObservedAt,
		ClassName:       obs.ClassName,
	}
	if obs.Teacher != nil {
		summary.TeacherForename = stringPtr(obs.Teacher.Forename)
		summary.TeacherSurname = stringPtr(obs.Teacher.Surname)
	}
	if obs.Department != nil {
		summary.DepartmentName = stringPtr(obs.Department.Name)
	}
	if obs.FocusArea != nil {
		summary.FocusAreaName = stringPtr(obs.FocusArea.Name)
	}
	return summary
}

// NewObservationDetail projects an observation onto the read-one payload.
func NewObservationDetail(obs models.Observation) ObservationDetail {
	detail := ObservationDetail{
		ObservationSummary: NewObservationSummary(obs),
		TeacherID:          obs.TeacherID,
		DepartmentID:       obs.DepartmentID,
		FocusAreaID:        obs.FocusAreaID,
		Strengths:          obs.Strengths,
		Weaknesses:         obs.Weaknesses,
		Comments:           obs.Comments,
	}
	if obs.Teacher != nil {
		detail.TeacherEmail = stringPtr(obs.Teacher.Email)
	}
	return detail
}

func stringPtr(v string) *string {
	return &v
}
