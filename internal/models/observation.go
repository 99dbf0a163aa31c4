package models

import "time"

// Observation is a recorded lesson observation. Teacher, Department and
// FocusArea hold the joined reference rows and are nil when the referenced
// row could not be resolved.
type Observation struct {
	ID           int64
	ObservedAt   time.Time
	TeacherID    int64
	DepartmentID int64
	FocusAreaID  int64
	ClassName    string
	Strengths    *string
	Weaknesses   *string
	Comments     *string

	Teacher    *Teacher
	Department *Department
	FocusArea  *FocusArea
}

// NewObservation holds the fields supplied when recording an observation.
type NewObservation struct {
	TeacherID    int64   `db:"teacher_id"`
	DepartmentID int64   `db:"department_id"`
	FocusAreaID  int64   `db:"focus_area_id"`
	ClassName    string  `db:"class_name"`
	Strengths    *string `db:"strengths"`
	Weaknesses   *string `db:"weaknesses"`
	Comments     *string `db:"comments"`
}

// ObservationChanges lists the fields of a partial update; nil means "leave
// unchanged".
type ObservationChanges struct {
	TeacherID    *int64
	DepartmentID *int64
	FocusAreaID  *int64
	ClassName    *string
	Strengths    *string
	Weaknesses   *string
	Comments     *string
}

// Empty reports whether no field is set.
func (c ObservationChanges) Empty() bool {
	return c.TeacherID == nil &&
		c.DepartmentID == nil &&
		c.FocusAreaID == nil &&
		c.ClassName == nil &&
		c.Strengths == nil &&
		c.Weaknesses == nil &&
		c.Comments == nil
}

// ObservationFilter narrows observation listings. Nil fields are ignored.
type ObservationFilter struct {
	TeacherID    *int64
	DepartmentID *int64
	FocusAreaID  *int64
}
